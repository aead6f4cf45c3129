package translation

import (
	"reflect"
	"testing"
)

func TestParseSections(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  map[string]string
	}{
		{
			name:  "all three sections in order",
			reply: "TRANSLATION:\nHola\n\nCULTURAL_CONTEXT:\nNote\n\nIDIOMS:\nNone",
			want: map[string]string{
				SectionTranslation:     "Hola",
				SectionCulturalContext: "Note",
				SectionIdioms:          "None",
			},
		},
		{
			name:  "only translation",
			reply: "TRANSLATION:\nBonjour le monde",
			want:  map[string]string{SectionTranslation: "Bonjour le monde"},
		},
		{
			name:  "repeated label keeps the later block",
			reply: "TRANSLATION:\nfirst\nIDIOMS:\nx\nTRANSLATION:\nsecond",
			want: map[string]string{
				SectionTranslation: "second",
				SectionIdioms:      "x",
			},
		},
		{
			name:  "out of order labels",
			reply: "IDIOMS:\nidiom\nTRANSLATION:\nCiao",
			want: map[string]string{
				SectionTranslation: "Ciao",
				SectionIdioms:      "idiom",
			},
		},
		{
			name:  "preamble before first label is dropped",
			reply: "Sure! Here you go.\nTRANSLATION:\nHallo",
			want:  map[string]string{SectionTranslation: "Hallo"},
		},
		{
			name:  "label inside a sentence is not a delimiter",
			reply: "TRANSLATION:\nThe word IDIOMS: has no meaning here\nSecond line",
			want:  map[string]string{SectionTranslation: "The word IDIOMS: has no meaning here\nSecond line"},
		},
		{
			name:  "multi-line body joined with newlines, blank lines skipped",
			reply: "CULTURAL_CONTEXT:\n  line one  \n\n\nline two\n",
			want:  map[string]string{SectionCulturalContext: "line one\nline two"},
		},
		{
			name:  "indented labels and CRLF",
			reply: "  TRANSLATION:\r\n  Olá\r\n  IDIOMS:\r\n  -\r\n",
			want: map[string]string{
				SectionTranslation: "Olá",
				SectionIdioms:      "-",
			},
		},
		{
			name:  "text on the label line is kept",
			reply: "TRANSLATION: Hej\nIDIOMS: none",
			want: map[string]string{
				SectionTranslation: "Hej",
				SectionIdioms:      "none",
			},
		},
		{
			name:  "label with empty body",
			reply: "TRANSLATION:\nCześć\nCULTURAL_CONTEXT:\n",
			want: map[string]string{
				SectionTranslation:     "Cześć",
				SectionCulturalContext: "",
			},
		},
		{
			name:  "unstructured reply",
			reply: "I cannot help with that.",
			want:  map[string]string{},
		},
		{
			name:  "empty reply",
			reply: "",
			want:  map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSections(tt.reply)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseSections() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseSectionsMissingKeyReadsEmpty(t *testing.T) {
	got := ParseSections("TRANSLATION:\nHola")
	if _, ok := got[SectionIdioms]; ok {
		t.Fatal("IDIOMS key should be absent")
	}
	if got[SectionIdioms] != "" {
		t.Error("missing key should read as empty string")
	}
}
