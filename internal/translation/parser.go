package translation

import "strings"

// Section labels the model is asked to emit, without the trailing colon.
const (
	SectionTranslation     = "TRANSLATION"
	SectionCulturalContext = "CULTURAL_CONTEXT"
	SectionIdioms          = "IDIOMS"
)

var sectionLabels = []string{SectionTranslation, SectionCulturalContext, SectionIdioms}

// ParseSections splits a model reply into its labelled sections.
//
// A trimmed line that starts with "LABEL:" opens a section; text after the
// colon on the same line is kept as the first body line. Blank lines are
// skipped and lines before the first label are dropped. Sections the model
// omitted are absent from the map, and a repeated label replaces the earlier
// body. It never fails: an unstructured reply yields an empty map.
func ParseSections(reply string) map[string]string {
	sections := make(map[string]string)

	var current string
	var body []string
	flush := func() {
		if current != "" {
			sections[current] = strings.TrimSpace(strings.Join(body, "\n"))
		}
	}

	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if label, rest, ok := matchLabel(line); ok {
			flush()
			current = label
			body = body[:0]
			if rest != "" {
				body = append(body, rest)
			}
			continue
		}

		if current != "" {
			body = append(body, line)
		}
	}
	flush()

	return sections
}

func matchLabel(line string) (label, rest string, ok bool) {
	for _, l := range sectionLabels {
		if strings.HasPrefix(line, l+":") {
			return l, strings.TrimSpace(line[len(l)+1:]), true
		}
	}
	return "", "", false
}
