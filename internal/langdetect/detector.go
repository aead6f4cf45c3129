// Package langdetect guesses the language of source text and normalises
// target language names.
package langdetect

import (
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultTargetLanguage is preselected when a user has no preferred languages.
const DefaultTargetLanguage = "Tamil"

// SupportedLanguages are the target languages offered in the UI.
var SupportedLanguages = []string{
	"Spanish", "French", "German", "Italian", "Portuguese", "English",
	"Russian", "Chinese", "Japanese", "Korean", "Hindi", "Arabic", "Tamil",
}

// Detection is the guessed language of a text.
type Detection struct {
	Language   string  `json:"language"`
	Code       string  `json:"code"`
	Script     string  `json:"script"`
	Confidence float64 `json:"confidence"`
	Reliable   bool    `json:"reliable"`
}

// Unknown reports whether nothing could be detected.
func (d Detection) Unknown() bool { return d.Language == "" }

type Detector struct {
	options whatlanggo.Options
}

func NewDetector() *Detector {
	return &Detector{}
}

// Detect returns the most likely language of text.
func (d *Detector) Detect(text string) Detection {
	if strings.TrimSpace(text) == "" {
		return Detection{}
	}
	info := whatlanggo.DetectWithOptions(text, d.options)
	if info.Script == nil {
		return Detection{}
	}
	return Detection{
		Language:   info.Lang.String(),
		Code:       info.Lang.Iso6393(),
		Script:     whatlanggo.Scripts[info.Script],
		Confidence: info.Confidence,
		Reliable:   info.IsReliable(),
	}
}

var titleCaser = cases.Title(language.English)

// NormalizeName returns the canonical spelling of a language name:
// a supported language regardless of case, otherwise the trimmed name in
// title case.
func NormalizeName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	for _, l := range SupportedLanguages {
		if strings.EqualFold(l, name) {
			return l
		}
	}
	return titleCaser.String(strings.ToLower(name))
}

// IsSupported reports whether name is one of SupportedLanguages.
func IsSupported(name string) bool {
	for _, l := range SupportedLanguages {
		if strings.EqualFold(l, strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}
