package extract

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var errInvalidUTF8 = errors.New("text is not valid UTF-8")

type txtExtractor struct{}

func (txtExtractor) Type() string { return "txt" }

// Extract decodes UTF-8, honouring a UTF-8 or UTF-16 byte order mark.
func (txtExtractor) Extract(data []byte) (string, error) {
	utf16BOM := bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF})
	if !utf16BOM && !utf8.Valid(data) {
		return "", errInvalidUTF8
	}

	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(out), nil
}
