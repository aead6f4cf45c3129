package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

type docxExtractor struct{}

func (docxExtractor) Type() string { return "docx" }

// Extract returns the text of the top-level body paragraphs, one per line.
// Paragraphs nested in tables or text boxes are skipped.
func (docxExtractor) Extract(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("docx archive: %w", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return "", errors.New("docx archive has no " + docxBody)
	}

	rc, err := body.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	paragraphs, err := bodyParagraphs(io.LimitReader(rc, MaxFileSize*4))
	if err != nil {
		return "", fmt.Errorf("docx document: %w", err)
	}
	return strings.Join(paragraphs, "\n"), nil
}

func bodyParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		stack      []string
		paragraphs []string
		current    strings.Builder
		inPara     bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			name := el.Name.Local
			if name == "p" && len(stack) == 2 && stack[1] == "body" {
				inPara = true
				current.Reset()
			}
			if inPara {
				switch name {
				case "tab":
					current.WriteByte('\t')
				case "br", "cr":
					current.WriteByte('\n')
				}
			}
			stack = append(stack, name)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if inPara && el.Name.Local == "p" && len(stack) == 2 {
				paragraphs = append(paragraphs, current.String())
				inPara = false
			}
		case xml.CharData:
			if inPara && len(stack) > 0 && stack[len(stack)-1] == "t" {
				current.Write(el)
			}
		}
	}
	return paragraphs, nil
}
