package extract

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

func readDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return paragraphsText(doc.Editable().GetContent())
}

// paragraphFrame is an open w:p. Paragraphs nested inside it (text boxes) are kept
// aside and emitted after it.
type paragraphFrame struct {
	text   strings.Builder
	nested []string
}

// paragraphsText walks word/document.xml and joins the text of every w:p with newlines.
// Text boxes are emitted after the paragraph that anchors them. The mc:Fallback copy
// of alternate content is skipped.
func paragraphsText(documentXML string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(documentXML))

	var (
		paragraphs []string
		open       []*paragraphFrame
		inText     bool
		fallback   int
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read document xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "Fallback" {
				fallback++
			}
			if fallback > 0 {
				continue
			}
			switch t.Name.Local {
			case "p":
				open = append(open, &paragraphFrame{})
			case "t":
				inText = true
			case "tab":
				if len(open) > 0 {
					open[len(open)-1].text.WriteString("\t")
				}
			case "br", "cr":
				if len(open) > 0 {
					open[len(open)-1].text.WriteString("\n")
				}
			}
		case xml.EndElement:
			if t.Name.Local == "Fallback" && fallback > 0 {
				fallback--
				continue
			}
			if fallback > 0 {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if len(open) == 0 {
					continue
				}
				frame := open[len(open)-1]
				open = open[:len(open)-1]
				out := append([]string{frame.text.String()}, frame.nested...)
				if len(open) > 0 {
					parent := open[len(open)-1]
					parent.nested = append(parent.nested, out...)
				} else {
					paragraphs = append(paragraphs, out...)
				}
			}
		case xml.CharData:
			if inText && fallback == 0 && len(open) > 0 {
				open[len(open)-1].text.Write(t)
			}
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}
