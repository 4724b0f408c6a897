// ABOUTME: DOCX parser reading paragraphs and tables from word/document.xml
// ABOUTME: Non-empty paragraphs come first, then table rows with cells joined by " | "
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

type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
		Tables     []table     `xml:"tbl"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []struct {
		Content string `xml:",chardata"`
	} `xml:"t"`
}

type table struct {
	Rows []struct {
		Cells []struct {
			Paragraphs []paragraph `xml:"p"`
		} `xml:"tc"`
	} `xml:"tr"`
}

func (p paragraph) text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		for _, t := range r.Text {
			sb.WriteString(t.Content)
		}
	}
	return sb.String()
}

// DOCX extracts the body text of a Word document
func DOCX(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("not a docx archive: %w", err)
	}

	raw, err := readZipEntry(reader, "word/document.xml")
	if err != nil {
		return "", err
	}

	var doc documentXML
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("invalid document.xml: %w", err)
	}

	var parts []string
	for _, p := range doc.Body.Paragraphs {
		if t := p.text(); strings.TrimSpace(t) != "" {
			parts = append(parts, t)
		}
	}

	for _, tbl := range doc.Body.Tables {
		for _, row := range tbl.Rows {
			var cells []string
			for _, cell := range row.Cells {
				texts := make([]string, len(cell.Paragraphs))
				for i, p := range cell.Paragraphs {
					texts[i] = p.text()
				}
				if c := strings.TrimSpace(strings.Join(texts, "\n")); c != "" {
					cells = append(cells, c)
				}
			}
			if len(cells) > 0 {
				parts = append(parts, strings.Join(cells, " | "))
			}
		}
	}

	return strings.Join(parts, "\n\n"), nil
}

func readZipEntry(reader *zip.Reader, name string) ([]byte, error) {
	for _, f := range reader.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, errors.New("missing " + name)
}
