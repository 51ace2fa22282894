package docparse

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// docx paragraphs live in word/document.xml as w:p elements containing
// w:t text runs. We only need the text, so the decoder walks the token
// stream instead of modelling the full WordprocessingML schema.

// ParseDOCX extracts paragraph text from a DOCX body.
func ParseDOCX(body []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	var docXML io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docXML, err = f.Open()
			if err != nil {
				return "", fmt.Errorf("open document.xml: %w", err)
			}
			break
		}
	}
	if docXML == nil {
		return "", fmt.Errorf("docx has no word/document.xml")
	}
	defer docXML.Close()

	text, err := wordXMLText(docXML)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", fmt.Errorf("docx has no extractable text")
	}
	return text, nil
}

func wordXMLText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var b strings.Builder
	var para strings.Builder
	inText := false

	flush := func() {
		if s := strings.TrimSpace(para.String()); s != "" {
			b.WriteString(s)
			b.WriteString("\n\n")
		}
		para.Reset()
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	flush()

	return strings.TrimSpace(b.String()), nil
}

// IsDOCX reports whether body looks like a ZIP container holding a
// WordprocessingML document.
func IsDOCX(body []byte) bool {
	if !bytes.HasPrefix(body, []byte("PK\x03\x04")) {
		return false
	}
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			return true
		}
	}
	return false
}
