package pipeline

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// extractText pulls plain text out of the document by file extension:
// PDF and DOCX get dedicated parsers, everything else is treated as text.
func extractText(fileName string, content []byte) (string, error) {
	if len(content) == 0 {
		return "", extractionError("empty document")
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return extractPDF(content)
	case ".docx", ".doc":
		return extractDOCX(content)
	default:
		if !utf8.Valid(content) {
			return "", extractionError("unrecognized binary content")
		}
		return string(content), nil
	}
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", extractionError("parse pdf: " + err.Error())
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", extractionError("read pdf text: " + err.Error())
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", extractionError("read pdf text: " + err.Error())
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	readerAt := bytes.NewReader(data)
	zr, err := zip.NewReader(readerAt, int64(len(data)))
	if err != nil {
		return "", extractionError("parse docx: " + err.Error())
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", extractionError("docx missing document.xml")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", extractionError("open docx body: " + err.Error())
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", extractionError("read docx body: " + err.Error())
	}
	return stripDocxXML(string(raw)), nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
