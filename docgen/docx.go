// Package docgen renders the question, answer and cited sources into a
// WordprocessingML (.docx) artifact and archives it in blob storage.
package docgen

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

const (
	contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

	relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

	noSourcesLine = "No specific documents were cited for this response."
)

// Render produces the bytes of a minimal valid .docx package: title,
// question, answer and sources sections laid out per the template.
func Render(question, answer string, sources []string, layout Layout) ([]byte, error) {
	var body strings.Builder

	body.WriteString(titleParagraph(layout.Title, layout.TitleSize))
	if layout.Spaced {
		body.WriteString(emptyParagraph())
	}

	body.WriteString(headingParagraph("Question:"))
	body.WriteString(boldParagraph(question))
	if layout.Spaced {
		body.WriteString(emptyParagraph())
	}

	body.WriteString(headingParagraph("Answer:"))
	for _, line := range strings.Split(answer, "\n") {
		body.WriteString(textParagraph(line))
	}
	if layout.Spaced {
		body.WriteString(emptyParagraph())
	}

	body.WriteString(headingParagraph("Sources Consulted:"))
	if len(sources) == 0 {
		body.WriteString(textParagraph(noSourcesLine))
	}
	for _, source := range sources {
		body.WriteString(textParagraph("• " + source))
	}

	documentXML := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>%s<w:sectPr/></w:body>
</w:document>`, body.String())

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/document.xml", documentXML},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("create docx part %s: %w", part.name, err)
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, fmt.Errorf("write docx part %s: %w", part.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize docx package: %w", err)
	}

	return buf.Bytes(), nil
}

func titleParagraph(text string, size int) string {
	return fmt.Sprintf(
		`<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:rPr><w:b/><w:sz w:val="%d"/></w:rPr>%s</w:r></w:p>`,
		size, textRun(text))
}

func headingParagraph(text string) string {
	return fmt.Sprintf(
		`<w:p><w:r><w:rPr><w:b/><w:sz w:val="28"/></w:rPr>%s</w:r></w:p>`,
		textRun(text))
}

func boldParagraph(text string) string {
	return fmt.Sprintf(`<w:p><w:r><w:rPr><w:b/></w:rPr>%s</w:r></w:p>`, textRun(text))
}

func textParagraph(text string) string {
	return fmt.Sprintf(`<w:p><w:r>%s</w:r></w:p>`, textRun(text))
}

func emptyParagraph() string {
	return `<w:p/>`
}

func textRun(text string) string {
	return fmt.Sprintf(`<w:t xml:space="preserve">%s</w:t>`, escape(text))
}

func escape(text string) string {
	var buf bytes.Buffer
	// EscapeText only fails on a broken writer; bytes.Buffer never is.
	_ = xml.EscapeText(&buf, []byte(text))
	return buf.String()
}
