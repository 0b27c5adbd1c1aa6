// Package epubtest builds EPUB archives for tests.
package epubtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Book describes the archive to build. Chapters become spine items in
// order; images are added to the manifest after the chapters.
type Book struct {
	Title    string
	Author   string
	Chapters []Chapter
	Images   []Image
}

// Chapter is one XHTML content document. Body is inserted as-is into the
// document body; a non-nil Raw replaces the whole document.
type Chapter struct {
	Name string
	Body string
	Raw  []byte
}

type Image struct {
	Name      string
	MediaType string
	Data      []byte
	// Properties is written as the manifest item properties, e.g. "cover-image".
	Properties string
}

// PNG is a signature-only PNG payload, enough for media sniffing.
var PNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")

// Bytes returns the archive for b.
func Bytes(t testing.TB, b Book) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	add := func(name string, data []byte, method uint16) {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: name, Method: method})
		if err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	add("mimetype", []byte("application/epub+zip"), zip.Store)
	add("META-INF/container.xml", []byte(`<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`), zip.Deflate)
	add("OEBPS/content.opf", opf(b), zip.Deflate)

	for _, ch := range b.Chapters {
		if ch.Raw != nil {
			add("OEBPS/"+ch.Name, ch.Raw, zip.Deflate)
			continue
		}
		doc := `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>` + html.EscapeString(ch.Name) + `</title></head>
<body>` + ch.Body + `</body></html>`
		add("OEBPS/"+ch.Name, []byte(doc), zip.Deflate)
	}
	for _, img := range b.Images {
		add("OEBPS/"+img.Name, img.Data, zip.Store)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// Write stores the archive for b as dir/name and returns its path.
func Write(t testing.TB, dir, name string, b Book) string {
	t.Helper()

	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, Bytes(t, b), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", p, err)
	}
	return p
}

func opf(b Book) []byte {
	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="uid">urn:uuid:epubtest</dc:identifier>
`)
	if b.Title != "" {
		fmt.Fprintf(&sb, "    <dc:title>%s</dc:title>\n", html.EscapeString(b.Title))
	}
	if b.Author != "" {
		fmt.Fprintf(&sb, "    <dc:creator>%s</dc:creator>\n", html.EscapeString(b.Author))
	}
	sb.WriteString("  </metadata>\n  <manifest>\n")
	for i, ch := range b.Chapters {
		fmt.Fprintf(&sb, "    <item id=\"ch%d\" href=\"%s\" media-type=\"application/xhtml+xml\"/>\n", i, ch.Name)
	}
	for i, img := range b.Images {
		props := ""
		if img.Properties != "" {
			props = fmt.Sprintf(" properties=\"%s\"", img.Properties)
		}
		fmt.Fprintf(&sb, "    <item id=\"img%d\" href=\"%s\" media-type=\"%s\"%s/>\n", i, img.Name, img.MediaType, props)
	}
	sb.WriteString("  </manifest>\n  <spine>\n")
	for i := range b.Chapters {
		fmt.Fprintf(&sb, "    <itemref idref=\"ch%d\"/>\n", i)
	}
	sb.WriteString("  </spine>\n</package>\n")

	return []byte(sb.String())
}
