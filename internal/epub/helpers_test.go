package epub

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

const testContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const testOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="uid">urn:uuid:1234</dc:identifier>
    <dc:title>Test Book</dc:title>
    <dc:creator>Jane Doe</dc:creator>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>
    <item id="chapter1" href="text/chapter1.xhtml" media-type="application/xhtml+xml"/>
    <item id="chapter2" href="text/chapter2.xhtml" media-type="application/xhtml+xml"/>
    <item id="img1" href="images/fig1.png" media-type="image/png"/>
    <item id="cover" href="images/cover.jpg" media-type="image/jpeg"/>
    <item id="css" href="style.css" media-type="text/css"/>
  </manifest>
  <spine>
    <itemref idref="chapter1"/>
    <itemref idref="css"/>
    <itemref idref="missing"/>
    <itemref idref="chapter2"/>
  </spine>
</package>`

const testChapter1 = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>ignored</title></head>
<body><h1>Chapter One</h1><p>Hello, World!</p><img src="../images/fig1.png" alt="figure"/></body>
</html>`

const testChapter2 = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<body><h2>Chapter Two</h2><ul><li>first</li><li>second</li></ul></body>
</html>`

var (
	testPNG  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")
	testJPEG = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
)

type zipEntry struct {
	name   string
	data   []byte
	method uint16
}

// buildZip writes entries, in order, into a zip archive.
func buildZip(t *testing.T, entries []zipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: e.name, Method: e.method})
		if err != nil {
			t.Fatalf("failed to create %s: %v", e.name, err)
		}
		if _, err := fw.Write(e.data); err != nil {
			t.Fatalf("failed to write %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// testEntries returns a well-formed two chapter package with two images.
func testEntries() []zipEntry {
	return []zipEntry{
		{name: "mimetype", data: []byte(epubMimetype), method: zip.Store},
		{name: "META-INF/container.xml", data: []byte(testContainerXML), method: zip.Deflate},
		{name: "OEBPS/content.opf", data: []byte(testOPF), method: zip.Deflate},
		{name: "OEBPS/text/chapter1.xhtml", data: []byte(testChapter1), method: zip.Deflate},
		{name: "OEBPS/text/chapter2.xhtml", data: []byte(testChapter2), method: zip.Deflate},
		{name: "OEBPS/images/fig1.png", data: testPNG, method: zip.Store},
		{name: "OEBPS/images/cover.jpg", data: testJPEG, method: zip.Store},
		{name: "OEBPS/style.css", data: []byte("p { margin: 0 }"), method: zip.Deflate},
	}
}

// replaceEntry swaps the data of the named entry.
func replaceEntry(entries []zipEntry, name string, data []byte) []zipEntry {
	out := make([]zipEntry, len(entries))
	copy(out, entries)
	for i := range out {
		if out[i].name == name {
			out[i].data = data
		}
	}
	return out
}

// writeEPUB stores the archive under dir and returns its path.
func writeEPUB(t *testing.T, dir, name string, entries []zipEntry) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, buildZip(t, entries), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", p, err)
	}
	return p
}

func openTestPackage(t *testing.T, entries []zipEntry) *Package {
	t.Helper()
	p, err := OpenBytes("test.epub", buildZip(t, entries), Options{})
	if err != nil {
		t.Fatalf("OpenBytes() failed: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}
