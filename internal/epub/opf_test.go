package epub

import (
	"testing"
)

func TestParseOPF_EPUB20(t *testing.T) {
	opfContent := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="BookId">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title>Sample Book</dc:title>
    <dc:creator opf:role="aut">John Doe</dc:creator>
    <dc:creator opf:role="edt">Jane Smith</dc:creator>
    <dc:language>en</dc:language>
    <dc:identifier id="other">urn:other</dc:identifier>
    <dc:identifier id="BookId">urn:uuid:12345</dc:identifier>
    <meta name="cover" content="cover-image"/>
  </metadata>
  <manifest>
    <item id="ch1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="chapter2.xhtml" media-type="application/xhtml+xml"/>
    <item id="cover-image" href="images/cover.jpg" media-type="image/jpeg"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="ch1"/>
    <itemref idref="ch2" linear="no"/>
  </spine>
</package>`)

	opf, err := ParseOPF(opfContent, "OEBPS")
	if err != nil {
		t.Fatalf("ParseOPF() failed: %v", err)
	}

	if opf.Metadata.Title != "Sample Book" {
		t.Errorf("Title = %q, want %q", opf.Metadata.Title, "Sample Book")
	}
	if len(opf.Metadata.Creators) != 2 {
		t.Fatalf("Creators length = %d, want 2", len(opf.Metadata.Creators))
	}
	if opf.Metadata.Creators[0].Role != "aut" || opf.Metadata.Creators[1].Role != "edt" {
		t.Errorf("creator roles = %q, %q", opf.Metadata.Creators[0].Role, opf.Metadata.Creators[1].Role)
	}
	if opf.Metadata.Author() != "John Doe" {
		t.Errorf("Author() = %q, want %q", opf.Metadata.Author(), "John Doe")
	}
	if opf.Metadata.Language != "en" {
		t.Errorf("Language = %q, want %q", opf.Metadata.Language, "en")
	}
	if opf.Metadata.Identifier != "urn:uuid:12345" {
		t.Errorf("Identifier = %q, want %q", opf.Metadata.Identifier, "urn:uuid:12345")
	}
	if opf.Metadata.CoverID != "cover-image" {
		t.Errorf("CoverID = %q, want %q", opf.Metadata.CoverID, "cover-image")
	}

	item, ok := opf.Manifest["cover-image"]
	if !ok {
		t.Fatal("cover-image missing from manifest")
	}
	if item.Href != "images/cover.jpg" {
		t.Errorf("Href = %q, want %q", item.Href, "images/cover.jpg")
	}
	if item.Path != "OEBPS/images/cover.jpg" {
		t.Errorf("Path = %q, want %q", item.Path, "OEBPS/images/cover.jpg")
	}

	wantOrder := []string{"ch1", "ch2", "cover-image"}
	if len(opf.ManifestOrder) != len(wantOrder) {
		t.Fatalf("ManifestOrder = %v, want %v", opf.ManifestOrder, wantOrder)
	}
	for i, id := range wantOrder {
		if opf.ManifestOrder[i] != id {
			t.Errorf("ManifestOrder[%d] = %q, want %q", i, opf.ManifestOrder[i], id)
		}
	}

	if len(opf.Spine) != 2 {
		t.Fatalf("Spine length = %d, want 2", len(opf.Spine))
	}
	if !opf.Spine[0].Linear || opf.Spine[1].Linear {
		t.Errorf("Spine linear = %v, %v, want true, false", opf.Spine[0].Linear, opf.Spine[1].Linear)
	}

	cover, ok := opf.DeclaredCover()
	if !ok || cover.ID != "cover-image" {
		t.Errorf("DeclaredCover() = %+v, %v", cover, ok)
	}
}

func TestParseOPF_EPUB30(t *testing.T) {
	opfContent := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="uid">urn:isbn:9780000000000</dc:identifier>
    <dc:title></dc:title>
    <dc:title>EPUB 3 Book</dc:title>
    <dc:creator id="creator01">Author Name</dc:creator>
    <meta refines="#creator01" property="role" scheme="marc:relators">aut</meta>
    <dc:language>ja</dc:language>
  </metadata>
  <manifest>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="cover" href="images/cover.png" media-type="image/png" properties="cover-image"/>
    <item id="cover" href="images/duplicate.png" media-type="image/png"/>
    <item id="ch1" href="text/chapter%201.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="ch1"/>
  </spine>
</package>`)

	opf, err := ParseOPF(opfContent, ".")
	if err != nil {
		t.Fatalf("ParseOPF() failed: %v", err)
	}

	if opf.Metadata.Title != "EPUB 3 Book" {
		t.Errorf("Title = %q, want first non-empty title", opf.Metadata.Title)
	}
	if len(opf.Metadata.Creators) != 1 || opf.Metadata.Creators[0].Role != "aut" {
		t.Errorf("Creators = %+v, want one refined as aut", opf.Metadata.Creators)
	}

	if got := opf.Manifest["cover"].Href; got != "images/cover.png" {
		t.Errorf("duplicate id should keep the first item, got %q", got)
	}
	if len(opf.ManifestOrder) != 3 {
		t.Errorf("ManifestOrder = %v, want 3 ids", opf.ManifestOrder)
	}

	ch1 := opf.Manifest["ch1"]
	if ch1.Href != "text/chapter%201.xhtml" {
		t.Errorf("Href = %q, want the declared value", ch1.Href)
	}
	if ch1.Path != "text/chapter 1.xhtml" {
		t.Errorf("Path = %q, want %q", ch1.Path, "text/chapter 1.xhtml")
	}

	nav := opf.Manifest["nav"]
	if len(nav.Properties) != 1 || nav.Properties[0] != "nav" {
		t.Errorf("Properties = %v, want [nav]", nav.Properties)
	}

	cover, ok := opf.DeclaredCover()
	if !ok || cover.Href != "images/cover.png" {
		t.Errorf("DeclaredCover() = %+v, %v", cover, ok)
	}
}

func TestParseOPF_MinimalRequired(t *testing.T) {
	opf, err := ParseOPF([]byte(`<package xmlns="http://www.idpf.org/2007/opf"><metadata/><manifest/><spine/></package>`), "")
	if err != nil {
		t.Fatalf("ParseOPF() failed: %v", err)
	}

	if opf.Metadata.Title != "" || opf.Metadata.Author() != "" {
		t.Errorf("Metadata = %+v, want empty", opf.Metadata)
	}
	if len(opf.Manifest) != 0 || len(opf.Spine) != 0 {
		t.Errorf("want empty manifest and spine")
	}
	if _, ok := opf.DeclaredCover(); ok {
		t.Error("DeclaredCover() should report false")
	}
}

func TestParseOPF_Invalid(t *testing.T) {
	if _, err := ParseOPF([]byte("not xml at all <"), "OEBPS"); err == nil {
		t.Fatal("ParseOPF() should fail on malformed XML")
	}
}

func TestJoinPath_SlashNormalization(t *testing.T) {
	tests := []struct {
		base, rel, want string
	}{
		{"OEBPS", "chapter1.xhtml", "OEBPS/chapter1.xhtml"},
		{"OEBPS", "../images/a.png", "images/a.png"},
		{"OEBPS/", "./text/c.xhtml", "OEBPS/text/c.xhtml"},
		{".", "chapter1.xhtml", "chapter1.xhtml"},
		{"", "./a//b.xhtml", "a/b.xhtml"},
	}

	for _, tt := range tests {
		if got := joinPath(tt.base, tt.rel); got != tt.want {
			t.Errorf("joinPath(%q, %q) = %q, want %q", tt.base, tt.rel, got, tt.want)
		}
	}
}
