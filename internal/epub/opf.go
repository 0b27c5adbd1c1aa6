package epub

import (
	"encoding/xml"
	"fmt"
	"path"
	"slices"
	"strings"
)

// packageDocument mirrors the parts of the OPF document the reader uses.
type packageDocument struct {
	XMLName    xml.Name `xml:"package"`
	UniqueID   string   `xml:"unique-identifier,attr"`
	Titles     []string `xml:"metadata>title"`
	Languages  []string `xml:"metadata>language"`
	Identifier []struct {
		ID    string `xml:"id,attr"`
		Value string `xml:",chardata"`
	} `xml:"metadata>identifier"`
	Creators []struct {
		ID   string `xml:"id,attr"`
		Role string `xml:"role,attr"`
		Name string `xml:",chardata"`
	} `xml:"metadata>creator"`
	Metas []struct {
		Name     string `xml:"name,attr"`
		Content  string `xml:"content,attr"`
		Property string `xml:"property,attr"`
		Refines  string `xml:"refines,attr"`
		Text     string `xml:",chardata"`
	} `xml:"metadata>meta"`
	Items []struct {
		ID         string `xml:"id,attr"`
		Href       string `xml:"href,attr"`
		MediaType  string `xml:"media-type,attr"`
		Properties string `xml:"properties,attr"`
	} `xml:"manifest>item"`
	ItemRefs []struct {
		IDRef  string `xml:"idref,attr"`
		Linear string `xml:"linear,attr"`
	} `xml:"spine>itemref"`
}

// ParseOPF decodes an OPF document. opfDir is the archive directory holding
// the document; manifest paths are resolved against it.
func ParseOPF(content []byte, opfDir string) (*OPF, error) {
	var doc packageDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse OPF XML: %w", err)
	}

	opf := &OPF{
		Metadata: doc.metadata(),
		Manifest: make(map[string]ManifestItem, len(doc.Items)),
	}

	for _, it := range doc.Items {
		// first declaration of an id wins
		if _, seen := opf.Manifest[it.ID]; seen {
			continue
		}
		opf.Manifest[it.ID] = ManifestItem{
			ID:         it.ID,
			Href:       it.Href,
			Path:       joinPath(opfDir, unescapeRef(it.Href)),
			MediaType:  strings.TrimSpace(it.MediaType),
			Properties: strings.Fields(it.Properties),
		}
		opf.ManifestOrder = append(opf.ManifestOrder, it.ID)
	}

	opf.Spine = make([]SpineItem, 0, len(doc.ItemRefs))
	for _, ref := range doc.ItemRefs {
		opf.Spine = append(opf.Spine, SpineItem{IDRef: ref.IDRef, Linear: ref.Linear != "no"})
	}

	return opf, nil
}

func (doc *packageDocument) metadata() Metadata {
	md := Metadata{
		Title:    firstNonEmpty(doc.Titles...),
		Language: firstNonEmpty(doc.Languages...),
	}

	for _, id := range doc.Identifier {
		value := strings.TrimSpace(id.Value)
		if md.Identifier == "" || (id.ID != "" && id.ID == doc.UniqueID) {
			md.Identifier = value
		}
		if id.ID != "" && id.ID == doc.UniqueID {
			break
		}
	}

	// EPUB 3 packages declare roles with <meta refines="#id" property="role">.
	refinedRoles := make(map[string]string)
	for _, m := range doc.Metas {
		switch {
		case m.Property == "role" && strings.HasPrefix(m.Refines, "#"):
			refinedRoles[strings.TrimPrefix(m.Refines, "#")] = strings.TrimSpace(firstNonEmpty(m.Text, m.Content))
		case m.Name == "cover" && md.CoverID == "":
			md.CoverID = strings.TrimSpace(m.Content)
		}
	}

	for _, c := range doc.Creators {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		role := c.Role
		if r, ok := refinedRoles[c.ID]; ok && c.ID != "" {
			role = r
		}
		md.Creators = append(md.Creators, Creator{Name: name, Role: role})
	}

	return md
}

// DeclaredCover returns the manifest item the package names as its cover,
// through properties="cover-image" or <meta name="cover">.
func (opf *OPF) DeclaredCover() (ManifestItem, bool) {
	for _, id := range opf.ManifestOrder {
		if item := opf.Manifest[id]; slices.Contains(item.Properties, "cover-image") {
			return item, true
		}
	}

	item, ok := opf.Manifest[opf.Metadata.CoverID]
	if !ok || opf.Metadata.CoverID == "" {
		return ManifestItem{}, false
	}
	return item, true
}

// joinPath resolves rel against the archive directory base.
func joinPath(base, rel string) string {
	if base == "" || base == "." {
		return path.Clean(rel)
	}
	return path.Join(base, rel)
}

// firstNonEmpty returns the first value that is not blank, trimmed.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	return ""
}
