package epub

// OPF is a decoded package document.
type OPF struct {
	Metadata      Metadata
	Manifest      map[string]ManifestItem
	ManifestOrder []string // manifest ids, in document order
	Spine         []SpineItem
}

type Metadata struct {
	Title      string
	Creators   []Creator
	Language   string
	Identifier string
	// CoverID is the manifest id named by <meta name="cover" content="...">.
	CoverID string
}

type Creator struct {
	Name string
	Role string // MARC relator code such as "aut"
}

// ManifestItem is one resource declared by the package. Href is kept as
// written; Path is the decoded location inside the archive.
type ManifestItem struct {
	ID         string
	Href       string
	Path       string
	MediaType  string
	Properties []string
}

type SpineItem struct {
	IDRef  string
	Linear bool
}

// Author returns the first creator name, or "" when none is declared.
func (m Metadata) Author() string {
	if len(m.Creators) == 0 {
		return ""
	}
	return m.Creators[0].Name
}
