package epub

import (
	"net/url"
	"path"
	"strings"
)

// Resource is an image item declared in the package manifest.
type Resource struct {
	Path        string // logical path, exactly as declared in the manifest
	ArchivePath string // location inside the archive
	MediaType   string
	Data        []byte
}

// Resources is the set of image resources of one package, keyed by logical
// path and iterated in manifest order.
type Resources struct {
	order      []string
	byPath     map[string]Resource
	byArchive  map[string]string // archive path -> logical path
	normalized map[string]string // normalized logical path -> logical path
}

// NewResources creates an empty resource set.
func NewResources() *Resources {
	return &Resources{
		byPath:     make(map[string]Resource),
		byArchive:  make(map[string]string),
		normalized: make(map[string]string),
	}
}

// Add inserts res. Duplicate logical paths are skipped and reported as false.
func (r *Resources) Add(res Resource) bool {
	if _, exists := r.byPath[res.Path]; exists {
		return false
	}

	r.order = append(r.order, res.Path)
	r.byPath[res.Path] = res
	if res.ArchivePath != "" {
		if _, exists := r.byArchive[res.ArchivePath]; !exists {
			r.byArchive[res.ArchivePath] = res.Path
		}
	}
	if key := normalizeRef(res.Path); key != "" {
		if _, exists := r.normalized[key]; !exists {
			r.normalized[key] = res.Path
		}
	}
	return true
}

// Len returns the number of resources.
func (r *Resources) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Get returns the resource declared under logical path p.
func (r *Resources) Get(p string) (Resource, bool) {
	if r == nil {
		return Resource{}, false
	}
	res, ok := r.byPath[p]
	return res, ok
}

// All returns the resources in manifest order.
func (r *Resources) All() []Resource {
	if r == nil {
		return nil
	}
	all := make([]Resource, 0, len(r.order))
	for _, p := range r.order {
		all = append(all, r.byPath[p])
	}
	return all
}

// Resolve finds the resource an img reference inside the content document
// at docPath points to. The reference is tried relative to the document,
// then as a normalized logical path, then by file name alone; the first
// resource in manifest order with a matching file name wins.
func (r *Resources) Resolve(docPath, ref string) (Resource, bool) {
	if r == nil || len(r.order) == 0 {
		return Resource{}, false
	}

	ref, _ = splitFragment(strings.TrimSpace(ref))
	if ref == "" {
		return Resource{}, false
	}
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		return Resource{}, false
	}
	ref = unescapeRef(ref)

	if docPath != "" && !strings.HasPrefix(ref, "/") {
		archivePath := path.Join(path.Dir(docPath), ref)
		if p, ok := r.byArchive[archivePath]; ok {
			return r.byPath[p], true
		}
	}

	key := normalizeRef(ref)
	if key == "" {
		return Resource{}, false
	}
	if res, ok := r.byPath[key]; ok {
		return res, true
	}
	if p, ok := r.normalized[key]; ok {
		return r.byPath[p], true
	}

	base := path.Base(key)
	for _, p := range r.order {
		if path.Base(p) == base {
			return r.byPath[p], true
		}
	}

	return Resource{}, false
}

// normalizeRef strips leading "./" and "/" and drops "." and ".." segments.
func normalizeRef(ref string) string {
	segments := strings.Split(ref, "/")
	kept := segments[:0]
	for _, s := range segments {
		if s == "" || s == "." || s == ".." {
			continue
		}
		kept = append(kept, s)
	}
	return strings.Join(kept, "/")
}

// splitFragment splits a source path into the path and fragment identifier.
func splitFragment(src string) (p, fragment string) {
	p, fragment, _ = strings.Cut(src, "#")
	return p, fragment
}

func unescapeRef(ref string) string {
	if decoded, err := url.PathUnescape(ref); err == nil {
		return decoded
	}
	return ref
}

// isImage checks if a media type declares an image.
func isImage(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(mediaType), "image/")
}

// isXHTML checks if a media type indicates an XHTML content file.
func isXHTML(mediaType string) bool {
	return strings.Contains(strings.ToLower(mediaType), "html")
}
