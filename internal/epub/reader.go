package epub

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// maxDecompressSize caps the decompressed size of a single archive entry.
const maxDecompressSize int64 = 256 * 1024 * 1024

const epubMimetype = "application/epub+zip"

// zipArchive provides access to EPUB file contents
type zipArchive struct {
	reader *zip.Reader
	closer io.Closer
	files  map[string]*zip.File
	lower  map[string]*zip.File
	limit  int64
}

// container.xml structure
type container struct {
	Rootfiles struct {
		Rootfile []struct {
			FullPath  string `xml:"full-path,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

func openZipArchive(r io.ReaderAt, size int64) (Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	return newZipArchive(zr, nil), nil
}

func newZipArchive(zr *zip.Reader, closer io.Closer) *zipArchive {
	a := &zipArchive{
		reader: zr,
		closer: closer,
		files:  make(map[string]*zip.File, len(zr.File)),
		lower:  make(map[string]*zip.File, len(zr.File)),
		limit:  maxDecompressSize,
	}

	// Build file map with normalized paths
	for _, f := range zr.File {
		name := normalizePath(f.Name)
		a.files[name] = f
		if _, exists := a.lower[strings.ToLower(name)]; !exists {
			a.lower[strings.ToLower(name)] = f
		}
	}

	return a
}

// Close closes the underlying file, if any.
func (a *zipArchive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Names returns the sorted entry names.
func (a *zipArchive) Names() []string {
	names := make([]string, 0, len(a.files))
	for name := range a.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadFile reads the contents of a file from the archive. Lookups fall back
// to a case-insensitive match.
func (a *zipArchive) ReadFile(name string) ([]byte, error) {
	name = normalizePath(name)
	f, ok := a.files[name]
	if !ok {
		f, ok = a.lower[strings.ToLower(name)]
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}

	if f.UncompressedSize64 > uint64(a.limit) {
		return nil, fmt.Errorf("file %s too large: %d bytes (max %d)", name, f.UncompressedSize64, a.limit)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, a.limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", name, err)
	}
	if int64(len(data)) > a.limit {
		return nil, fmt.Errorf("file %s exceeds decompression limit (%d bytes)", name, a.limit)
	}

	return data, nil
}

// checkMimetype reports deviations of the mimetype entry. They are not fatal:
// plenty of readable books ship a compressed or missing mimetype.
func checkMimetype(a Archive) []string {
	var warnings []string

	if za, ok := a.(*zipArchive); ok {
		f, exists := za.files["mimetype"]
		if !exists {
			return []string{"mimetype file not found"}
		}
		if f.Method != zip.Store {
			warnings = append(warnings, "mimetype must not be compressed")
		}
	}

	content, err := a.ReadFile("mimetype")
	if err != nil {
		return append(warnings, fmt.Sprintf("failed to read mimetype: %v", err))
	}
	if strings.TrimSpace(string(content)) != epubMimetype {
		warnings = append(warnings, fmt.Sprintf("invalid mimetype %q", strings.TrimSpace(string(content))))
	}

	return warnings
}

// findOPFPath parses container.xml to extract the OPF path
func findOPFPath(a Archive) (string, error) {
	content, err := a.ReadFile("META-INF/container.xml")
	if err != nil {
		return "", ErrContainerNotFound
	}

	var c container
	if err := xml.Unmarshal(content, &c); err != nil {
		return "", fmt.Errorf("failed to parse container.xml: %w", err)
	}

	// Find the OPF file path
	for _, rf := range c.Rootfiles.Rootfile {
		if rf.MediaType == "application/oebps-package+xml" || rf.MediaType == "" {
			return normalizePath(rf.FullPath), nil
		}
	}

	// If no media-type match, use the first one
	if len(c.Rootfiles.Rootfile) > 0 {
		return normalizePath(c.Rootfiles.Rootfile[0].FullPath), nil
	}

	return "", ErrOPFPathNotFound
}

// normalizePath normalizes file paths (removes ./ prefix)
func normalizePath(p string) string {
	return strings.TrimPrefix(p, "./")
}
