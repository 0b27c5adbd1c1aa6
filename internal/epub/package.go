package epub

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Options configure how a package is opened.
type Options struct {
	// Backend selects a registered backend; empty means DefaultBackend.
	Backend string
	Logger  *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Package is an opened EPUB: its metadata, parsed OPF and image resources.
type Package struct {
	Title     string
	Author    string
	Metadata  Metadata
	Resources *Resources
	Warnings  []string

	opf     *OPF
	opfPath string
	archive Archive
	logger  *slog.Logger
}

// Open opens the EPUB file at path.
func Open(filePath string, opts Options) (*Package, error) {
	backend, err := lookupBackend(opts.Backend)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, filePath)
		}
		return nil, fmt.Errorf("%w: %w", ErrUnreadablePackage, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnreadablePackage, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnreadablePackage, filePath)
	}

	archive, err := backend(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnreadablePackage, err)
	}

	p, err := newPackage(archive, filePath, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	p.archive = &closingArchive{Archive: archive, file: f}

	return p, nil
}

// OpenBytes opens an EPUB held in memory. name provides the fallback title.
func OpenBytes(name string, data []byte, opts Options) (*Package, error) {
	backend, err := lookupBackend(opts.Backend)
	if err != nil {
		return nil, err
	}

	archive, err := backend(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadablePackage, err)
	}

	return newPackage(archive, name, opts)
}

func newPackage(archive Archive, name string, opts Options) (*Package, error) {
	logger := opts.logger()

	p := &Package{
		archive:   archive,
		logger:    logger,
		Resources: NewResources(),
	}

	p.Warnings = checkMimetype(archive)

	opfPath, err := findOPFPath(archive)
	if err != nil {
		archive.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnreadablePackage, err)
	}
	p.opfPath = opfPath

	opfData, err := archive.ReadFile(opfPath)
	if err != nil {
		archive.Close()
		return nil, fmt.Errorf("%w: failed to read OPF: %w", ErrUnreadablePackage, err)
	}

	opfDir := path.Dir(opfPath)
	opf, err := ParseOPF(opfData, opfDir)
	if err != nil {
		archive.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnreadablePackage, err)
	}
	p.opf = opf
	p.Metadata = opf.Metadata

	p.Title = opf.Metadata.Title
	if p.Title == "" {
		p.Title = baseName(name)
	}
	p.Author = opf.Metadata.Author()

	for _, id := range opf.ManifestOrder {
		item := opf.Manifest[id]
		if !isImage(item.MediaType) {
			continue
		}
		data, err := archive.ReadFile(item.Path)
		if err != nil {
			logger.Warn("skipping unreadable image resource", slog.String("path", item.Href), slog.Any("error", err))
			p.Warnings = append(p.Warnings, fmt.Sprintf("image %s: %v", item.Href, err))
			continue
		}
		p.Resources.Add(Resource{
			Path:        item.Href,
			ArchivePath: item.Path,
			MediaType:   item.MediaType,
			Data:        data,
		})
	}

	for _, w := range p.Warnings {
		logger.Debug("package warning", slog.String("package", name), slog.String("warning", w))
	}

	return p, nil
}

// Close releases the archive.
func (p *Package) Close() error {
	if p.archive == nil {
		return nil
	}
	return p.archive.Close()
}

// OPF returns the parsed package document.
func (p *Package) OPF() *OPF {
	return p.opf
}

// OPFPath returns the path to the OPF file
func (p *Package) OPFPath() string {
	return p.opfPath
}

// Archive returns the underlying archive.
func (p *Package) Archive() Archive {
	return p.archive
}

// baseName returns the file name of p without its extension.
func baseName(p string) string {
	base := filepath.Base(p)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type closingArchive struct {
	Archive
	file *os.File
}

func (a *closingArchive) Close() error {
	err := a.Archive.Close()
	if ferr := a.file.Close(); err == nil {
		err = ferr
	}
	return err
}
