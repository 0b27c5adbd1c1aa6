package cover

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/yuanying/epubpager/internal/model"
)

var ErrNotImage = errors.New("cover data is not an image")

// Store writes cover images into a blob filesystem, one file per book.
type Store struct {
	fs         afero.Fs
	normalizer *Normalizer
	logger     *slog.Logger
}

type Options struct {
	// MaxWidth is the width covers are shrunk to; zero keeps the original size.
	MaxWidth int
	Logger   *slog.Logger
}

func NewStore(fs afero.Fs, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		fs:         fs,
		normalizer: NewNormalizer(opts.MaxWidth),
		logger:     logger,
	}
}

// NewDirStore creates a store rooted at dir on the local filesystem,
// creating the directory if needed.
func NewDirStore(dir string, opts Options) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WithStack(err)
	}
	return NewStore(afero.NewBasePathFs(afero.NewOsFs(), dir), opts), nil
}

// Write stores data as the cover of bookID and returns its path inside the
// store. ext is ".png" or ".jpg".
func (s *Store) Write(bookID model.BookID, data []byte, ext string) (string, error) {
	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return "", errors.Wrapf(ErrNotImage, "book %d: detected %s", bookID, detected.String())
	}

	normalized, err := s.normalizer.Normalize(data, ext)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if normalized.Warning != "" {
		s.logger.Warn("cover kept as-is", slog.Int64("book_id", int64(bookID)), slog.String("warning", normalized.Warning))
	}

	name := FileName(bookID, ext)
	if err := afero.WriteFile(s.fs, name, normalized.Data, 0o644); err != nil {
		return "", errors.Wrapf(err, "could not write cover '%s'", name)
	}

	s.logger.Debug("cover written",
		slog.Int64("book_id", int64(bookID)),
		slog.String("path", name),
		slog.Int("width", normalized.Width),
		slog.Int("height", normalized.Height),
		slog.Bool("resized", normalized.Resized),
	)

	return name, nil
}

// Read returns the cover stored at p.
func (s *Store) Read(p string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, p)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return data, nil
}

// Remove deletes the cover stored at p. Missing files are not an error.
func (s *Store) Remove(p string) error {
	if p == "" {
		return nil
	}
	if err := s.fs.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "could not remove cover '%s'", p)
	}
	return nil
}

// FileName returns the name a cover is stored under.
func FileName(bookID model.BookID, ext string) string {
	if ext == "" {
		ext = ".jpg"
	}
	return path.Clean(fmt.Sprintf("%d%s", bookID, ext))
}
