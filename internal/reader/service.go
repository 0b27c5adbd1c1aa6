package reader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuanying/epubpager/internal/epub"
	"github.com/yuanying/epubpager/internal/metrics"
	"github.com/yuanying/epubpager/internal/model"
	"github.com/yuanying/epubpager/internal/pager"
	"github.com/yuanying/epubpager/internal/store"
)

// CoverStore writes cover images for books.
type CoverStore interface {
	Write(bookID model.BookID, data []byte, ext string) (string, error)
	Remove(path string) error
}

// Options configure a Service. Store is required; a nil Covers disables
// cover extraction and a nil Cache gets a default one.
type Options struct {
	Store   store.Store
	Covers  CoverStore
	Cache   *pager.Cache
	Backend string
	Logger  *slog.Logger
}

// Service ties the library store to package parsing and pagination.
type Service struct {
	store   store.Store
	covers  CoverStore
	cache   *pager.Cache
	backend string
	logger  *slog.Logger
}

func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cache := opts.Cache
	if cache == nil {
		cache = pager.NewCache(pager.CacheOptions{Logger: logger})
	}

	return &Service{
		store:   opts.Store,
		covers:  opts.Covers,
		cache:   cache,
		backend: opts.Backend,
		logger:  logger,
	}
}

func (s *Service) packageOptions() epub.Options {
	return epub.Options{Backend: s.backend, Logger: s.logger}
}

// AddBook registers the EPUB at filePath in the library. Unreadable packages
// are still added, titled after the file name; only a missing file or a
// store failure is an error.
func (s *Service) AddBook(ctx context.Context, filePath string) (*model.Book, error) {
	if abs, err := filepath.Abs(filePath); err == nil {
		filePath = abs
	}

	book := &model.Book{
		FilePath: filePath,
		Title:    fileStem(filePath),
	}

	pkg, err := epub.Open(filePath, s.packageOptions())
	switch {
	case err == nil:
		defer pkg.Close()
		book.Title = pkg.Title
		book.Author = pkg.Author
	case epub.Kind(err) == epub.KindMissingFile:
		return nil, errors.WithStack(err)
	default:
		s.logger.Warn("could not read package metadata, using file name",
			slog.String("path", filePath),
			slog.String("kind", string(epub.Kind(err))),
			slog.Any("error", err),
		)
	}

	if err := s.store.SaveBook(ctx, book); err != nil {
		return nil, errors.Wrapf(err, "could not save book '%s'", filePath)
	}

	if pkg != nil {
		if coverPath, ok := s.writeCover(book.ID, pkg.Resources); ok {
			book.CoverPath = coverPath
			if err := s.store.SaveBook(ctx, book); err != nil {
				return nil, errors.Wrapf(err, "could not save cover of book %d", book.ID)
			}
		}
	}

	s.logger.Info("book added", slog.Int64("book_id", int64(book.ID)), slog.String("title", book.Title))

	return book, nil
}

// SelectCover extracts the cover of book into the cover store and returns
// its path. It reports false when the book has no image or the cover could
// not be written.
func (s *Service) SelectCover(ctx context.Context, book *model.Book) (string, bool) {
	pkg, err := epub.Open(book.FilePath, s.packageOptions())
	if err != nil {
		s.logger.Warn("could not open package for cover",
			slog.Int64("book_id", int64(book.ID)),
			slog.String("path", book.FilePath),
			slog.Any("error", err),
		)
		return "", false
	}
	defer pkg.Close()

	return s.writeCover(book.ID, pkg.Resources)
}

func (s *Service) writeCover(bookID model.BookID, resources *epub.Resources) (string, bool) {
	if s.covers == nil {
		return "", false
	}

	res, ok := epub.SelectCover(resources)
	if !ok {
		return "", false
	}

	coverPath, err := s.covers.Write(bookID, res.Data, epub.CoverExtension(res.MediaType))
	if err != nil {
		s.logger.Warn("could not write cover",
			slog.Int64("book_id", int64(bookID)),
			slog.String("path", res.Path),
			slog.Any("error", err),
		)
		return "", false
	}

	return coverPath, true
}

// Paginate returns the pages of book at fontSize. It does not fail: a book
// that cannot be read becomes a single page explaining why. Only context
// errors are returned.
//
// The book record is updated with its page count, a current page within
// range and any title or author it was missing, then saved.
func (s *Service) Paginate(ctx context.Context, book *model.Book, fontSize int) ([]model.ChapterPage, error) {
	filePath := book.FilePath
	source := func(ctx context.Context) (pager.Document, error) {
		pkg, err := epub.Open(filePath, s.packageOptions())
		if err != nil {
			return pager.Document{}, err
		}
		defer pkg.Close()

		chapters, err := pkg.Chapters(ctx)
		if err != nil {
			return pager.Document{}, err
		}

		return pager.Document{Title: pkg.Title, Author: pkg.Author, Chapters: chapters}, nil
	}

	res, err := s.cache.GetOrCompute(ctx, book.ID, pager.Budget(fontSize), source)
	pages := res.Pages
	switch {
	case err != nil && ctx.Err() != nil:
		return nil, ctx.Err()
	case err != nil:
		pages = s.fallbackPages(book, err)
	case len(pages) == 0:
		metrics.FallbackPages.WithLabelValues("empty").Inc()
		pages = model.MessagePage(book.Title, "This book has no readable content.")
	}

	if book.Title == "" && res.Title != "" {
		book.Title = res.Title
	}
	if book.Author == "" && res.Author != "" {
		book.Author = res.Author
	}

	book.TotalPages = len(pages)
	if book.CurrentPage < 0 || book.CurrentPage >= book.TotalPages {
		book.CurrentPage = 0
	}

	s.saveProgress(ctx, book)

	return pages, nil
}

func (s *Service) fallbackPages(book *model.Book, err error) []model.ChapterPage {
	kind := epub.Kind(err)
	metrics.FallbackPages.WithLabelValues(string(kind)).Inc()

	s.logger.Warn("could not paginate book",
		slog.Int64("book_id", int64(book.ID)),
		slog.String("path", book.FilePath),
		slog.String("kind", string(kind)),
		slog.Any("error", err),
	)

	return model.MessagePage(book.Title, fallbackMessage(kind, err))
}

func fallbackMessage(kind epub.ErrorKind, err error) string {
	switch kind {
	case epub.KindMissingFile:
		return "The book file could not be found."
	case epub.KindMissingDependency:
		return "EPUB support is not available, the book cannot be displayed."
	case epub.KindUnreadablePackage:
		return fmt.Sprintf("The book could not be opened:\n%v", err)
	case epub.KindMalformedDocument:
		return fmt.Sprintf("The book contains a chapter that could not be read:\n%v", err)
	default:
		return fmt.Sprintf("Error reading the book:\n%v", err)
	}
}

// saveProgress updates the stored reading state of book. It reports false
// when the book is unsaved or no longer in the library.
func (s *Service) saveProgress(ctx context.Context, book *model.Book) bool {
	if !book.Persisted() {
		return false
	}

	err := s.store.UpdateProgress(ctx, book.ID, progressOf(book))
	switch {
	case err == nil:
		return true
	case errors.Is(err, store.ErrNotFound):
		s.logger.Debug("book no longer in library, progress not saved", slog.Int64("book_id", int64(book.ID)))
	default:
		s.logger.Warn("could not save book progress", slog.Int64("book_id", int64(book.ID)), slog.Any("error", err))
	}
	return false
}

func progressOf(book *model.Book) store.Progress {
	return store.Progress{
		CurrentPage: book.CurrentPage,
		TotalPages:  book.TotalPages,
		Read:        book.Read,
		Title:       book.Title,
		Author:      book.Author,
	}
}

// DeleteBook removes the book record, its stored cover and its cached pages.
func (s *Service) DeleteBook(ctx context.Context, id model.BookID) error {
	book, err := s.store.GetBook(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := s.store.DeleteBook(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	s.cache.Invalidate(id)

	if s.covers != nil && book.CoverPath != "" {
		if err := s.covers.Remove(book.CoverPath); err != nil {
			s.logger.Warn("could not remove cover", slog.Int64("book_id", int64(id)), slog.String("path", book.CoverPath), slog.Any("error", err))
		}
	}

	s.logger.Info("book deleted", slog.Int64("book_id", int64(id)))

	return nil
}

// ListBooks returns the library.
func (s *Service) ListBooks(ctx context.Context) ([]*model.Book, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return books, nil
}

// Settings returns the saved reader settings.
func (s *Service) Settings(ctx context.Context) (model.Settings, error) {
	settings, err := s.store.LoadSettings(ctx)
	if err != nil {
		return model.Settings{}, errors.WithStack(err)
	}
	return settings, nil
}

// SaveSettings persists settings. Cached pages stay valid: they are keyed
// by page budget.
func (s *Service) SaveSettings(ctx context.Context, settings model.Settings) error {
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func fileStem(p string) string {
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
