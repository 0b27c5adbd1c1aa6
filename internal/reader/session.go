package reader

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/yuanying/epubpager/internal/model"
	"github.com/yuanying/epubpager/internal/store"
)

// Session is one reader view over a book: its pages and the page being
// read. A Session is not safe for concurrent use.
type Session struct {
	service  *Service
	book     *model.Book
	settings model.Settings
	pages    []model.ChapterPage
	index    int
}

// Progress locates the current page. Page numbers are 1-based.
type Progress struct {
	Chapter       int
	ChapterTitle  string
	PageInChapter int
	Page          int
	Total         int
}

// Open starts a session on the book with the given id, positioned on the
// page the book was left at.
func (s *Service) Open(ctx context.Context, id model.BookID) (*Session, error) {
	book, err := s.store.GetBook(ctx, id)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	settings, err := s.store.LoadSettings(ctx)
	if err != nil {
		s.logger.Warn("could not load settings, using defaults", slog.Any("error", err))
		settings = model.DefaultSettings()
	}

	session := &Session{
		service:  s,
		book:     book,
		settings: settings,
	}

	if err := session.paginate(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	session.show(ctx, book.CurrentPage)

	return session, nil
}

// Resume opens a session on the last-read book and page.
func (s *Service) Resume(ctx context.Context) (*Session, error) {
	lastRead, err := s.store.LoadLastRead(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	session, err := s.Open(ctx, lastRead.BookID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	session.show(ctx, lastRead.Page)

	return session, nil
}

func (s *Session) paginate(ctx context.Context) error {
	pages, err := s.service.Paginate(ctx, s.book, s.settings.FontSize)
	if err != nil {
		return err
	}
	s.pages = pages
	return nil
}

// show moves to page index, clamped to the page range, and records the
// position.
func (s *Session) show(ctx context.Context, index int) {
	s.index = min(max(index, 0), len(s.pages)-1)
	s.book.CurrentPage = s.index
	s.book.Read = true
	if s.service.saveProgress(ctx, s.book) {
		s.saveLastRead(ctx)
	}
}

func (s *Session) saveLastRead(ctx context.Context) {
	if !s.book.Persisted() {
		return
	}
	if err := s.service.store.SaveLastRead(ctx, s.book.ID, s.index); err != nil {
		s.service.logger.Warn("could not save last read page", slog.Int64("book_id", int64(s.book.ID)), slog.Any("error", err))
	}
}

// Book returns the book being read.
func (s *Session) Book() *model.Book {
	return s.book
}

// Pages returns every page of the book.
func (s *Session) Pages() []model.ChapterPage {
	return s.pages
}

func (s *Session) Settings() model.Settings {
	return s.settings
}

// Current returns the page being read.
func (s *Session) Current() model.ChapterPage {
	return s.pages[s.index]
}

// Index returns the 0-based position of the current page.
func (s *Session) Index() int {
	return s.index
}

// Next moves to the following page. It reports false on the last page.
func (s *Session) Next(ctx context.Context) bool {
	if s.index >= len(s.pages)-1 {
		return false
	}
	s.show(ctx, s.index+1)
	return true
}

// Prev moves to the preceding page. It reports false on the first page.
func (s *Session) Prev(ctx context.Context) bool {
	if s.index <= 0 {
		return false
	}
	s.show(ctx, s.index-1)
	return true
}

// Seek moves to the 0-based page index, clamped to the page range.
func (s *Session) Seek(ctx context.Context, index int) {
	s.show(ctx, index)
}

func (s *Session) Progress() Progress {
	page := s.Current()
	return Progress{
		Chapter:       page.ChapterIndex + 1,
		ChapterTitle:  page.ChapterTitle,
		PageInChapter: page.PageInChapter,
		Page:          s.index + 1,
		Total:         len(s.pages),
	}
}

// SetFontSize repaginates the book for fontSize and saves it in the
// settings. The position is kept when still in range.
func (s *Session) SetFontSize(ctx context.Context, fontSize int) error {
	if fontSize == s.settings.FontSize {
		return nil
	}

	s.settings.FontSize = fontSize
	if err := s.service.SaveSettings(ctx, s.settings); err != nil {
		s.service.logger.Warn("could not save settings", slog.Any("error", err))
	}

	if err := s.paginate(ctx); err != nil {
		return errors.WithStack(err)
	}
	s.show(ctx, s.index)

	return nil
}

// Close records the current position as the last read page. Nothing is
// recorded for a book deleted while it was open.
func (s *Session) Close(ctx context.Context) error {
	if !s.book.Persisted() {
		return nil
	}

	s.book.CurrentPage = s.index
	err := s.service.store.UpdateProgress(ctx, s.book.ID, progressOf(s.book))
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return errors.WithStack(err)
	}
	if err := s.service.store.SaveLastRead(ctx, s.book.ID, s.index); err != nil {
		return errors.WithStack(err)
	}

	return nil
}
