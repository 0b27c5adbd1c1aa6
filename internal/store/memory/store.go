package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/pkg/errors"
	"github.com/yuanying/epubpager/internal/model"
	"github.com/yuanying/epubpager/internal/store"
)

// Store keeps everything in memory. It is used by one-shot CLI commands and
// tests.
type Store struct {
	mu       sync.RWMutex
	books    map[model.BookID]model.Book
	nextID   model.BookID
	settings *model.Settings
	lastRead *store.LastRead
}

// GetBook implements store.Store.
func (s *Store) GetBook(ctx context.Context, id model.BookID) (*model.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book, exists := s.books[id]
	if !exists {
		return nil, errors.WithStack(store.ErrNotFound)
	}

	return &book, nil
}

// SaveBook implements store.Store.
func (s *Store) SaveBook(ctx context.Context, book *model.Book) error {
	if book == nil {
		return errors.New("book is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if book.ID == 0 {
		s.nextID++
		book.ID = s.nextID
	} else if book.ID > s.nextID {
		s.nextID = book.ID
	}

	s.books[book.ID] = *book

	return nil
}

// UpdateProgress implements store.Store.
func (s *Store) UpdateProgress(ctx context.Context, id model.BookID, progress store.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, exists := s.books[id]
	if !exists {
		return errors.WithStack(store.ErrNotFound)
	}

	book.CurrentPage = progress.CurrentPage
	book.TotalPages = progress.TotalPages
	book.Read = progress.Read
	if progress.Title != "" {
		book.Title = progress.Title
	}
	if progress.Author != "" {
		book.Author = progress.Author
	}
	s.books[id] = book

	return nil
}

// ListBooks implements store.Store.
func (s *Store) ListBooks(ctx context.Context) ([]*model.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]model.BookID, 0, len(s.books))
	for id := range s.books {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	books := make([]*model.Book, 0, len(ids))
	for _, id := range ids {
		book := s.books[id]
		books = append(books, &book)
	}

	return books, nil
}

// DeleteBook implements store.Store.
func (s *Store) DeleteBook(ctx context.Context, id model.BookID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.books[id]; !exists {
		return errors.WithStack(store.ErrNotFound)
	}
	delete(s.books, id)

	if s.lastRead != nil && s.lastRead.BookID == id {
		s.lastRead = nil
	}

	return nil
}

// LoadSettings implements store.Store.
func (s *Store) LoadSettings(ctx context.Context) (model.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return model.DefaultSettings(), nil
	}
	return *s.settings, nil
}

// SaveSettings implements store.Store.
func (s *Store) SaveSettings(ctx context.Context, settings model.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = &settings
	return nil
}

// SaveLastRead implements store.Store.
func (s *Store) SaveLastRead(ctx context.Context, bookID model.BookID, page int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastRead = &store.LastRead{BookID: bookID, Page: page}
	return nil
}

// LoadLastRead implements store.Store.
func (s *Store) LoadLastRead(ctx context.Context) (store.LastRead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastRead == nil {
		return store.LastRead{}, errors.WithStack(store.ErrNotFound)
	}
	return *s.lastRead, nil
}

func NewStore() *Store {
	return &Store{
		books: make(map[model.BookID]model.Book),
	}
}

var _ store.Store = &Store{}
