package store

import (
	"context"
	"errors"

	"github.com/yuanying/epubpager/internal/model"
)

var ErrNotFound = errors.New("not found")

// LastRead points at the book and page the reader left off.
type LastRead struct {
	BookID model.BookID
	Page   int
}

// Progress is the reading state of a book that changes while it is read.
type Progress struct {
	CurrentPage int
	TotalPages  int
	Read        bool
	// Title and Author replace the stored values when not empty.
	Title  string
	Author string
}

// Store persists book records, reader settings and the last-read pointer.
type Store interface {
	// GetBook returns the book with the given id, or ErrNotFound.
	GetBook(ctx context.Context, id model.BookID) (*model.Book, error)
	// SaveBook inserts or updates book. A book without id is assigned one.
	SaveBook(ctx context.Context, book *model.Book) error
	// UpdateProgress updates the reading state of an existing book, or
	// returns ErrNotFound. It never creates a book.
	UpdateProgress(ctx context.Context, id model.BookID, progress Progress) error
	// ListBooks returns every book ordered by id.
	ListBooks(ctx context.Context) ([]*model.Book, error)
	// DeleteBook removes the book with the given id, or returns ErrNotFound.
	DeleteBook(ctx context.Context, id model.BookID) error

	// LoadSettings returns the saved settings, or the defaults when none were saved.
	LoadSettings(ctx context.Context) (model.Settings, error)
	SaveSettings(ctx context.Context, settings model.Settings) error

	SaveLastRead(ctx context.Context, bookID model.BookID, page int) error
	// LoadLastRead returns the last-read pointer, or ErrNotFound.
	LoadLastRead(ctx context.Context) (LastRead, error)
}
