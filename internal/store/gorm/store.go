package gorm

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/yuanying/epubpager/internal/model"
	"github.com/yuanying/epubpager/internal/store"
	"gorm.io/gorm"
)

type Store struct {
	getDatabase func(ctx context.Context) (*gorm.DB, error)
}

// GetBook implements store.Store.
func (s *Store) GetBook(ctx context.Context, id model.BookID) (*model.Book, error) {
	db, err := s.getDatabase(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var book Book

	if err := db.First(&book, int64(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.WithStack(store.ErrNotFound)
		}

		return nil, errors.WithStack(err)
	}

	return book.toModel(), nil
}

// SaveBook implements store.Store.
func (s *Store) SaveBook(ctx context.Context, book *model.Book) error {
	if book == nil {
		return errors.New("book is nil")
	}

	db, err := s.getDatabase(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	row := fromBook(book)

	if row.ID == 0 {
		if err := db.Create(row).Error; err != nil {
			return errors.WithStack(err)
		}
		book.ID = model.BookID(row.ID)
		return nil
	}

	if err := db.Save(row).Error; err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// UpdateProgress implements store.Store.
func (s *Store) UpdateProgress(ctx context.Context, id model.BookID, progress store.Progress) error {
	db, err := s.getDatabase(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	columns := map[string]any{
		"current_page": progress.CurrentPage,
		"total_pages":  progress.TotalPages,
		"read":         progress.Read,
	}
	if progress.Title != "" {
		columns["title"] = progress.Title
	}
	if progress.Author != "" {
		columns["author"] = progress.Author
	}

	res := db.Model(&Book{}).Where("id = ?", int64(id)).Updates(columns)
	if res.Error != nil {
		return errors.WithStack(res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.WithStack(store.ErrNotFound)
	}

	return nil
}

// ListBooks implements store.Store.
func (s *Store) ListBooks(ctx context.Context) ([]*model.Book, error) {
	db, err := s.getDatabase(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var rows []Book

	if err := db.Order("id asc").Find(&rows).Error; err != nil {
		return nil, errors.WithStack(err)
	}

	books := make([]*model.Book, 0, len(rows))
	for i := range rows {
		books = append(books, rows[i].toModel())
	}

	return books, nil
}

// DeleteBook implements store.Store.
func (s *Store) DeleteBook(ctx context.Context, id model.BookID) error {
	db, err := s.getDatabase(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&Book{}, int64(id))
		if res.Error != nil {
			return errors.WithStack(res.Error)
		}
		if res.RowsAffected == 0 {
			return errors.WithStack(store.ErrNotFound)
		}

		if res := tx.Delete(&LastRead{}, "book_id = ?", int64(id)); res.Error != nil {
			return errors.WithStack(res.Error)
		}

		return nil
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// LoadSettings implements store.Store.
func (s *Store) LoadSettings(ctx context.Context) (model.Settings, error) {
	db, err := s.getDatabase(ctx)
	if err != nil {
		return model.Settings{}, errors.WithStack(err)
	}

	var settings Settings

	if err := db.First(&settings, singletonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.DefaultSettings(), nil
		}

		return model.Settings{}, errors.WithStack(err)
	}

	return settings.toModel(), nil
}

// SaveSettings implements store.Store.
func (s *Store) SaveSettings(ctx context.Context, settings model.Settings) error {
	db, err := s.getDatabase(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := db.Save(fromSettings(settings)).Error; err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// SaveLastRead implements store.Store.
func (s *Store) SaveLastRead(ctx context.Context, bookID model.BookID, page int) error {
	db, err := s.getDatabase(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	lastRead := &LastRead{
		ID:     singletonID,
		BookID: int64(bookID),
		Page:   page,
	}

	if err := db.Save(lastRead).Error; err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// LoadLastRead implements store.Store.
func (s *Store) LoadLastRead(ctx context.Context) (store.LastRead, error) {
	db, err := s.getDatabase(ctx)
	if err != nil {
		return store.LastRead{}, errors.WithStack(err)
	}

	var lastRead LastRead

	if err := db.First(&lastRead, singletonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.LastRead{}, errors.WithStack(store.ErrNotFound)
		}

		return store.LastRead{}, errors.WithStack(err)
	}

	return store.LastRead{BookID: model.BookID(lastRead.BookID), Page: lastRead.Page}, nil
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		getDatabase: createGetDatabase(db),
	}
}

var _ store.Store = &Store{}

func createGetDatabase(db *gorm.DB) func(ctx context.Context) (*gorm.DB, error) {
	var (
		migrateOnce sync.Once
		migrateErr  error
	)

	return func(ctx context.Context) (*gorm.DB, error) {
		migrateOnce.Do(func() {
			models := []any{
				&Book{},
				&Settings{},
				&LastRead{},
			}

			if err := db.AutoMigrate(models...); err != nil {
				migrateErr = errors.WithStack(err)
				return
			}
		})
		if migrateErr != nil {
			return nil, errors.WithStack(migrateErr)
		}

		return db.WithContext(ctx), nil
	}
}
