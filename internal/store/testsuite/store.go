package testsuite

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/yuanying/epubpager/internal/model"
	"github.com/yuanying/epubpager/internal/store"
)

// TestStore runs the behaviour every store.Store implementation must share.
// factory returns a new, empty store for each case.
func TestStore(t *testing.T, factory func(t *testing.T) (store.Store, error)) {
	type testCase struct {
		Name string
		Run  func(t *testing.T, ctx context.Context, s store.Store) error
	}

	var testCases []testCase = []testCase{
		{
			Name: "SaveAssignsID",
			Run: func(t *testing.T, ctx context.Context, s store.Store) error {
				book := &model.Book{Title: "First", Author: "A", FilePath: "/books/first.epub"}
				if err := s.SaveBook(ctx, book); err != nil {
					return errors.WithStack(err)
				}
				if book.ID == 0 {
					t.Fatalf("book.ID: expected an id to be assigned")
				}

				second := &model.Book{Title: "Second"}
				if err := s.SaveBook(ctx, second); err != nil {
					return errors.WithStack(err)
				}
				if second.ID == book.ID {
					t.Errorf("second.ID: expected a new id, got %d", second.ID)
				}

				stored, err := s.GetBook(ctx, book.ID)
				if err != nil {
					return errors.WithStack(err)
				}
				if e, g := *book, *stored; e != g {
					t.Errorf("GetBook(): expected %+v, got %+v", e, g)
				}

				return nil
			},
		},
		{
			Name: "SaveUpdates",
			Run: func(t *testing.T, ctx context.Context, s store.Store) error {
				book := &model.Book{Title: "Book", FilePath: "/books/book.epub"}
				if err := s.SaveBook(ctx, book); err != nil {
					return errors.WithStack(err)
				}

				book.CurrentPage = 12
				book.TotalPages = 40
				book.Favorite = true
				book.CoverPath = "1.jpg"
				if err := s.SaveBook(ctx, book); err != nil {
					return errors.WithStack(err)
				}

				stored, err := s.GetBook(ctx, book.ID)
				if err != nil {
					return errors.WithStack(err)
				}
				if e, g := *book, *stored; e != g {
					t.Errorf("GetBook(): expected %+v, got %+v", e, g)
				}

				books, err := s.ListBooks(ctx)
				if err != nil {
					return errors.WithStack(err)
				}
				if e, g := 1, len(books); e != g {
					t.Errorf("len(books): expected %d, got %d", e, g)
				}

				return nil
			},
		},
		{
			Name: "GetMissing",
			Run: func(t *testing.T, ctx context.Context, s store.Store) error {
				_, err := s.GetBook(ctx, 999)
				if !errors.Is(err, store.ErrNotFound) {
					t.Errorf("GetBook(): expected ErrNotFound, got %v", err)
				}
				return nil
			},
		},
		{
			Name: "ListOrderedByID",
			Run: func(t *testing.T, ctx context.Context, s store.Store) error {
				for _, title := range []string{"a", "b", "c"} {
					if err := s.SaveBook(ctx, &model.Book{Title: title}); err != nil {
						return errors.WithStack(err)
					}
				}

				books, err := s.ListBooks(ctx)
				if err != nil {
					return errors.WithStack(err)
				}
				if e, g := 3, len(books); e != g {
					t.Fatalf("len(books): expected %d, got %d", e, g)
				}
				for i := 1; i < len(books); i++ {
					if books[i-1].ID >= books[i].ID {
						t.Errorf("books not ordered by id: %d before %d", books[i-1].ID, books[i].ID)
					}
				}
				if e, g := "a", books[0].Title; e != g {
					t.Errorf("books[0].Title: expected %q, got %q", e, g)
				}

				return nil
			},
		},
		{
			Name: "UpdateProgress",
			Run: func(t *testing.T, ctx context.Context, s store.Store) error {
				book := &model.Book{Title: "Book", Author: "A", FilePath: "/books/book.epub", Favorite: true}
				if err := s.SaveBook(ctx, book); err != nil {
					return errors.WithStack(err)
				}

				progress := store.Progress{CurrentPage: 7, TotalPages: 30, Read: true, Title: "Renamed"}
				if err := s.UpdateProgress(ctx, book.ID, progress); err != nil {
					return errors.WithStack(err)
				}

				stored, err := s.GetBook(ctx, book.ID)
				if err != nil {
					return errors.WithStack(err)
				}
				expected := *book
				expected.CurrentPage = 7
				expected.TotalPages = 30
				expected.Read = true
				expected.Title = "Renamed"
				if e, g := expected, *stored; e != g {
					t.Errorf("GetBook(): expected %+v, got %+v", e, g)
				}

				return nil
			},
		},
		{
			Name: "UpdateProgressMissing",
			Run: func(t *testing.T, ctx context.Context, s store.Store) error {
				book := &model.Book{Title: "Gone"}
				if err := s.SaveBook(ctx, book); err != nil {
					return errors.WithStack(err)
				}
				if err := s.DeleteBook(ctx, book.ID); err != nil {
					return errors.WithStack(err)
				}

				err := s.UpdateProgress(ctx, book.ID, store.Progress{CurrentPage: 2, TotalPages: 5, Title: "Gone"})
				if !errors.Is(err, store.ErrNotFound) {
					t.Errorf("UpdateProgress(): expected ErrNotFound, got %v", err)
				}

				if _, err := s.GetBook(ctx, book.ID); !errors.Is(err, store.ErrNotFound) {
					t.Errorf("GetBook(): expected ErrNotFound, got %v", err)
				}
				books, err := s.ListBooks(ctx)
				if err != nil {
					return errors.WithStack(err)
				}
				if e, g := 0, len(books); e != g {
					t.Errorf("len(books): expected %d, got %d", e, g)
				}

				return nil
			},
		},
		{
			Name: "Delete",
			Run: func(t *testing.T, ctx context.Context, s store.Store) error {
				book := &model.Book{Title: "Doomed"}
				if err := s.SaveBook(ctx, book); err != nil {
					return errors.WithStack(err)
				}
				if err := s.SaveLastRead(ctx, book.ID, 3); err != nil {
					return errors.WithStack(err)
				}

				if err := s.DeleteBook(ctx, book.ID); err != nil {
					return errors.WithStack(err)
				}

				if _, err := s.GetBook(ctx, book.ID); !errors.Is(err, store.ErrNotFound) {
					t.Errorf("GetBook(): expected ErrNotFound, got %v", err)
				}
				if _, err := s.LoadLastRead(ctx); !errors.Is(err, store.ErrNotFound) {
					t.Errorf("LoadLastRead(): expected ErrNotFound after deleting the book, got %v", err)
				}
				if err := s.DeleteBook(ctx, book.ID); !errors.Is(err, store.ErrNotFound) {
					t.Errorf("DeleteBook(): expected ErrNotFound, got %v", err)
				}

				return nil
			},
		},
		{
			Name: "Settings",
			Run: func(t *testing.T, ctx context.Context, s store.Store) error {
				settings, err := s.LoadSettings(ctx)
				if err != nil {
					return errors.WithStack(err)
				}
				if e, g := model.DefaultSettings(), settings; e != g {
					t.Errorf("LoadSettings(): expected defaults %+v, got %+v", e, g)
				}

				settings.FontSize = 24
				settings.Theme = "dark"
				settings.Margins = false
				settings.Bold = true
				if err := s.SaveSettings(ctx, settings); err != nil {
					return errors.WithStack(err)
				}

				settings.FontSize = 26
				if err := s.SaveSettings(ctx, settings); err != nil {
					return errors.WithStack(err)
				}

				loaded, err := s.LoadSettings(ctx)
				if err != nil {
					return errors.WithStack(err)
				}
				if e, g := settings, loaded; e != g {
					t.Errorf("LoadSettings(): expected %+v, got %+v", e, g)
				}

				return nil
			},
		},
		{
			Name: "LastRead",
			Run: func(t *testing.T, ctx context.Context, s store.Store) error {
				if _, err := s.LoadLastRead(ctx); !errors.Is(err, store.ErrNotFound) {
					t.Errorf("LoadLastRead(): expected ErrNotFound, got %v", err)
				}

				if err := s.SaveLastRead(ctx, 4, 10); err != nil {
					return errors.WithStack(err)
				}
				if err := s.SaveLastRead(ctx, 5, 2); err != nil {
					return errors.WithStack(err)
				}

				lastRead, err := s.LoadLastRead(ctx)
				if err != nil {
					return errors.WithStack(err)
				}
				if e, g := (store.LastRead{BookID: 5, Page: 2}), lastRead; e != g {
					t.Errorf("LoadLastRead(): expected %+v, got %+v", e, g)
				}

				return nil
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			s, err := factory(t)
			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			ctx := context.Background()

			if err := tc.Run(t, ctx, s); err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}
		})
	}
}
