package gorm

import (
	"time"

	"github.com/yuanying/epubpager/internal/model"
)

type Book struct {
	ID int64 `gorm:"primaryKey;autoIncrement"`

	UpdatedAt time.Time

	Title       string
	Author      string
	FilePath    string `gorm:"index"`
	CoverPath   string
	Favorite    bool
	Read        bool
	Tags        string
	CurrentPage int
	TotalPages  int
}

// singletonID is the primary key of the one-row tables.
const singletonID = 1

type Settings struct {
	ID uint `gorm:"primaryKey;autoIncrement:false"`

	UpdatedAt time.Time

	FontSize   int
	Theme      string
	FontKey    string
	LineHeight float64
	Margins    bool
	Bold       bool
}

type LastRead struct {
	ID uint `gorm:"primaryKey;autoIncrement:false"`

	UpdatedAt time.Time

	BookID int64
	Page   int
}

func fromBook(b *model.Book) *Book {
	return &Book{
		ID:          int64(b.ID),
		Title:       b.Title,
		Author:      b.Author,
		FilePath:    b.FilePath,
		CoverPath:   b.CoverPath,
		Favorite:    b.Favorite,
		Read:        b.Read,
		Tags:        b.Tags,
		CurrentPage: b.CurrentPage,
		TotalPages:  b.TotalPages,
	}
}

func (b *Book) toModel() *model.Book {
	return &model.Book{
		ID:          model.BookID(b.ID),
		Title:       b.Title,
		Author:      b.Author,
		FilePath:    b.FilePath,
		CoverPath:   b.CoverPath,
		Favorite:    b.Favorite,
		Read:        b.Read,
		Tags:        b.Tags,
		CurrentPage: b.CurrentPage,
		TotalPages:  b.TotalPages,
	}
}

func fromSettings(s model.Settings) *Settings {
	return &Settings{
		ID:         singletonID,
		FontSize:   s.FontSize,
		Theme:      s.Theme,
		FontKey:    s.FontKey,
		LineHeight: s.LineHeight,
		Margins:    s.Margins,
		Bold:       s.Bold,
	}
}

func (s *Settings) toModel() model.Settings {
	return model.Settings{
		FontSize:   s.FontSize,
		Theme:      s.Theme,
		FontKey:    s.FontKey,
		LineHeight: s.LineHeight,
		Margins:    s.Margins,
		Bold:       s.Bold,
	}
}
