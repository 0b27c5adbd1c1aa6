package model

// BookID identifies a persisted book record. The zero value means the
// book has not been saved yet.
type BookID int64

// Book is the library record of one EPUB file.
type Book struct {
	ID          BookID
	Title       string
	Author      string
	FilePath    string
	CoverPath   string
	Favorite    bool
	Read        bool
	Tags        string
	CurrentPage int
	TotalPages  int
}

// Persisted reports whether the book has an identifier.
func (b *Book) Persisted() bool {
	return b != nil && b.ID != 0
}

const (
	DefaultFontSize = 18
	DefaultTheme    = "sepia"
	DefaultFontKey  = "default"
)

// Settings are the reader preferences. Only FontSize affects pagination.
type Settings struct {
	FontSize   int
	Theme      string // "light", "sepia", "dark"
	FontKey    string // "default", "serif", "sans"
	LineHeight float64
	Margins    bool
	Bold       bool
}

// DefaultSettings returns the settings used before the user changes anything.
func DefaultSettings() Settings {
	return Settings{
		FontSize:   DefaultFontSize,
		Theme:      DefaultTheme,
		FontKey:    DefaultFontKey,
		LineHeight: 1.4,
		Margins:    true,
	}
}
