package model

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// BlockKind identifies the variant of a Block.
type BlockKind string

const (
	BlockText  BlockKind = "text"
	BlockImage BlockKind = "image"
)

// Block is one renderable unit of a chapter. The set of implementations is
// closed: TextBlock and ImageBlock are the only variants.
type Block interface {
	Kind() BlockKind
	isBlock()
}

// TextBlock holds a run of plain text taken from a paragraph, heading or list item.
type TextBlock struct {
	Text string
}

// ImageBlock holds the bytes of an embedded image resource.
type ImageBlock struct {
	Data      []byte
	Alt       string
	MediaType string
}

func (TextBlock) Kind() BlockKind  { return BlockText }
func (ImageBlock) Kind() BlockKind { return BlockImage }

func (TextBlock) isBlock()  {}
func (ImageBlock) isBlock() {}

// Len returns the number of characters of the trimmed text.
func (b TextBlock) Len() int {
	return utf8.RuneCountInString(strings.TrimSpace(b.Text))
}

// MarshalJSON implements json.Marshaler.
func (b TextBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type BlockKind `json:"type"`
		Text string    `json:"text"`
	}{BlockText, b.Text})
}

// MarshalJSON implements json.Marshaler. Data is encoded as base64.
func (b ImageBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      BlockKind `json:"type"`
		Data      []byte    `json:"data"`
		Alt       string    `json:"alt"`
		MediaType string    `json:"media_type,omitempty"`
	}{BlockImage, b.Data, b.Alt, b.MediaType})
}

// Chapter is one content document of the book, reduced to its blocks.
type Chapter struct {
	Title  string
	Blocks []Block
}

// ChapterPage is one logical page: a run of consecutive blocks from a single chapter.
type ChapterPage struct {
	ChapterIndex  int     `json:"chapter_index"`
	ChapterTitle  string  `json:"chapter_title"`
	PageInChapter int     `json:"page_in_chapter"`
	Blocks        []Block `json:"blocks"`
}

// MessagePage builds the single page shown in place of a book that could not be read.
func MessagePage(title, message string) []ChapterPage {
	if title == "" {
		title = "(Untitled)"
	}
	return []ChapterPage{{
		ChapterIndex:  0,
		ChapterTitle:  title,
		PageInChapter: 1,
		Blocks:        []Block{TextBlock{Text: message}},
	}}
}
