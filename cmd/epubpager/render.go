package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/yuanying/epubpager/internal/model"
	"github.com/yuanying/epubpager/internal/reader"
)

func writePage(w io.Writer, page model.ChapterPage, progress reader.Progress) {
	fmt.Fprintf(w, "== %s (page %d of chapter %d) ==\n\n", page.ChapterTitle, page.PageInChapter, page.ChapterIndex+1)
	for _, b := range page.Blocks {
		switch b := b.(type) {
		case model.TextBlock:
			fmt.Fprintf(w, "%s\n\n", b.Text)
		case model.ImageBlock:
			fmt.Fprintf(w, "%s\n\n", describeImage(b))
		}
	}
	fmt.Fprintf(w, "-- %d / %d --\n", progress.Page, progress.Total)
}

func describeImage(b model.ImageBlock) string {
	parts := []string{humanize.Bytes(uint64(len(b.Data)))}
	if b.MediaType != "" {
		parts = append([]string{b.MediaType}, parts...)
	}
	if b.Alt != "" {
		return fmt.Sprintf("[image %q: %s]", b.Alt, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("[image: %s]", strings.Join(parts, ", "))
}

// pageSummary is a one-line description of page used by listings.
func pageSummary(page model.ChapterPage) string {
	var chars, images int
	for _, b := range page.Blocks {
		switch b := b.(type) {
		case model.TextBlock:
			chars += b.Len()
		case model.ImageBlock:
			images++
		}
	}

	summary := fmt.Sprintf("%s chars", humanize.Comma(int64(chars)))
	if images > 0 {
		summary += fmt.Sprintf(", %d %s", images, plural(images, "image", "images"))
	}
	return summary
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func progressLabel(book *model.Book) string {
	if book.TotalPages == 0 {
		return "-"
	}
	label := fmt.Sprintf("%d/%d", book.CurrentPage+1, book.TotalPages)
	if book.Read {
		label += " read"
	}
	return label
}
