// Smoke program for chapter extraction and pagination
//
// Usage:
//
//	go run ./cmd/test/content_loader/main.go <epub-file-path> [font-size]
//
// This program:
// 1. Opens the specified EPUB file
// 2. Extracts every spine document into a chapter of text and image blocks
// 3. Prints each chapter title with its blocks
// 4. Paginates the chapters at the given font size (default 18)
//
// Verification points:
// - ✓ Chapter titles come from the first heading
// - ✓ Image references resolve to manifest resources
// - ✓ Pages never mix chapters
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/yuanying/epubpager/internal/epub"
	"github.com/yuanying/epubpager/internal/model"
	"github.com/yuanying/epubpager/internal/pager"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <epub-file-path> [font-size]\n", filepath.Base(os.Args[0]))
		os.Exit(1)
	}

	epubPath := os.Args[1]
	fontSize := model.DefaultFontSize
	if len(os.Args) > 2 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil {
			log.Fatalf("Invalid font size %q: %v", os.Args[2], err)
		}
		fontSize = n
	}

	fmt.Printf("=== Chapter Extraction Test ===\n")
	fmt.Printf("EPUB file: %s\n\n", epubPath)

	pkg, err := epub.Open(epubPath, epub.Options{})
	if err != nil {
		log.Fatalf("Failed to open EPUB: %v", err)
	}
	defer pkg.Close()

	ctx := context.Background()
	chapters, err := pkg.Chapters(ctx)
	if err != nil {
		log.Fatalf("Failed to extract chapters (%s): %v", epub.Kind(err), err)
	}
	fmt.Printf("✓ %d chapters extracted\n\n", len(chapters))

	for i, ch := range chapters {
		fmt.Printf("[%d] %s\n", i+1, ch.Title)
		for _, b := range ch.Blocks {
			switch b := b.(type) {
			case model.TextBlock:
				text := []rune(b.Text)
				if len(text) > 60 {
					text = append(text[:60], '…')
				}
				fmt.Printf("    text  %4d  %s\n", b.Len(), string(text))
			case model.ImageBlock:
				fmt.Printf("    image       %s %q (%d bytes)\n", b.MediaType, b.Alt, len(b.Data))
			}
		}
		fmt.Println()
	}

	budget := pager.Budget(fontSize)
	pages, err := pager.Paginate(ctx, chapters, budget)
	if err != nil {
		log.Fatalf("Failed to paginate: %v", err)
	}

	fmt.Printf("=== Pagination at font size %d (budget %d) ===\n", fontSize, budget)
	for i, page := range pages {
		fmt.Printf("  page %3d  chapter %d.%d  %d blocks  %s\n", i+1, page.ChapterIndex+1, page.PageInChapter, len(page.Blocks), page.ChapterTitle)
	}
	fmt.Printf("\n✓ %d pages\n", len(pages))
}
