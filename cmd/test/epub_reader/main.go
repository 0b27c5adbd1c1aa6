// Smoke program for the EPUB package reader
//
// Usage:
//
//	go run ./cmd/test/epub_reader/main.go <epub-file-path> (<archive-path> ...)
//
// This program checks:
// - Opening the EPUB archive and locating the OPF through container.xml
// - Package metadata and the warnings raised while opening
// - Image resources loaded from the manifest, in manifest order
// - The cover candidate
// - Reading arbitrary archive entries
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/yuanying/epubpager/internal/epub"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/test/epub_reader/main.go <epub-file> (<archive-path> ...)")
		os.Exit(1)
	}

	epubPath := os.Args[1]
	filePaths := os.Args[2:]

	fmt.Printf("Opening EPUB file: %s\n", epubPath)
	pkg, err := epub.Open(epubPath, epub.Options{})
	if err != nil {
		log.Fatalf("Failed to open EPUB (%s): %v", epub.Kind(err), err)
	}
	defer pkg.Close()

	fmt.Printf("✓ EPUB opened successfully\n")
	fmt.Printf("OPF Path: %s\n", pkg.OPFPath())
	fmt.Printf("Title: %s\n", pkg.Title)
	fmt.Printf("Author: %s\n", pkg.Author)
	for _, w := range pkg.Warnings {
		fmt.Printf("⚠ %s\n", w)
	}

	names := pkg.Archive().Names()
	fmt.Printf("\nTotal files: %d\n", len(names))
	for _, name := range names {
		fmt.Printf("  - %s\n", name)
	}

	fmt.Printf("\nImage resources: %d\n", pkg.Resources.Len())
	for _, res := range pkg.Resources.All() {
		fmt.Printf("  - %s (%s, %d bytes)\n", res.Path, res.MediaType, len(res.Data))
	}

	if cover, ok := pkg.Cover(); ok {
		fmt.Printf("\n✓ Cover: %s (stored as %s)\n", cover.Path, epub.CoverExtension(cover.MediaType))
	} else {
		fmt.Println("\n⚠ No cover candidate")
	}

	for _, filePath := range filePaths {
		fmt.Printf("\nReading archive entry: %s\n", filePath)
		content, err := pkg.Archive().ReadFile(filePath)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", filePath, err)
		}
		fmt.Printf("✓ %s read successfully (%d bytes)\n", filePath, len(content))
		fmt.Printf("Content:\n%s\n", string(content))
	}

	fmt.Println("\n✓ All checks passed!")
}
