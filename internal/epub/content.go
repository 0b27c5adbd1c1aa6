package epub

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"
	"github.com/yuanying/epubpager/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// blockSelector matches the elements that become blocks, in document order.
const blockSelector = "p, h1, h2, h3, li, img"

const headingSelector = "h1, h2, h3"

// Chapters extracts the chapters of the package in spine order.
// Spine items that are missing from the manifest, are not XHTML or cannot be
// read from the archive are skipped. A document that is not markup aborts
// the whole extraction with ErrMalformedDocument.
func (p *Package) Chapters(ctx context.Context) ([]model.Chapter, error) {
	var chapters []model.Chapter

	for _, spineItem := range p.opf.Spine {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		manifestItem, ok := p.opf.Manifest[spineItem.IDRef]
		if !ok {
			p.logger.Warn("spine item not found in manifest, skipping", slog.String("idref", spineItem.IDRef))
			continue
		}
		if !isXHTML(manifestItem.MediaType) {
			continue
		}

		data, err := p.archive.ReadFile(manifestItem.Path)
		if err != nil {
			p.logger.Warn("failed to read content document, skipping", slog.String("path", manifestItem.Path), slog.Any("error", err))
			continue
		}

		chapter, ok, err := ExtractChapter(data, manifestItem.Path, p.Resources, p.Title)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", manifestItem.Href, err)
		}
		if !ok {
			p.logger.Debug("content document has no blocks", slog.String("path", manifestItem.Path))
			continue
		}

		chapters = append(chapters, chapter)
	}

	return chapters, nil
}

// ExtractChapter turns one XHTML content document into a chapter.
// docPath is the archive path of the document, used to resolve relative
// image references. It reports false when the document has no body content
// or yields no blocks.
//
// Blocks are produced in document order: p, h1-h3 and li elements with
// non-empty text become text blocks, img elements become image blocks when
// their reference resolves to a resource and are dropped otherwise.
func ExtractChapter(content []byte, docPath string, resources *Resources, bookTitle string) (model.Chapter, bool, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return model.Chapter{}, false, nil
	}
	if !isMarkup(content) {
		return model.Chapter{}, false, fmt.Errorf("%w: %s is not markup", ErrMalformedDocument, docPath)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return model.Chapter{}, false, fmt.Errorf("%w: failed to parse XHTML: %w", ErrMalformedDocument, err)
	}

	body := doc.Find("body").First()
	if body.Length() == 0 || body.Contents().Length() == 0 {
		return model.Chapter{}, false, nil
	}

	// The first heading titles the chapter and is not repeated as a block.
	heading := body.Find(headingSelector).First()
	chapter := model.Chapter{
		Title: collapseText(heading.Text()),
	}
	if chapter.Title == "" {
		chapter.Title = bookTitle
	}
	var titleNode *html.Node
	if heading.Length() > 0 {
		titleNode = heading.Get(0)
	}

	body.Find(blockSelector).Each(func(i int, s *goquery.Selection) {
		if titleNode != nil && s.Get(0) == titleNode {
			return
		}
		if goquery.NodeName(s) == "img" {
			src, exists := s.Attr("src")
			if !exists {
				return
			}
			res, ok := resources.Resolve(docPath, src)
			if !ok {
				return
			}
			alt, _ := s.Attr("alt")
			chapter.Blocks = append(chapter.Blocks, model.ImageBlock{
				Data:      res.Data,
				Alt:       alt,
				MediaType: res.MediaType,
			})
			return
		}

		if text := collapseText(s.Text()); text != "" {
			chapter.Blocks = append(chapter.Blocks, model.TextBlock{Text: text})
		}
	})

	if len(chapter.Blocks) == 0 {
		return model.Chapter{}, false, nil
	}

	return chapter, true, nil
}

// collapseText trims s, collapses internal whitespace runs to one space and
// composes characters (NFC) so that budgets count what the reader sees.
func collapseText(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// isMarkup reports whether content sniffs as text. Binary payloads
// (images, fonts, archives) placed in the spine are rejected.
func isMarkup(content []byte) bool {
	for m := mimetype.Detect(content); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
