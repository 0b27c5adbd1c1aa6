package pager

import (
	"context"
	"time"

	"github.com/yuanying/epubpager/internal/metrics"
	"github.com/yuanying/epubpager/internal/model"
)

const (
	// MinBudget is the smallest page capacity, reached at large font sizes.
	MinBudget = 800
	// referenceCapacity is the capacity of a page at DefaultFontSize.
	referenceCapacity = 3200
	minFontSize       = 10
	// imageCostPercent is the share of a page budget charged for one image.
	imageCostPercent = 35
)

// Budget returns the character capacity of a page at the given font size.
// It never increases as the font size grows and never drops below MinBudget.
func Budget(fontSize int) int {
	budget := referenceCapacity * model.DefaultFontSize / max(minFontSize, fontSize)
	return max(MinBudget, budget)
}

// Cost returns the share of budget a block consumes.
func Cost(b model.Block, budget int) int {
	switch b := b.(type) {
	case model.TextBlock:
		return b.Len()
	case model.ImageBlock:
		return budget * imageCostPercent / 100
	default:
		return 0
	}
}

// Paginate packs the blocks of each chapter into pages of at most budget
// characters. Blocks are never split: a block larger than the budget gets a
// page of its own. Pages never mix chapters and chapters without blocks emit
// no page. The context is checked between chapters.
func Paginate(ctx context.Context, chapters []model.Chapter, budget int) ([]model.ChapterPage, error) {
	start := time.Now()
	defer func() {
		metrics.PaginationDuration.Observe(time.Since(start).Seconds())
	}()

	var pages []model.ChapterPage
	for i, chapter := range chapters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages = append(pages, paginateChapter(i, chapter, budget)...)
	}

	metrics.PagesProduced.Add(float64(len(pages)))

	return pages, nil
}

func paginateChapter(index int, chapter model.Chapter, budget int) []model.ChapterPage {
	var (
		pages   []model.ChapterPage
		buffer  []model.Block
		running int
	)

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		pages = append(pages, model.ChapterPage{
			ChapterIndex:  index,
			ChapterTitle:  chapter.Title,
			PageInChapter: len(pages) + 1,
			Blocks:        buffer,
		})
		buffer = nil
		running = 0
	}

	for _, block := range chapter.Blocks {
		cost := Cost(block, budget)
		if len(buffer) > 0 && running+cost > budget {
			flush()
		}
		buffer = append(buffer, block)
		running += cost
	}
	flush()

	return pages
}
