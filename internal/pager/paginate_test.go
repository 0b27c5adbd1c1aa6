package pager

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yuanying/epubpager/internal/model"
)

func text(n int) model.TextBlock {
	return model.TextBlock{Text: strings.Repeat("a", n)}
}

func pageSizes(pages []model.ChapterPage) [][]int {
	var sizes [][]int
	for _, p := range pages {
		var row []int
		for _, b := range p.Blocks {
			row = append(row, b.(model.TextBlock).Len())
		}
		sizes = append(sizes, row)
	}
	return sizes
}

func TestBudget(t *testing.T) {
	tests := []struct {
		fontSize int
		want     int
	}{
		{18, 3200},
		{12, 4800},
		{30, 1920},
		{10, 5760},
		{4, 5760},
		{0, 5760},
		{72, 800},
		{200, 800},
	}

	for _, tt := range tests {
		if got := Budget(tt.fontSize); got != tt.want {
			t.Errorf("Budget(%d) = %d, want %d", tt.fontSize, got, tt.want)
		}
	}
}

func TestBudget_Monotonic(t *testing.T) {
	prev := Budget(12)
	for f := 12; f <= 30; f++ {
		b := Budget(f)
		if b < MinBudget {
			t.Errorf("Budget(%d) = %d, below %d", f, b, MinBudget)
		}
		if b > prev {
			t.Errorf("Budget(%d) = %d, greater than Budget(%d) = %d", f, b, f-1, prev)
		}
		prev = b
	}
}

func TestCost(t *testing.T) {
	if got := Cost(model.TextBlock{Text: "  héllo  "}, 800); got != 5 {
		t.Errorf("Cost(text) = %d, want 5", got)
	}
	if got := Cost(model.ImageBlock{Data: []byte{1}}, 800); got != 280 {
		t.Errorf("Cost(image, 800) = %d, want 280", got)
	}
	if got := Cost(model.ImageBlock{}, 3200); got != 1120 {
		t.Errorf("Cost(image, 3200) = %d, want 1120", got)
	}
}

func TestPaginate_FlushesWhenFull(t *testing.T) {
	chapters := []model.Chapter{{Title: "One", Blocks: []model.Block{text(500), text(400), text(100)}}}

	pages, err := Paginate(context.Background(), chapters, 800)
	if err != nil {
		t.Fatalf("Paginate() failed: %v", err)
	}

	got := pageSizes(pages)
	if len(got) != 2 || len(got[0]) != 1 || got[0][0] != 500 || len(got[1]) != 2 || got[1][0] != 400 || got[1][1] != 100 {
		t.Errorf("pages = %v, want [[500] [400 100]]", got)
	}
}

func TestPaginate_ExactFit(t *testing.T) {
	chapters := []model.Chapter{{Blocks: []model.Block{text(400), text(400), text(1)}}}

	pages, err := Paginate(context.Background(), chapters, 800)
	if err != nil {
		t.Fatalf("Paginate() failed: %v", err)
	}
	if got := pageSizes(pages); len(got) != 2 || len(got[0]) != 2 {
		t.Errorf("pages = %v, want [[400 400] [1]]", got)
	}
}

func TestPaginate_OversizedBlockAlone(t *testing.T) {
	chapters := []model.Chapter{{Blocks: []model.Block{text(900)}}}

	pages, err := Paginate(context.Background(), chapters, 800)
	if err != nil {
		t.Fatalf("Paginate() failed: %v", err)
	}
	if len(pages) != 1 || len(pages[0].Blocks) != 1 {
		t.Fatalf("pages = %v, want one page with one block", pageSizes(pages))
	}

	chapters = []model.Chapter{{Blocks: []model.Block{text(10), text(900), text(10)}}}
	pages, _ = Paginate(context.Background(), chapters, 800)
	if got := pageSizes(pages); len(got) != 3 {
		t.Errorf("pages = %v, want [[10] [900] [10]]", got)
	}
}

func TestPaginate_Images(t *testing.T) {
	img := model.ImageBlock{Data: []byte{0x89}, Alt: "x"}
	chapters := []model.Chapter{{Blocks: []model.Block{img, img, img, text(1)}}}

	// 280 per image at budget 800: two images fit, the third starts a page.
	pages, err := Paginate(context.Background(), chapters, 800)
	if err != nil {
		t.Fatalf("Paginate() failed: %v", err)
	}
	if len(pages) != 2 || len(pages[0].Blocks) != 2 || len(pages[1].Blocks) != 2 {
		t.Fatalf("got %d pages, want [img img] [img text]", len(pages))
	}
}

func TestPaginate_ChapterBoundaries(t *testing.T) {
	chapters := []model.Chapter{
		{Title: "First", Blocks: []model.Block{text(300), text(300), text(300), text(300)}},
		{Title: "Empty"},
		{Title: "Third", Blocks: []model.Block{text(10)}},
	}

	pages, err := Paginate(context.Background(), chapters, 800)
	if err != nil {
		t.Fatalf("Paginate() failed: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}

	want := []struct {
		index int
		title string
		page  int
	}{
		{0, "First", 1},
		{0, "First", 2},
		{2, "Third", 1},
	}
	for i, w := range want {
		p := pages[i]
		if p.ChapterIndex != w.index || p.ChapterTitle != w.title || p.PageInChapter != w.page {
			t.Errorf("pages[%d] = (%d, %q, %d), want (%d, %q, %d)",
				i, p.ChapterIndex, p.ChapterTitle, p.PageInChapter, w.index, w.title, w.page)
		}
	}
}

func TestPaginate_PreservesBlockSequence(t *testing.T) {
	var blocks []model.Block
	for i := 1; i <= 40; i++ {
		blocks = append(blocks, text(i*37%500+1))
	}
	chapters := []model.Chapter{{Title: "Long", Blocks: blocks}}

	for _, budget := range []int{800, 1920, 3200} {
		pages, err := Paginate(context.Background(), chapters, budget)
		if err != nil {
			t.Fatalf("Paginate() failed: %v", err)
		}

		var flat []model.Block
		for i, p := range pages {
			if p.PageInChapter != i+1 {
				t.Errorf("budget %d: pages[%d].PageInChapter = %d, want %d", budget, i, p.PageInChapter, i+1)
			}
			if len(p.Blocks) == 0 {
				t.Errorf("budget %d: pages[%d] is empty", budget, i)
			}
			cost := 0
			for _, b := range p.Blocks {
				cost += Cost(b, budget)
			}
			if cost > budget && len(p.Blocks) > 1 {
				t.Errorf("budget %d: pages[%d] costs %d", budget, i, cost)
			}
			flat = append(flat, p.Blocks...)
		}

		if len(flat) != len(blocks) {
			t.Fatalf("budget %d: %d blocks after pagination, want %d", budget, len(flat), len(blocks))
		}
		for i := range blocks {
			if flat[i] != blocks[i] {
				t.Errorf("budget %d: block %d out of order", budget, i)
			}
		}
	}
}

func TestPaginate_NoChapters(t *testing.T) {
	pages, err := Paginate(context.Background(), nil, 800)
	if err != nil {
		t.Fatalf("Paginate() failed: %v", err)
	}
	if len(pages) != 0 {
		t.Errorf("got %d pages, want 0", len(pages))
	}
}

func TestPaginate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Paginate(ctx, []model.Chapter{{Blocks: []model.Block{text(1)}}}, 800)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Paginate() error = %v, want context.Canceled", err)
	}
}
