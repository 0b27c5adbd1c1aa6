package pager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/yuanying/epubpager/internal/metrics"
	"github.com/yuanying/epubpager/internal/model"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultCacheSize = 32
	DefaultCacheTTL  = time.Hour
)

// Document is what a Source reads from a book.
type Document struct {
	Title    string
	Author   string
	Chapters []model.Chapter
}

// Source reads a book on a cache miss.
type Source func(ctx context.Context) (Document, error)

// Result is one pagination of a book with the metadata read alongside it.
// Pages are shared between callers and must not be modified.
type Result struct {
	Title  string
	Author string
	Pages  []model.ChapterPage
}

// Key identifies one pagination of one book.
type Key struct {
	BookID model.BookID
	Budget int
}

func (k Key) String() string {
	return fmt.Sprintf("%d:%d", k.BookID, k.Budget)
}

// Cache memoizes pagination results per book and budget. Concurrent misses
// for the same key share one computation; different keys run in parallel.
//
// A shared computation does not belong to any caller: it runs until every
// caller waiting on it has gone, so one caller giving up never fails the
// others.
type Cache struct {
	results *expirable.LRU[Key, Result]
	group   singleflight.Group
	logger  *slog.Logger

	mu      sync.Mutex
	flights map[Key]*flight
	seq     uint64
	// epochs and purges change on invalidation; a computation started
	// before the change is returned to its callers but not cached.
	epochs map[model.BookID]uint64
	purges uint64
}

type flight struct {
	name    string
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
	epoch   uint64
	purges  uint64
}

// CacheOptions configure a Cache. A zero TTL keeps entries until evicted.
type CacheOptions struct {
	Size   int
	TTL    time.Duration
	Logger *slog.Logger
}

func NewCache(opts CacheOptions) *Cache {
	if opts.Size <= 0 {
		opts.Size = DefaultCacheSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Cache{
		results: expirable.NewLRU[Key, Result](opts.Size, nil, opts.TTL),
		logger:  opts.Logger,
		flights: make(map[Key]*flight),
		epochs:  make(map[model.BookID]uint64),
	}
}

// GetOrCompute returns the pagination cached for bookID at budget, or reads
// the book from source, paginates it and caches the result. Errors are not
// cached. Unsaved books (zero id) are paginated without caching.
func (c *Cache) GetOrCompute(ctx context.Context, bookID model.BookID, budget int, source Source) (Result, error) {
	if bookID == 0 {
		return compute(ctx, budget, source)
	}

	key := Key{BookID: bookID, Budget: budget}
	if res, ok := c.results.Get(key); ok {
		metrics.CacheLookups.WithLabelValues(metrics.ResultHit).Inc()
		return res, nil
	}
	metrics.CacheLookups.WithLabelValues(metrics.ResultMiss).Inc()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	f := c.join(ctx, key)
	defer c.leave(key, f)

	ch := c.group.DoChan(f.name, func() (any, error) {
		if res, ok := c.results.Peek(key); ok {
			return res, nil
		}

		res, err := compute(f.ctx, budget, source)
		if err != nil {
			return Result{}, err
		}

		if c.add(key, f, res) {
			c.logger.Debug("pages cached", slog.Int64("book_id", int64(bookID)), slog.Int("budget", budget), slog.Int("pages", len(res.Pages)))
		} else {
			c.logger.Debug("book invalidated while paginating, result not cached", slog.Int64("book_id", int64(bookID)))
		}

		return res, nil
	})

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Result{}, res.Err
		}
		return res.Val.(Result), nil
	}
}

// join registers the caller on the computation for key, starting a new one
// when none is running. The computation context keeps the caller's values
// but not its cancellation.
func (c *Cache) join(ctx context.Context, key Key) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.flights[key]
	if !ok {
		c.seq++
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{
			name:   fmt.Sprintf("%s#%d", key, c.seq),
			ctx:    fctx,
			cancel: cancel,
			epoch:  c.epochs[key.BookID],
			purges: c.purges,
		}
		c.flights[key] = f
	}
	f.waiters++

	return f
}

// leave unregisters a caller. The last one out cancels the computation.
func (c *Cache) leave(key Key, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}

	f.cancel()
	if c.flights[key] == f {
		delete(c.flights, key)
	}
}

func (c *Cache) add(key Key, f *flight, res Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epochs[key.BookID] != f.epoch || c.purges != f.purges {
		return false
	}
	c.results.Add(key, res)
	return true
}

func compute(ctx context.Context, budget int, source Source) (Result, error) {
	doc, err := source(ctx)
	if err != nil {
		return Result{}, err
	}

	pages, err := Paginate(ctx, doc.Chapters, budget)
	if err != nil {
		return Result{}, err
	}

	return Result{Title: doc.Title, Author: doc.Author, Pages: pages}, nil
}

// Invalidate drops every cached pagination of bookID. Computations already
// running for the book still answer their callers but are not cached.
func (c *Cache) Invalidate(bookID model.BookID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epochs[bookID]++
	for _, key := range c.results.Keys() {
		if key.BookID == bookID {
			c.results.Remove(key)
		}
	}
}

// Purge drops all cached paginations.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purges++
	c.results.Purge()
}

// Len returns the number of cached paginations.
func (c *Cache) Len() int {
	return c.results.Len()
}
