package main

import (
	"github.com/pkg/errors"
	"github.com/yuanying/epubpager/internal/config"
	"github.com/yuanying/epubpager/internal/cover"
	"github.com/yuanying/epubpager/internal/pager"
	"github.com/yuanying/epubpager/internal/reader"
	"github.com/yuanying/epubpager/internal/store/gorm"
	"github.com/yuanying/epubpager/internal/store/memory"
)

// app is the reader service a command runs against.
type app struct {
	service *reader.Service
	close   func() error
}

func (a *app) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

// openLibrary wires the persistent library: the sqlite store, the cover
// directory and the page cache.
func openLibrary(opts cliOptions) (*app, error) {
	conf := opts.Config

	level, err := config.ParseLevel(conf.Logger.Level)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	db, err := gorm.OpenDatabase(conf.Database.DSN, level)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open database '%s'", conf.Database.DSN)
	}

	covers, err := cover.NewDirStore(conf.Covers.Dir, cover.Options{
		MaxWidth: conf.Covers.MaxWidth,
		Logger:   opts.Logger,
	})
	if err != nil {
		_ = gorm.CloseDatabase(db)
		return nil, errors.Wrapf(err, "could not open covers directory '%s'", conf.Covers.Dir)
	}

	service := reader.NewService(reader.Options{
		Store:   gorm.NewStore(db),
		Covers:  covers,
		Cache:   newCache(opts),
		Backend: opts.Backend,
		Logger:  opts.Logger,
	})

	return &app{
		service: service,
		close:   func() error { return gorm.CloseDatabase(db) },
	}, nil
}

// openScratch wires a throwaway in-memory library for commands that work on
// a single file. covers may be nil.
func openScratch(opts cliOptions, covers reader.CoverStore) *app {
	return &app{
		service: reader.NewService(reader.Options{
			Store:   memory.NewStore(),
			Covers:  covers,
			Cache:   newCache(opts),
			Backend: opts.Backend,
			Logger:  opts.Logger,
		}),
	}
}

func newCache(opts cliOptions) *pager.Cache {
	return pager.NewCache(pager.CacheOptions{
		Size:   opts.Config.Cache.Size,
		TTL:    opts.Config.Cache.TTL,
		Logger: opts.Logger,
	})
}
