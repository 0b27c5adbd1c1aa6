package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/yuanying/epubpager/internal/cover"
	"github.com/yuanying/epubpager/internal/epub"
	"github.com/yuanying/epubpager/internal/model"
	"github.com/yuanying/epubpager/internal/pager"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file.epub>",
		Short: "Show the metadata, images and cover of an EPUB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(cmd, args)
			if err != nil {
				return err
			}

			pkg, err := epub.Open(args[0], epub.Options{Backend: opts.Backend, Logger: opts.Logger})
			if err != nil {
				return err
			}
			defer pkg.Close()

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Title:      %s\n", pkg.Title)
			fmt.Fprintf(w, "Author:     %s\n", pkg.Author)
			fmt.Fprintf(w, "Language:   %s\n", pkg.Metadata.Language)
			fmt.Fprintf(w, "Identifier: %s\n", pkg.Metadata.Identifier)
			fmt.Fprintf(w, "Package:    %s\n", pkg.OPFPath())
			fmt.Fprintf(w, "Spine:      %d items\n", len(pkg.OPF().Spine))

			var total uint64
			for _, res := range pkg.Resources.All() {
				total += uint64(len(res.Data))
			}
			fmt.Fprintf(w, "Images:     %d (%s)\n", pkg.Resources.Len(), humanize.Bytes(total))

			if res, ok := pkg.Cover(); ok {
				fmt.Fprintf(w, "Cover:      %s (%s, detected %s)\n", res.Path, humanize.Bytes(uint64(len(res.Data))), mimetype.Detect(res.Data))
			} else {
				fmt.Fprintln(w, "Cover:      none")
			}
			if item, ok := pkg.OPF().DeclaredCover(); ok {
				fmt.Fprintf(w, "Declared:   %s (%s)\n", item.Path, item.MediaType)
			} else {
				fmt.Fprintln(w, "Declared:   none")
			}

			for _, warning := range pkg.Warnings {
				fmt.Fprintf(w, "Warning:    %s\n", warning)
			}

			return finish(cmd, opts)
		},
	}
}

func newChaptersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chapters <file.epub>",
		Short: "List the chapters extracted from an EPUB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(cmd, args)
			if err != nil {
				return err
			}

			pkg, err := epub.Open(args[0], epub.Options{Backend: opts.Backend, Logger: opts.Logger})
			if err != nil {
				return err
			}
			defer pkg.Close()

			chapters, err := pkg.Chapters(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tTITLE\tBLOCKS\tCONTENT")
			for i, ch := range chapters {
				summary := pageSummary(model.ChapterPage{Blocks: ch.Blocks})
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", i+1, ch.Title, len(ch.Blocks), summary)
			}
			if err := tw.Flush(); err != nil {
				return errors.WithStack(err)
			}

			return finish(cmd, opts)
		},
	}
}

func newPaginateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paginate <file.epub>",
		Short: "Split an EPUB into pages at the configured font size",
		Long: `Split an EPUB into pages at the configured font size.

Books that cannot be read are reported as a single page explaining the
problem, the way a reader would show them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(cmd, args)
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")

			filePath, err := filepath.Abs(args[0])
			if err != nil {
				return errors.WithStack(err)
			}

			a := openScratch(opts, nil)
			defer a.Close()

			book := &model.Book{FilePath: filePath}
			pages, err := a.service.Paginate(cmd.Context(), book, opts.Config.FontSize)
			if err != nil {
				return err
			}

			if book.Title == "" {
				book.Title = filepath.Base(filePath)
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(pages); err != nil {
					return errors.WithStack(err)
				}
				return finish(cmd, opts)
			}

			fmt.Fprintf(w, "%s: %d pages at font size %d (budget %d)\n", book.Title, len(pages), opts.Config.FontSize, pager.Budget(opts.Config.FontSize))
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PAGE\tCHAPTER\tTITLE\tCONTENT")
			for i, page := range pages {
				fmt.Fprintf(tw, "%d\t%d.%d\t%s\t%s\n", i+1, page.ChapterIndex+1, page.PageInChapter, page.ChapterTitle, pageSummary(page))
			}
			if err := tw.Flush(); err != nil {
				return errors.WithStack(err)
			}

			return finish(cmd, opts)
		},
	}

	cmd.Flags().Bool("json", false, "Print the pages as JSON")

	return cmd
}

func newCoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cover <file.epub>",
		Short: "Extract the cover of an EPUB into the covers directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(cmd, args)
			if err != nil {
				return err
			}
			id, _ := cmd.Flags().GetInt64("id")
			if id <= 0 {
				return fmt.Errorf("--id must be positive, got %d", id)
			}

			covers, err := cover.NewDirStore(opts.Config.Covers.Dir, cover.Options{
				MaxWidth: opts.Config.Covers.MaxWidth,
				Logger:   opts.Logger,
			})
			if err != nil {
				return err
			}

			a := openScratch(opts, covers)
			defer a.Close()

			coverPath, ok := a.service.SelectCover(cmd.Context(), &model.Book{ID: model.BookID(id), FilePath: args[0]})
			if !ok {
				return fmt.Errorf("no cover could be extracted from %s", args[0])
			}

			fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(opts.Config.Covers.Dir, coverPath))

			return finish(cmd, opts)
		},
	}

	cmd.Flags().Int64("id", 1, "Book id the cover file is named after")

	return cmd
}

// finish runs after a command succeeded.
func finish(cmd *cobra.Command, opts cliOptions) error {
	if !opts.Metrics {
		return nil
	}
	return writeMetrics(cmd.ErrOrStderr())
}
