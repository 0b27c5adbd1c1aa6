package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/yuanying/epubpager/internal/model"
	"github.com/yuanying/epubpager/internal/reader"
	"github.com/yuanying/epubpager/internal/store"
)

func newLibraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage the books of the library",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <file.epub>...",
			Short: "Add books to the library",
			Args:  cobra.MinimumNArgs(1),
			RunE:  runLibraryAdd,
		},
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List the books of the library",
			Args:    cobra.NoArgs,
			RunE:    runLibraryList,
		},
		&cobra.Command{
			Use:     "rm <id>...",
			Aliases: []string{"remove"},
			Short:   "Remove books from the library",
			Args:    cobra.MinimumNArgs(1),
			RunE:    runLibraryRemove,
		},
	)

	return cmd
}

func runLibraryAdd(cmd *cobra.Command, args []string) error {
	opts, err := readCLIOptions(cmd, args)
	if err != nil {
		return err
	}

	a, err := openLibrary(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, p := range args {
		book, err := a.service.AddBook(cmd.Context(), p)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", book.ID, book.Title)
	}

	return finish(cmd, opts)
}

func runLibraryList(cmd *cobra.Command, args []string) error {
	opts, err := readCLIOptions(cmd, args)
	if err != nil {
		return err
	}

	a, err := openLibrary(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	books, err := a.service.ListBooks(cmd.Context())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tPROGRESS\tCOVER")
	for _, book := range books {
		coverPath := book.CoverPath
		if coverPath == "" {
			coverPath = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", book.ID, book.Title, book.Author, progressLabel(book), coverPath)
	}
	if err := tw.Flush(); err != nil {
		return errors.WithStack(err)
	}

	return finish(cmd, opts)
}

func runLibraryRemove(cmd *cobra.Command, args []string) error {
	opts, err := readCLIOptions(cmd, args)
	if err != nil {
		return err
	}

	ids, err := parseBookIDs(args)
	if err != nil {
		return err
	}

	a, err := openLibrary(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, id := range ids {
		if err := a.service.DeleteBook(cmd.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("book %d is not in the library", id)
			}
			return err
		}
	}

	return finish(cmd, opts)
}

func parseBookIDs(args []string) ([]model.BookID, error) {
	ids := make([]model.BookID, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid book id %q", arg)
		}
		ids = append(ids, model.BookID(id))
	}
	return ids, nil
}

func newReadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read [id]",
		Short: "Print a page of a library book",
		Long: `Print a page of a library book and remember the position.

Without an id the last read book is resumed. The font size is taken from
the saved settings unless --font-size is given, in which case it is saved.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRead,
	}

	flags := cmd.Flags()
	flags.Int("page", 0, "Go to this page (1-based)")
	flags.Bool("next", false, "Go to the next page")
	flags.Bool("prev", false, "Go to the previous page")

	return cmd
}

func runRead(cmd *cobra.Command, args []string) error {
	opts, err := readCLIOptions(cmd, args)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	page, _ := flags.GetInt("page")
	next, _ := flags.GetBool("next")
	prev, _ := flags.GetBool("prev")
	if page < 0 {
		return fmt.Errorf("--page must be positive, got %d", page)
	}
	if next && prev {
		return fmt.Errorf("--next and --prev cannot be used together")
	}

	var ids []model.BookID
	if len(args) > 0 {
		if ids, err = parseBookIDs(args); err != nil {
			return err
		}
	}

	a, err := openLibrary(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()

	var session *reader.Session
	if len(ids) > 0 {
		session, err = a.service.Open(ctx, ids[0])
	} else {
		session, err = a.service.Resume(ctx)
	}
	if errors.Is(err, store.ErrNotFound) {
		if len(ids) > 0 {
			return fmt.Errorf("book %d is not in the library", ids[0])
		}
		return fmt.Errorf("no book has been read yet")
	}
	if err != nil {
		return err
	}

	if flags.Changed("font-size") && opts.Config.FontSize != session.Settings().FontSize {
		if err := session.SetFontSize(ctx, opts.Config.FontSize); err != nil {
			return err
		}
	}

	switch {
	case page > 0:
		session.Seek(ctx, page-1)
	case next:
		session.Next(ctx)
	case prev:
		session.Prev(ctx)
	}

	writePage(cmd.OutOrStdout(), session.Current(), session.Progress())

	if err := session.Close(ctx); err != nil {
		return err
	}

	return finish(cmd, opts)
}
