package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"github.com/yuanying/epubpager/internal/config"
	"github.com/yuanying/epubpager/internal/metrics"
	"github.com/yuanying/epubpager/internal/model"
)

type cliOptions struct {
	Config  *config.Config
	Backend string
	Logger  *slog.Logger
	Metrics bool
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epubpager",
		Short: "Split EPUB books into pages for reading",
		Long: `epubpager reads EPUB ebooks and reflows their text and images into
fixed-capacity pages sized after the reader's font size.

Defaults come from EPUBPAGER_* environment variables; flags override them.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.Int("font-size", model.DefaultFontSize, fmt.Sprintf("Font size used to size pages (%d-%d)", config.MinFontSize, config.MaxFontSize))
	flags.String("database", "", "Library database file (default $EPUBPAGER_DATABASE_DSN or epubpager.sqlite)")
	flags.String("covers-dir", "", "Directory covers are written to (default $EPUBPAGER_COVERS_DIR or covers)")
	flags.Int("cover-max-width", 0, "Covers wider than this are resized; 0 keeps the original size")
	flags.String("backend", "", "Package backend to use (default zip)")
	flags.String("log-level", "", "Log level: debug|info|warn|error (default info)")
	flags.String("log-format", "", "Log format: text|json (default text)")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.Bool("metrics", false, "Print collected metrics to stderr on exit")

	cmd.AddCommand(
		newInfoCmd(),
		newChaptersCmd(),
		newPaginateCmd(),
		newCoverCmd(),
		newLibraryCmd(),
		newReadCmd(),
	)

	return cmd
}

// readCLIOptions merges the environment configuration with the flags set on cmd.
func readCLIOptions(cmd *cobra.Command, args []string) (cliOptions, error) {
	conf, err := config.Parse()
	if err != nil {
		return cliOptions{}, fmt.Errorf("invalid environment: %w", err)
	}

	flags := cmd.Flags()

	if flags.Changed("font-size") {
		conf.FontSize, _ = flags.GetInt("font-size")
		if conf.FontSize < config.MinFontSize || conf.FontSize > config.MaxFontSize {
			return cliOptions{}, fmt.Errorf("--font-size must be between %d and %d, got %d", config.MinFontSize, config.MaxFontSize, conf.FontSize)
		}
	}
	if flags.Changed("database") {
		conf.Database.DSN, _ = flags.GetString("database")
		if conf.Database.DSN == "" {
			return cliOptions{}, fmt.Errorf("--database must not be empty")
		}
	}
	if flags.Changed("covers-dir") {
		conf.Covers.Dir, _ = flags.GetString("covers-dir")
		if conf.Covers.Dir == "" {
			return cliOptions{}, fmt.Errorf("--covers-dir must not be empty")
		}
	}
	if flags.Changed("cover-max-width") {
		conf.Covers.MaxWidth, _ = flags.GetInt("cover-max-width")
		if conf.Covers.MaxWidth < 0 {
			return cliOptions{}, fmt.Errorf("--cover-max-width must not be negative, got %d", conf.Covers.MaxWidth)
		}
	}
	if flags.Changed("log-level") {
		conf.Logger.Level, _ = flags.GetString("log-level")
		if _, err := config.ParseLevel(conf.Logger.Level); err != nil {
			return cliOptions{}, fmt.Errorf("--log-level: %w", err)
		}
	}
	if flags.Changed("log-format") {
		conf.Logger.Format, _ = flags.GetString("log-format")
		if _, err := config.ParseFormat(conf.Logger.Format); err != nil {
			return cliOptions{}, fmt.Errorf("--log-format: %w", err)
		}
	}
	if verbose, _ := flags.GetBool("verbose"); verbose {
		conf.Logger.Level = "debug"
	}

	backend, _ := flags.GetString("backend")
	showMetrics, _ := flags.GetBool("metrics")

	return cliOptions{
		Config:  conf,
		Backend: backend,
		Logger:  buildLogger(cmd.ErrOrStderr(), conf.Logger.Level, conf.Logger.Format),
		Metrics: showMetrics,
	}, nil
}

// buildLogger creates a logger writing to w. Invalid levels fall back to
// info and invalid formats to text.
func buildLogger(w io.Writer, level, format string) *slog.Logger {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// writeMetrics prints the collected epubpager metrics in the text exposition format.
func writeMetrics(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), metrics.Namespace+"_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
