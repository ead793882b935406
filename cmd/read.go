package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/peruse/internal/book"
	"github.com/zjrosen/peruse/internal/config"
	"github.com/zjrosen/peruse/internal/flags"
	"github.com/zjrosen/peruse/internal/library"
	"github.com/zjrosen/peruse/internal/log"
	"github.com/zjrosen/peruse/internal/tracing"
	"github.com/zjrosen/peruse/internal/viewer"
	"github.com/zjrosen/peruse/internal/watcher"
)

var errNoBook = errors.New("no book given and nothing read recently")

func init() {
	rootCmd.Flags().IntP("width", "w", 0, "row width in cells (0 follows the terminal)")
	rootCmd.Flags().Bool("no-watch", false, "do not reload the book when its file changes")
	_ = rootCmd.Flags().MarkHidden("no-watch")
	_ = viper.BindPFlag("reader.width", rootCmd.Flags().Lookup("width"))
}

func runRead(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	lib, err := openLibrary()
	if err != nil {
		return err
	}
	defer func() { _ = lib.Close() }()

	path, err := bookPath(ctx, lib, args)
	if err != nil {
		return err
	}

	provider, err := tracing.NewProvider(cfg.TracingConfig())
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	opts := bookOptions()
	if featureSet.Enabled(flags.FlagTraceCursors) {
		opts.Tracer = provider.Tracer()
	}
	opts.LogCursors = featureSet.Enabled(flags.FlagLogCursors)
	b, err := book.Open(path, opts)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = b.Close() }()

	key, err := book.Key(path)
	if err != nil {
		return err
	}
	if err := lib.Touch(ctx, key, path, b.Kind().String()); err != nil {
		return err
	}

	var changes <-chan watcher.Change
	noWatch, _ := cmd.Flags().GetBool("no-watch")
	if featureSet.Enabled(flags.FlagWatch) && !noWatch {
		w, err := watcher.New(watcher.DefaultConfig(path))
		if err != nil {
			return err
		}
		defer func() { _ = w.Stop() }()
		if changes, err = w.Start(); err != nil {
			log.ErrorErr(log.CatWatcher, "not watching book", err, "path", path)
		}
	}

	model, err := viewer.New(ctx, b, lib, viewer.Config{
		Key:           key,
		Width:         cfg.Reader.Width,
		ShowStatusBar: cfg.UI.ShowStatusBar,
		Prefetch:      featureSet.Enabled(flags.FlagPrefetch),
		Changes:       changes,
		SaveSetting: func(key, value string) error {
			return config.Set(cfgPath, key, value)
		},
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running program: %w", err)
	}

	if s, ok := b.Stats(); ok {
		log.Info(log.CatTrace, "row cursor calls",
			"next", s.Next, "prev", s.Prev, "set_position", s.SetPosition,
			"errors", s.Errors, "elapsed", s.Elapsed)
	}
	return nil
}

// bookPath returns the book named on the command line, or the most recently
// read one.
func bookPath(ctx context.Context, lib *library.Library, args []string) (string, error) {
	if len(args) > 0 {
		return filepath.Abs(args[0])
	}
	recent, err := lib.Recent(ctx)
	if err != nil {
		return "", err
	}
	if len(recent) == 0 {
		return "", errNoBook
	}
	return recent[0].Path, nil
}
