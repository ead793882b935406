package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/peruse/internal/book"
	"github.com/zjrosen/peruse/internal/config"
	"github.com/zjrosen/peruse/internal/flags"
	"github.com/zjrosen/peruse/internal/library"
	"github.com/zjrosen/peruse/internal/log"
)

func init() {
	// Query the terminal background before any Bubble Tea program starts so
	// the OSC 11 reply cannot race with the input loop.
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version  = "dev"
	cfgFile  string
	debug    bool
	logLevel string

	cfg        config.Config
	cfgErr     error
	cfgPath    string
	featureSet *flags.Registry
	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "peruse [file]",
	Short: "A terminal reader for large text books",
	Long: `A terminal reader that lays out large plain text and formatted (.sfb)
books a page at a time without loading them into memory.

Without a file, the most recently read book is reopened at its autosaved
position.`,
	Version:           version,
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logCleanup != nil {
			logCleanup()
			logCleanup = nil
		}
	},
	RunE: runRead,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/peruse/config.yaml)")
	pf.BoolVarP(&debug, "debug", "d", false,
		"write a debug log to debug.log (also PERUSE_DEBUG=1)")
	pf.StringVar(&logLevel, "log-level", "",
		"minimum log level: debug, info, warn or error")
	pf.String("data-dir", "", "directory holding the library database")
	pf.StringP("encoding", "e", "", "encoding of books without a byte order mark")

	_ = viper.BindPFlag("data_dir", pf.Lookup("data-dir"))
	_ = viper.BindPFlag("encoding", pf.Lookup("encoding"))
}

func initConfig() {
	v := viper.GetViper()
	config.SetDefaults(v)
	v.SetEnvPrefix("PERUSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Config lookup order:
	// 1. --config
	// 2. .peruse/config.yaml (current directory)
	// 3. ~/.config/peruse/config.yaml (user config)
	cfgPath = cfgFile
	if cfgPath == "" {
		cfgPath = ".peruse/config.yaml"
		if _, err := os.Stat(cfgPath); err != nil {
			cfgPath = filepath.Join(config.DefaultDataDir(), "config.yaml")
		}
	}
	v.SetConfigFile(cfgPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			if writeErr := config.WriteDefaultConfig(cfgPath); writeErr == nil {
				_ = v.ReadInConfig()
			}
		} else {
			cfgErr = fmt.Errorf("reading %s: %w", cfgPath, err)
			return
		}
	}

	cfg, cfgErr = config.Load(v)
}

func setup(*cobra.Command, []string) error {
	if err := initLogging(); err != nil {
		return err
	}
	if cfgErr != nil {
		return fmt.Errorf("invalid configuration: %w", cfgErr)
	}
	featureSet = flags.New(cfg.Flags)
	log.Debug(log.CatConfig, "configuration loaded", "path", cfgPath, "data_dir", cfg.DataDir)
	return nil
}

// initLogging writes to debug.log in debug mode. Otherwise warnings still
// reach in-process listeners such as the reader's status bar.
func initLogging() error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	if debug || os.Getenv("PERUSE_DEBUG") != "" {
		cleanup, err := log.InitWithTeaLog("debug.log", "peruse")
		if err != nil {
			return fmt.Errorf("opening debug log: %w", err)
		}
		if logLevel == "" {
			level = log.LevelDebug
		}
		log.SetMinLevel(level)
		logCleanup = cleanup
		log.Info(log.CatConfig, "peruse starting", "version", version, "level", level)
		return nil
	}
	log.InitWriter(io.Discard, max(level, log.LevelWarn))
	return nil
}

// bookOptions maps the reader configuration onto book options.
func bookOptions() book.Options {
	opts := book.DefaultOptions()
	opts.Encoding = cfg.Encoding
	opts.TabSize = cfg.Reader.TabSize
	opts.CacheSize = cfg.Reader.CacheSize
	opts.BlockSize = cfg.Reader.BlockSize
	opts.BlockCount = cfg.Reader.BlockCount
	if cfg.Reader.Width > 0 {
		opts.Width = cfg.Reader.Width
	}
	return opts
}

func openLibrary() (*library.Library, error) {
	lib, err := library.Open(cfg.LibraryDir())
	if err != nil {
		return nil, fmt.Errorf("opening library in %s: %w", cfg.LibraryDir(), err)
	}
	return lib, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
