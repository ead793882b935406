package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zjrosen/peruse/internal/book"
	"github.com/zjrosen/peruse/internal/presentation"
)

var (
	listJSON  bool
	listWidth int
)

var tocCmd = &cobra.Command{
	Use:   "toc <file>",
	Short: "Print the table of contents of a formatted book",
	Long: `Print the table of contents of a formatted (.sfb) book. Nested
headings are indented under their parent. Plain text books have none.

Examples:
  peruse toc novel.sfb
  peruse toc novel.sfb --json | jq '.[].label'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		toc, err := book.BuildTOC(args[0], bookOptions())
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		return formatter(cmd).FormatBookmarks(presentation.FromTOC(toc))
	},
}

var bookmarksCmd = &cobra.Command{
	Use:   "bookmarks <file>",
	Short: "Print the saved bookmarks of a book",
	Long: `Print the autosaved position and the user bookmarks saved for a book.
Bookmarks belong to one version of the file; editing it starts a new list.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := book.Key(args[0])
		if err != nil {
			return err
		}
		lib, err := openLibrary()
		if err != nil {
			return err
		}
		defer func() { _ = lib.Close() }()

		ix, err := lib.LoadIndex(cmd.Context(), key)
		if err != nil {
			return err
		}
		return formatter(cmd).FormatBookmarks(presentation.FromIndex(ix))
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently read books",
	Long: `List recently read books, newest first. Books whose files no longer
exist are dropped from the list.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary()
		if err != nil {
			return err
		}
		defer func() { _ = lib.Close() }()

		books, err := lib.Recent(cmd.Context())
		if err != nil {
			return err
		}
		return formatter(cmd).FormatBooks(presentation.FromBooks(books))
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <file>",
	Short: "Count the lines, words and characters of a book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		counts, err := book.Count(args[0], bookOptions())
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		return formatter(cmd).FormatStats(presentation.FromCounts(filepath.Base(args[0]), counts))
	},
}

func formatter(cmd *cobra.Command) *presentation.Formatter {
	return presentation.NewFormatter(cmd.OutOrStdout(), listJSON, listWidth)
}

func init() {
	for _, c := range []*cobra.Command{tocCmd, bookmarksCmd, recentCmd, statsCmd} {
		c.Flags().BoolVar(&listJSON, "json", false, "print JSON")
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{tocCmd, bookmarksCmd} {
		c.Flags().IntVar(&listWidth, "wrap", 80, "wrap labels at this width (0 disables wrapping)")
	}
}
