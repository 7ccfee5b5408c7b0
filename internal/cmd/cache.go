package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/amrewind/rewind/internal/config"
	"github.com/amrewind/rewind/internal/observability"
	"github.com/amrewind/rewind/internal/report"
)

var (
	cacheFormat string
	cacheLimit  int
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the artist cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached album resolutions",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(cacheFormat)
		if err != nil {
			return err
		}

		db, err := openStore(cmd.Context(), config.GetConfig())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup on shutdown

		entries, err := db.ListEntries(cmd.Context(), cacheLimit)
		if err != nil {
			return err
		}

		rendered, err := report.NewFormatter(format).FormatCache(entries)
		if err != nil {
			return err
		}
		fmt.Println(rendered)
		return nil
	},
}

var cacheClearUnknownsCmd = &cobra.Command{
	Use:   "clear-unknowns",
	Short: "Drop cached entries that resolved to no artist",
	Long: `Drop cached entries that resolved to no artist, so the next
activity run retries them against the APIs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cmd.Context(), config.GetConfig())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup on shutdown

		cleared, err := db.ClearUnknowns(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("%d unknown artists cleared\n", cleared)
		return nil
	},
}

var cacheReplaceCmd = &cobra.Command{
	Use:   "replace <find> <replace>",
	Short: "Rename an artist across all cached entries",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cmd.Context(), config.GetConfig())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup on shutdown

		changed, err := db.ReplaceArtist(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		observability.CLILogger.Info("Replaced artist in cache",
			zap.String("find", args[0]),
			zap.String("replace", args[1]),
			zap.Int64("entries_changed", changed))
		fmt.Printf("%d entries updated\n", changed)
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cmd.Context(), config.GetConfig())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup on shutdown

		stats, err := db.Stats(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("entries: %d, unknown: %d\n", stats.Total, stats.Unknown)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearUnknownsCmd)
	cacheCmd.AddCommand(cacheReplaceCmd)
	cacheCmd.AddCommand(cacheStatsCmd)

	cacheListCmd.Flags().StringVarP(&cacheFormat, "format", "f", "table", "output format: table, json, markdown")
	cacheListCmd.Flags().IntVar(&cacheLimit, "limit", 0, "maximum entries to list (0 = all)")
}
