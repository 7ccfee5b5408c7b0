package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/amrewind/rewind/internal/config"
	"github.com/amrewind/rewind/internal/history"
	"github.com/amrewind/rewind/internal/observability"
	"github.com/amrewind/rewind/internal/report"
)

var (
	activityFile   string
	containerFile  string
	activityFormat string
	activityOutput string
	saveEnriched   bool
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Parse the play activity export and print a listening report",
	Long: `Parse the Apple Music Play Activity export, resolve album artists
through the container export, Last.fm, and iTunes, and print play-time
rankings.

Artist lookups go through a rate-limited session and are cached in the
local store, so reruns only pay for albums not seen before.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.GetConfig()
		logger := observability.CLILogger

		if activityOutput != "" {
			saveEnriched = true
		}

		format, err := report.ParseFormat(activityFormat)
		if err != nil {
			return err
		}

		start, err := cfg.History.Start()
		if err != nil {
			return err
		}

		path := activityFile
		if path == "" {
			path = cfg.History.ActivityFile
		}
		listens, err := history.LoadActivityFile(path, history.ActivityFilter{
			Start:         start,
			MinPlayMillis: cfg.History.MinPlayMillis,
			MaxPlayMillis: cfg.History.MaxPlayMillis,
		})
		if err != nil {
			return err
		}
		if len(listens) == 0 {
			logger.Warn("No qualifying plays found", zap.String("file", path))
			return nil
		}

		containerPath := containerFile
		if containerPath == "" {
			containerPath = cfg.History.ContainerFile
		}
		containers, err := history.LoadContainersFile(containerPath)
		if err != nil {
			return err
		}

		db, err := openStore(cmd.Context(), cfg)
		if err != nil {
			ExitWithCode(logger, foundry.ExitFailure, "Failed to open store", err)
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup on shutdown

		session, err := newSession(cfg, logger)
		if err != nil {
			return err
		}
		defer session.Close() // nolint:errcheck // best-effort cleanup on shutdown

		resolver := newResolver(cfg, session, db)
		enricher := &history.Enricher{
			Containers: containers,
			Resolver:   resolver,
			Logger:     &observability.ThrottleLogger{Logger: logger},
			Workers:    cfg.Workers,
		}
		if err := enricher.Enrich(cmd.Context(), listens); err != nil {
			return err
		}

		result := history.BuildReport(listens, history.ReportLimits{
			Artists: cfg.History.TopArtists,
			Albums:  cfg.History.TopAlbums,
			Songs:   cfg.History.TopSongs,
		})

		rendered, err := report.NewFormatter(format).FormatReport(&result)
		if err != nil {
			return err
		}
		fmt.Println(rendered)

		stats := resolver.Stats()
		logger.Debug("Artist lookup cache",
			zap.Uint64("hits", stats.Hits),
			zap.Uint64("misses", stats.Misses),
			zap.Float64("hit_pct", stats.HitRate()))

		if saveEnriched {
			out := activityOutput
			if out == "" {
				out = time.Now().Format("2006-01-02-150405") + "-activity.csv"
			}
			if err := writeEnriched(out, listens); err != nil {
				return err
			}
			logger.Info("Wrote enriched activity", zap.String("file", out), zap.Int("listens", len(listens)))
		}

		return nil
	},
}

func writeEnriched(path string, listens []history.Listen) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := history.WriteActivity(f, listens); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func init() {
	rootCmd.AddCommand(activityCmd)

	activityCmd.Flags().StringVar(&activityFile, "file", "", "activity export path (default from config)")
	activityCmd.Flags().StringVar(&containerFile, "containers", "", "container export path (default from config)")
	activityCmd.Flags().StringVarP(&activityFormat, "format", "f", "table", "output format: table, json, markdown")
	activityCmd.Flags().BoolVar(&saveEnriched, "save", false, "write the enriched plays to a timestamped CSV")
	activityCmd.Flags().StringVarP(&activityOutput, "output", "o", "", "enriched CSV path (implies --save)")
}
