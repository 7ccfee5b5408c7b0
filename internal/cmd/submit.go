package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/amrewind/rewind/internal/config"
	"github.com/amrewind/rewind/internal/history"
	"github.com/amrewind/rewind/internal/listenbrainz"
	"github.com/amrewind/rewind/internal/observability"
)

var submitPretend bool

var submitCmd = &cobra.Command{
	Use:   "submit <enriched-csv>",
	Short: "Submit an enriched activity CSV to ListenBrainz",
	Long: `Submit listens from an enriched activity CSV (written by
"rewind activity --save") to the ListenBrainz import API.

Listens are submitted in chunks; each chunk is journaled in the local
store under a batch ID. With --pretend, nothing is sent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.GetConfig()
		logger := observability.CLILogger

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		listens, err := history.ReadEnriched(f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}
		if len(listens) == 0 {
			logger.Warn("No listens to submit", zap.String("file", args[0]))
			return nil
		}

		if !submitPretend && cfg.ListenBrainz.Token == "" {
			return fmt.Errorf("listenbrainz token is required (set listenbrainz.token or REWIND_LISTENBRAINZ_TOKEN)")
		}

		db, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup on shutdown

		session, err := newSession(cfg, logger)
		if err != nil {
			return err
		}
		defer session.Close() // nolint:errcheck // best-effort cleanup on shutdown

		client := &listenbrainz.Client{
			Session:   session,
			Token:     cfg.ListenBrainz.Token,
			BaseURL:   cfg.ListenBrainz.BaseURL,
			ChunkSize: cfg.ListenBrainz.ChunkSize,
			Pretend:   submitPretend,
			Journal:   db,
			Logger:    &observability.ThrottleLogger{Logger: logger},
		}

		result, err := client.Submit(cmd.Context(), listens)
		if err != nil {
			logger.Error("Submission failed",
				zap.String("batch_id", result.BatchID),
				zap.Int("chunks_sent", result.Chunks),
				zap.Error(err))
			return err
		}

		if result.Pretend {
			logger.Info("Pretend run complete",
				zap.String("batch_id", result.BatchID),
				zap.Int("chunks", result.Chunks),
				zap.Int("listens", result.Listens))
		} else {
			logger.Info("Submission complete",
				zap.String("batch_id", result.BatchID),
				zap.Int("chunks", result.Chunks),
				zap.Int("listens", result.Listens))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().BoolVar(&submitPretend, "pretend", false, "log what would be submitted without calling the API")
}
