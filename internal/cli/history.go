package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/samvad-api-client/internal/storage"
)

func newHistoryCmd(env Env) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent captured exchanges",
		Long: `List the most recent exchanges kept in the capture history, newest first.
Requires storage_type=bbolt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := env.Config
			store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
				RecordTTL:       cfg.StorageTTL,
				CleanupInterval: cfg.StorageCleanupInterval,
			})
			if err != nil {
				return fmt.Errorf("open capture history: %w", err)
			}
			defer store.Close()

			recs, err := store.Recent(limit)
			if err != nil {
				return fmt.Errorf("read capture history: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				fmt.Fprintln(out, "no captures")
				return nil
			}
			for _, rec := range recs {
				fmt.Fprintf(out, "%s  %s  %-7s %3d  %s  %s\n",
					rec.ID,
					rec.CapturedAt.Local().Format(time.DateTime),
					rec.Method,
					rec.StatusCode,
					outcomePrinter(rec.Outcome).Sprint(rec.Outcome),
					rec.URL,
				)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of captures to show")
	return cmd
}
