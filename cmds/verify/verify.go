package verify

import (
	"context"
	"encoding/json"
	"os"

	"github.com/cheggaaa/pb/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openballot/guardian/guardian"
)

// Register the record verification command
func Register(rootCmd *cobra.Command) {
	var recordPath string
	var jobs int
	var progress bool
	var reportDB string

	var cmd = &cobra.Command{
		Use:   "verify",
		Short: "Verify an election record",
		Long:  "Load a published election record and check every proof, hash and decryption in it",
		Run: func(cmd *cobra.Command, args []string) {
			log.Info().Str("record", recordPath).Msg("Starting Record Verification")

			rec, err := guardian.Load(recordPath)
			if err != nil {
				log.Fatal().Err(err).Msg("Could not load the election record")
			}

			opts := []guardian.Option{}
			if jobs > 0 {
				opts = append(opts, guardian.WithJobs(jobs))
			}
			var bar *pb.ProgressBar
			if progress {
				// one tick per ballot, cast or spoiled
				bar = pb.New(len(rec.CastBallots) + len(rec.SpoiledBallots)).Start()
				opts = append(opts, guardian.WithProgress(func() { bar.Increment() }))
			}

			rep := guardian.New(rec, opts...).Verify(context.Background())
			if bar != nil {
				bar.Finish()
			}

			if reportDB != "" {
				store, err := guardian.NewReportStore(reportDB)
				if err != nil {
					log.Fatal().Err(err).Msg("Could not open the report database")
				}
				defer store.Close()
				id, err := store.Save(recordPath, rep)
				if err != nil {
					log.Fatal().Err(err).Msg("Could not persist the report")
				}
				log.Info().Int64("run", id).Str("db", reportDB).Msg("Report persisted")
			}

			// output to stdout as JSON
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			enc.Encode(rep)

			if !rep.Valid {
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVar(&recordPath, "record", "", "The path to the election record JSON file")
	cmd.Flags().IntVar(&jobs, "jobs", 0, "Number of parallel verification workers (0 = number of CPUs)")
	cmd.Flags().BoolVar(&progress, "progress", false, "Show a per-ballot progress bar")
	cmd.Flags().StringVar(&reportDB, "report-db", "", "Optional SQLite database path to persist the report into")
	cmd.MarkFlagRequired("record")

	rootCmd.AddCommand(cmd)
}
