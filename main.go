package main

import (
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openballot/guardian/cmds/verify"
	"github.com/openballot/guardian/guardian"
)

func preamble(cmd *cobra.Command, args []string) {
	// preamble dump some info
	log.Info().
		Str("version", guardian.Version).
		Str("schema", guardian.RecordSchemaVersion).
		Msg("Guardian Election Record Verifier")

	commit := guardian.Commit
	if len(commit) > 8 {
		commit = commit[0:8]
	}
	log.Debug().
		Str("commit", commit).
		Str("built", guardian.BuildDate).
		Str("arch", runtime.GOARCH).
		Str("os", runtime.GOOS).
		Msg("Build Info")
}

const timeFormatMs = "2006-01-02T15:04:05.000Z07:00"
const timeFormatLocal = "2006-01-02 15:04:05.000"

func main() {
	// configure the logger.
	// remember pretty logs are only good on the console
	// logs go to stderr, keeping stdout clean for the JSON report
	zerolog.TimeFieldFormat = timeFormatMs
	log.Logger = log.Output(zerolog.NewConsoleWriter(func(cw *zerolog.ConsoleWriter) {
		cw.Out = os.Stderr
		cw.TimeFormat = timeFormatLocal
		cw.NoColor = true
	}))

	// initialise the cobra framework for the command.
	var rootCmd = &cobra.Command{
		Use:              "guardian",
		Short:            "Guardian Election Record Verifier",
		Version:          guardian.Version,
		PersistentPreRun: preamble,
	}

	if os.Getenv("DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	verify.Register(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Err(err).Msg("An Error Occured")
		os.Exit(1)
	}
}
