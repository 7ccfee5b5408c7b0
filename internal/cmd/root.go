// Package cmd wires the rewind CLI: parsing Apple Music exports,
// resolving artists, submitting listens, and serving the cache API.
package cmd

import (
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/amrewind/rewind/internal/config"
	"github.com/amrewind/rewind/internal/observability"
)

var (
	cfgFile string
	verbose bool

	// Version info set by main package.
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by the main package to set version
// information.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "rewind",
	Short: "Apple Music listening history toolkit",
	Long: `rewind parses Apple Music privacy-export CSVs, resolves album
artists through Last.fm and iTunes behind a rate-limited session, and
submits the resulting history to ListenBrainz.

Use the subcommands to perform specific operations.`,
}

// Execute runs the root command. Called once from main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/rewind/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig initializes logging and loads the layered configuration.
func initConfig() {
	observability.InitCLILogger("rewind", verbose)

	if _, err := config.Load(cfgFile); err != nil {
		ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Failed to load configuration", err)
	}
}
