// Package main is the studymap command line: it builds mind maps from
// classified concepts without running the server or the worker.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/OFFIS-RIT/studymap/internal/util"
	"github.com/OFFIS-RIT/studymap/pkg/logger"
	"github.com/OFFIS-RIT/studymap/pkg/logger/console"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "studymap",
	Short: "Build cognitive-load bounded mind maps from classified concepts",
	Long: `studymap turns core ideas, supporting ideas, examples and relationships into
a single-rooted concept tree. Near-duplicate phrases are merged using an
embedding provider and every node keeps at most as many children as the
chosen complexity allows.

Settings are read from flags, from studymap.yaml (current directory or
~/.config/studymap) and from STUDYMAP_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		util.LoadEnv()
		logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
			Debug:  viper.GetBool("debug"),
			Output: os.Stderr,
		}))
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./studymap.yaml or ~/.config/studymap/studymap.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "log engine stages to stderr")
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("studymap")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "studymap"))
		}
	}

	viper.SetEnvPrefix("STUDYMAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
