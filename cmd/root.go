package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/malt3/swap-tool/pkg/swaps"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var logger = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "swap-tool",
	Short: "swap-tool inspects the active swap areas of the running system",
	Long: `A simple CLI tool for listing active swap areas and checking
				  whether a device or file is in use as swap before it is
				  formatted, overwritten or detached.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().String("swaps-file", swaps.ProcSwaps, "path to the swap listing")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (error, warn, info, debug, trace)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	viper.SetEnvPrefix("swap_tool")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(fmt.Sprintf("binding flags: %v", err))
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	level, err := logrus.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	logger.SetLevel(level)
	logger.SetOutput(cmd.ErrOrStderr())
	if viper.GetBool("no-color") {
		color.NoColor = true
	}
	return nil
}

func loadSwaps() (*swaps.Table, error) {
	path := viper.GetString("swaps-file")
	table, err := swaps.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading swap table: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"source":  path,
		"entries": table.Len(),
	}).Debug("loaded swap table")
	return table, nil
}
