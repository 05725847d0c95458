package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "varpipe",
		Short:         "Clinical genomics variant pipeline",
		Long:          "varpipe parses, annotates, filters and reports genetic variants from VCF files.",
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newParseCmd())
	cmd.AddCommand(newAnnotateCmd())
	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// initConfig wires up viper: ~/.varpipe.yaml plus VARPIPE_* env vars.
func initConfig() error {
	viper.SetConfigName(".varpipe")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("VARPIPE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("assembly", "GRCh38")
	viper.SetDefault("thresholds.max_af_dominant", 0.0001)
	viper.SetDefault("thresholds.max_af_recessive", 0.01)
	viper.SetDefault("thresholds.max_af_general", 0.01)
	viper.SetDefault("thresholds.max_af_gnomad", 0.01)
	viper.SetDefault("thresholds.max_af_gnomad_popmax", 0.01)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// newLogger builds the process logger. Debug level and console
// encoding when verbose, JSON to stderr otherwise.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func loggerFor(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return newLogger(verbose)
}
