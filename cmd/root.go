// Package cmd provides the command-line interface for xslate with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --log-level, etc.) - highest priority
//	2. XSLATE_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (XSLATE_LOG_LEVEL, etc.)
//	4. Configuration files (.xslate.yml) - lowest priority
//
// Environment Variables:
//
//	XSLATE_CONFIG_FILE: Path to custom configuration file
//	XSLATE_LOG_LEVEL: Override log level
//	XSLATE_OUTPUT_METHOD: Override the output method of every stylesheet
//	XSLATE_OUTPUT_SANITIZE_RAW: Sanitize unescaped text
//	And the rest following the XSLATE_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/xslate/internal/config"
	"github.com/conneroisu/xslate/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xslate",
	Short: "Compile and run XSLT-style stylesheets",
	Long: `xslate compiles stylesheets built from xsl: instructions into instruction
trees and runs them against an output context.

Compilation validates every element against its content model and coerces
its attributes, so a stylesheet that compiles cannot fail on structure at
run time.

Quick Start:
  xslate transform page.xsl         Render a stylesheet to stdout
  xslate validate                   Check every stylesheet in the project
  xslate events page.xsl            Show the raw output events
  xslate list                       List the known instructions
  xslate watch                      Recompile stylesheets as they change

Command Aliases (for faster typing):
  transform (t), validate (v), list (l), watch (w)`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .xslate.yml, can also use XSLATE_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
}

// initConfig initializes the configuration system with support for multiple config sources.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. XSLATE_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .xslate.yml in current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("XSLATE_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".xslate")
	}

	config.ConfigureEnv()
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	// A missing or unreadable file leaves the defaults in place.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig loads the configuration and builds the logger it describes.
func loadConfig(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	lc := cfg.LoggerConfig()
	lc.Output = cmd.ErrOrStderr()
	return cfg, logging.NewLogger(lc).WithComponent("cli"), nil
}
