package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// StandardFlags provides consistent flag definitions across commands
type StandardFlags struct {
	// Output flags
	Format  string `flag:"format,f" desc:"Output format" default:"text"`
	Verbose bool   `flag:"verbose,v" desc:"Enable verbose output" default:"false"`
	Quiet   bool   `flag:"quiet,q" desc:"Suppress output" default:"false"`

	// Run flags
	Method   string `flag:"method" desc:"Override the output method (xml|html|text)" default:""`
	Sanitize bool   `flag:"sanitize" desc:"Sanitize unescaped text" default:"false"`

	formats []string
}

// AddStandardFlags adds standard flags to a command
func AddStandardFlags(cmd *cobra.Command, flagTypes ...string) *StandardFlags {
	flags := &StandardFlags{}

	for _, flagType := range flagTypes {
		switch flagType {
		case "output":
			addOutputFlags(cmd, flags)
		case "run":
			addRunFlags(cmd, flags)
		}
	}

	return flags
}

func addOutputFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.Format, "format", "f", "text", "Output format")
	cmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose output")
	cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress output")
}

func addRunFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVar(&flags.Method, "method", "", "Override the output method (xml|html|text)")
	cmd.Flags().BoolVar(&flags.Sanitize, "sanitize", false, "Sanitize unescaped text")
}

// WithFormats restricts --format to the given values. The first one becomes
// the default.
func (f *StandardFlags) WithFormats(cmd *cobra.Command, formats ...string) *StandardFlags {
	f.formats = formats
	if flag := cmd.Flags().Lookup("format"); flag != nil && len(formats) > 0 {
		f.Format = formats[0]
		flag.DefValue = formats[0]
		flag.Usage = fmt.Sprintf("Output format (%s)", strings.Join(formats, "|"))
	}
	AddFlagValidation(cmd, "format", func(format string) error {
		return ValidateFormatWithSuggestion(format, formats)
	})
	return f
}

// ValidateFlags validates flag combinations and values
func (f *StandardFlags) ValidateFlags() error {
	if len(f.formats) > 0 {
		if err := ValidateFormatWithSuggestion(f.Format, f.formats); err != nil {
			return err
		}
	}

	// Quiet and verbose are mutually exclusive
	if f.Quiet && f.Verbose {
		return fmt.Errorf("cannot specify both --quiet and --verbose")
	}

	return nil
}

// ValidateFormatWithSuggestion rejects an unknown format and names the
// closest supported one.
func ValidateFormatWithSuggestion(format string, valid []string) error {
	format = strings.ToLower(format)
	for _, v := range valid {
		if format == v {
			return nil
		}
	}

	msg := fmt.Sprintf("invalid format %q, must be one of: %s", format, strings.Join(valid, ", "))
	for _, v := range valid {
		if format != "" && (strings.HasPrefix(v, format) || strings.HasPrefix(format, v)) {
			return fmt.Errorf("%s (did you mean %q?)", msg, v)
		}
	}
	return fmt.Errorf("%s", msg)
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	// Store original value setter
	originalSet := flag.Value.Set

	// Create wrapper that validates
	flag.Value = &validatingValue{
		Value:       flag.Value,
		validator:   validator,
		originalSet: originalSet,
	}
}

type validatingValue struct {
	pflag.Value
	validator   func(string) error
	originalSet func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.originalSet(val)
}
