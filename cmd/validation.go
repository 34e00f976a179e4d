package cmd

import (
	"fmt"

	"github.com/conneroisu/xslate/internal/config"
	"github.com/conneroisu/xslate/internal/engine"
	"github.com/conneroisu/xslate/internal/logging"
	"github.com/conneroisu/xslate/internal/output"
	"github.com/conneroisu/xslate/internal/validation"
)

// validateArgument validates a stylesheet path given on the command line
func validateArgument(arg string) error {
	return validation.ValidatePath(arg)
}

// validateArguments validates a slice of arguments
func validateArguments(args []string) error {
	for _, arg := range args {
		if err := validateArgument(arg); err != nil {
			return fmt.Errorf("invalid argument '%s': %w", arg, err)
		}
	}
	return nil
}

// engineOptions merges configuration and run flags. Flags win.
func engineOptions(cfg *config.Config, flags *StandardFlags, logger logging.Logger) ([]engine.Option, error) {
	method := cfg.OutputMethod()
	sanitize := cfg.Output.SanitizeRaw
	if flags != nil {
		if flags.Method != "" {
			m, err := output.ParseMethod(flags.Method)
			if err != nil {
				return nil, err
			}
			method = m
		}
		sanitize = sanitize || flags.Sanitize
	}

	return []engine.Option{
		engine.WithLogger(logger),
		engine.WithMethod(method),
		engine.WithSanitizeRaw(sanitize),
	}, nil
}
