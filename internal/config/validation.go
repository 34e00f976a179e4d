package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/conneroisu/xslate/internal/logging"
	"github.com/conneroisu/xslate/internal/output"
	"github.com/conneroisu/xslate/internal/validation"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	write := func(title string, issues []ValidationError) {
		if len(issues) == 0 {
			return
		}
		builder.WriteString(title + ":\n")
		for _, issue := range issues {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", issue.Field, issue.Message))
			for _, suggestion := range issue.Suggestions {
				builder.WriteString(fmt.Sprintf("    hint: %s\n", suggestion))
			}
		}
	}

	write("Validation errors", vr.Errors)
	write("Validation warnings", vr.Warnings)

	return builder.String()
}

// ValidateConfigWithDetails performs validation with detailed feedback.
// Unlike Load it does not stop at the first problem and also reports
// settings that are valid but probably unintended.
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateLogConfigDetails(&config.Log, result)
	validateOutputConfigDetails(&config.Output, result)
	validateWatchConfigDetails(&config.Watch, result)

	result.Valid = !result.HasErrors()

	return result
}

func validateLogConfigDetails(config *LogConfig, result *ValidationResult) {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "log.level",
			Value:       config.Level,
			Message:     err.Error(),
			Suggestions: []string{"Use one of debug, info, warn, error"},
		})
	}

	if config.Format != "text" && config.Format != "json" {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "log.format",
			Value:       config.Format,
			Message:     fmt.Sprintf("unknown format %q", config.Format),
			Suggestions: []string{"Use text for terminals and json for log collectors"},
		})
	}
}

func validateOutputConfigDetails(config *OutputConfig, result *ValidationResult) {
	if config.Method != "" {
		if _, err := output.ParseMethod(config.Method); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:       "output.method",
				Value:       config.Method,
				Message:     err.Error(),
				Suggestions: []string{"Use xml, html or text, or leave empty to follow xsl:output"},
			})
		}
	}

	if config.SanitizeRaw && config.Method == string(output.MethodText) {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:       "output.sanitize_raw",
			Value:       config.SanitizeRaw,
			Message:     "sanitizing raw markup has no purpose with the text method",
			Suggestions: []string{"Disable sanitize_raw or use the html method"},
		})
	}
}

func validateWatchConfigDetails(config *WatchConfig, result *ValidationResult) {
	if config.Debounce < 0 || config.Debounce > MaxDebounce {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "watch.debounce",
			Value:       config.Debounce,
			Message:     fmt.Sprintf("debounce %s is not in valid range 0-%s", config.Debounce, MaxDebounce),
			Suggestions: []string{"A few hundred milliseconds is usually enough, e.g. 300ms"},
		})
	}

	if len(config.Paths) == 0 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:       "watch.paths",
			Message:     "no watch paths configured; the current directory will be watched",
			Suggestions: []string{"Add the directories that hold your stylesheets"},
		})
	}

	for _, path := range config.Paths {
		if err := validation.ValidatePath(path); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:       "watch.paths",
				Value:       path,
				Message:     err.Error(),
				Suggestions: []string{"Use relative paths inside the project"},
			})
			continue
		}
		if !pathExists(path) {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:       "watch.paths",
				Value:       path,
				Message:     fmt.Sprintf("watch path %q does not exist", path),
				Suggestions: []string{"Create the directory or remove it from watch.paths"},
			})
		}
	}

	for _, ext := range config.Extensions {
		if err := validation.ValidateExtension(ext); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:       "watch.extensions",
				Value:       ext,
				Message:     err.Error(),
				Suggestions: []string{fmt.Sprintf("Use .%s", strings.Trim(ext, "."))},
			})
		}
	}
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
