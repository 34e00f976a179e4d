package errors

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Diagnostic is a compile problem reported against one stylesheet file.
type Diagnostic struct {
	File        string        `json:"file" yaml:"file"`
	Instruction string        `json:"instruction,omitempty" yaml:"instruction,omitempty"`
	Line        int           `json:"line" yaml:"line"`
	Column      int           `json:"column" yaml:"column"`
	Message     string        `json:"message" yaml:"message"`
	Severity    ErrorSeverity `json:"severity" yaml:"severity"`
	Timestamp   time.Time     `json:"-" yaml:"-"`
}

// ErrorSeverity represents the severity of an error
type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
	ErrorSeverityFatal
)

// String returns the string representation of the severity
func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	case ErrorSeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// MarshalText renders the severity by name.
func (s ErrorSeverity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Error implements the error interface
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Line, d.Column, d.Severity, d.Message)
}

// DiagnosticFrom converts err into a diagnostic for file. Structured errors
// keep their location; anything else is reported at line zero.
func DiagnosticFrom(file string, err error) Diagnostic {
	d := Diagnostic{
		File:     file,
		Message:  err.Error(),
		Severity: ErrorSeverityError,
	}

	var xe *XslateError
	if errors.As(err, &xe) {
		d.Instruction = xe.Instruction
		d.Line = xe.Line
		d.Column = xe.Column
		d.Message = xe.Message
		if xe.FilePath != "" {
			d.File = xe.FilePath
		}
		if xe.Type == ErrorTypeIO || xe.Type == ErrorTypeInternal {
			d.Severity = ErrorSeverityFatal
		}
	}
	return d
}

// Collector collects diagnostics from concurrent compilations.
type Collector struct {
	diagnostics []Diagnostic
	mutex       sync.RWMutex
}

// NewCollector creates a new collector
func NewCollector() *Collector {
	return &Collector{
		diagnostics: make([]Diagnostic, 0),
	}
}

// Add adds a diagnostic to the collector
func (c *Collector) Add(d Diagnostic) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now()
	}
	c.diagnostics = append(c.diagnostics, d)
}

// AddError records err against file. Nil errors are ignored.
func (c *Collector) AddError(file string, err error) {
	if err == nil {
		return
	}
	c.Add(DiagnosticFrom(file, err))
}

// Diagnostics returns the collected diagnostics ordered by file and line.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make([]Diagnostic, len(c.diagnostics))
	copy(result, c.diagnostics)
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].File != result[j].File {
			return result[i].File < result[j].File
		}
		return result[i].Line < result[j].Line
	})
	return result
}

// HasErrors returns true if any diagnostic is an error or worse
func (c *Collector) HasErrors() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	for _, d := range c.diagnostics {
		if d.Severity >= ErrorSeverityError {
			return true
		}
	}
	return false
}

// ByFile returns diagnostics for a specific file
func (c *Collector) ByFile(file string) []Diagnostic {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	var out []Diagnostic
	for _, d := range c.diagnostics {
		if d.File == file {
			out = append(out, d)
		}
	}
	return out
}

// Clear clears all diagnostics
func (c *Collector) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.diagnostics = c.diagnostics[:0]
}
