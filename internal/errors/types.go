package errors

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeContentModel ErrorType = "content_model"
	ErrorTypeAttribute    ErrorType = "attribute"
	ErrorTypeRuntime      ErrorType = "runtime"
	ErrorTypeSource       ErrorType = "source"
	ErrorTypeIO           ErrorType = "io"
	ErrorTypeConfig       ErrorType = "config"
	ErrorTypeInternal     ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeChildMismatch      = "ERR_CHILD_MISMATCH"
	ErrCodeMissingChildren    = "ERR_MISSING_CHILDREN"
	ErrCodeUnknownInstruction = "ERR_UNKNOWN_INSTRUCTION"
	ErrCodeMisplaced          = "ERR_MISPLACED_INSTRUCTION"
	ErrCodeAttributeRequired  = "ERR_ATTRIBUTE_REQUIRED"
	ErrCodeAttributeInvalid   = "ERR_ATTRIBUTE_INVALID"
	ErrCodeAttributeUnknown   = "ERR_ATTRIBUTE_UNKNOWN"
	ErrCodeTemplateNotFound   = "ERR_TEMPLATE_NOT_FOUND"
	ErrCodeDuplicateTemplate  = "ERR_DUPLICATE_TEMPLATE"
	ErrCodeNoEntryTemplate    = "ERR_NO_ENTRY_TEMPLATE"
	ErrCodeMessageTerminate   = "ERR_MESSAGE_TERMINATE"
	ErrCodeRecursionLimit     = "ERR_RECURSION_LIMIT"
	ErrCodeMalformedSource    = "ERR_MALFORMED_SOURCE"
	ErrCodeFileNotFound       = "ERR_FILE_NOT_FOUND"
	ErrCodeWriteFailed        = "ERR_WRITE_FAILED"
	ErrCodeConfigInvalid      = "ERR_CONFIG_INVALID"
	ErrCodeInternalError      = "ERR_INTERNAL"
)

// XslateError is a structured error type with context.
type XslateError struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	Context map[string]interface{}
	// Instruction is the qualified name of the instruction that failed.
	Instruction string
	FilePath    string
	Line        int
	Column      int
}

// Error implements the error interface.
func (e *XslateError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.FilePath != "" || e.Line > 0 {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
			if e.Column > 0 {
				location += fmt.Sprintf(":%d", e.Column)
			}
		}
		parts = append(parts, location)
	}

	if e.Instruction != "" {
		parts = append(parts, e.Instruction+":")
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *XslateError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *XslateError) Is(target error) bool {
	var t *XslateError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *XslateError) WithContext(key string, value interface{}) *XslateError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation adds file location information.
func (e *XslateError) WithLocation(filePath string, line, column int) *XslateError {
	e.FilePath = filePath
	e.Line = line
	e.Column = column

	return e
}

// WithInstruction records the instruction the error belongs to.
func (e *XslateError) WithInstruction(name string) *XslateError {
	e.Instruction = name

	return e
}

// Fields flattens the error into key/value pairs for structured logging.
func (e *XslateError) Fields() []interface{} {
	fields := []interface{}{"type", string(e.Type), "code", e.Code}
	if e.Instruction != "" {
		fields = append(fields, "instruction", e.Instruction)
	}
	if e.FilePath != "" {
		fields = append(fields, "file", e.FilePath)
	}
	if e.Line > 0 {
		fields = append(fields, "line", e.Line, "column", e.Column)
	}

	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, k, e.Context[k])
	}
	return fields
}

// Error creation functions

// NewContentModelError creates an error for children that violate a content
// model. position is the index of the offending child.
func NewContentModelError(code, message string, position int) *XslateError {
	return (&XslateError{
		Type:    ErrorTypeContentModel,
		Code:    code,
		Message: message,
	}).WithContext("position", position)
}

// NewAttributeError creates an error for an attribute that failed coercion.
func NewAttributeError(code, attribute, value, message string) *XslateError {
	return (&XslateError{
		Type:    ErrorTypeAttribute,
		Code:    code,
		Message: message,
	}).WithContext("attribute", attribute).WithContext("value", value)
}

// NewRuntimeError creates an instantiate-phase error.
func NewRuntimeError(code, message string) *XslateError {
	return &XslateError{
		Type:    ErrorTypeRuntime,
		Code:    code,
		Message: message,
	}
}

// NewSourceError creates an error for unreadable or malformed template source.
func NewSourceError(code, message string, cause error) *XslateError {
	return &XslateError{
		Type:    ErrorTypeSource,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *XslateError {
	return &XslateError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *XslateError {
	return &XslateError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *XslateError {
	return &XslateError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func isType(err error, t ErrorType) bool {
	var xe *XslateError
	if errors.As(err, &xe) {
		return xe.Type == t
	}

	return false
}

// IsContentModelError checks if an error reports a content model violation.
func IsContentModelError(err error) bool {
	return isType(err, ErrorTypeContentModel)
}

// IsAttributeError checks if an error reports an attribute coercion failure.
func IsAttributeError(err error) bool {
	return isType(err, ErrorTypeAttribute)
}

// IsRuntimeError checks if an error was raised while instantiating.
func IsRuntimeError(err error) bool {
	return isType(err, ErrorTypeRuntime)
}

// IsSetupError reports whether err was detected before execution began.
func IsSetupError(err error) bool {
	return IsContentModelError(err) || IsAttributeError(err) || isType(err, ErrorTypeSource)
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs an error at a level matching its category.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var xe *XslateError
	if !errors.As(err, &xe) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	switch xe.Type {
	case ErrorTypeContentModel, ErrorTypeAttribute, ErrorTypeSource:
		h.logger.Warn(ctx, err, "Template compilation failed", xe.Fields()...)
	case ErrorTypeRuntime:
		h.logger.Error(ctx, err, "Transformation failed", xe.Fields()...)
	default:
		h.logger.Error(ctx, err, "Error occurred", xe.Fields()...)
	}
}
