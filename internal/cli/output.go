package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // example played and its result succeeded
	ExitFailure      = 1 // example played but its result failed or was interrupted
	ExitCommandError = 2 // bad arguments, unknown example, unreadable config
)

// ExitError carries the exit code a command wants the process to end with.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Errors that are not an ExitError map to ExitCommandError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// Response is the envelope of json and yaml output.
type Response struct {
	Status string      `json:"status" yaml:"status"`
	Data   interface{} `json:"data,omitempty" yaml:"data,omitempty"`
	Error  string      `json:"error,omitempty" yaml:"error,omitempty"`
}

// OutputFormatter writes command results as text, json or yaml.
// Its methods are safe for concurrent use, so renderers running on several
// goroutines can share one formatter.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool

	mu sync.Mutex
}

// Success writes data. Text output uses the value's String form.
func (f *OutputFormatter) Success(data interface{}) error {
	return f.write("ok", data, "")
}

// Failure writes data together with the failure message.
func (f *OutputFormatter) Failure(data interface{}, message string) error {
	return f.write("error", data, message)
}

func (f *OutputFormatter) write(status string, data interface{}, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	resp := Response{Status: status, Data: data, Error: message}
	switch f.Format {
	case "json":
		return json.NewEncoder(f.Writer).Encode(resp)
	case "yaml":
		enc := yaml.NewEncoder(f.Writer)
		defer enc.Close()
		return enc.Encode(resp)
	default:
		if data != nil {
			fmt.Fprintln(f.Writer, data)
		}
		if message != "" {
			fmt.Fprintf(f.Writer, "Error: %s\n", message)
		}
		return nil
	}
}

// Live writes a progress line in text mode. Structured formats only carry the
// final result, so live lines are dropped there.
func (f *OutputFormatter) Live(format string, args ...interface{}) {
	if f.Format != "text" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprintf(f.Writer, format+"\n", args...)
}

// VerboseLog writes a diagnostic line to ErrWriter when verbose.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprintf(f.errWriter(), format+"\n", args...)
}

// Notice writes a line to ErrWriter regardless of format and verbosity.
func (f *OutputFormatter) Notice(format string, args ...interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprintf(f.errWriter(), format+"\n", args...)
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
