package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Response is the success envelope for JSON output.
type Response struct {
	OK      bool   `json:"ok"`
	Data    any    `json:"data,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// ErrorResponse is the error envelope for JSON output.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Code  string `json:"code"`
	Hint  string `json:"hint,omitempty"`
}

// Format specifies the output format.
type Format int

const (
	FormatJSON  Format = iota // Envelope JSON (default)
	FormatQuiet               // Data only, no envelope
)

// Options controls output behavior.
type Options struct {
	Format    Format
	Writer    io.Writer // success output, defaults to os.Stdout
	ErrWriter io.Writer // error output, defaults to os.Stderr
}

// Writer handles all output formatting.
type Writer struct {
	opts Options
}

// New creates a new output writer.
func New(opts Options) *Writer {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.ErrWriter == nil {
		opts.ErrWriter = os.Stderr
	}
	return &Writer{opts: opts}
}

// ResponseOption customizes a success response.
type ResponseOption func(*Response)

// WithSummary attaches a one-line summary to the response.
func WithSummary(format string, args ...any) ResponseOption {
	return func(r *Response) {
		r.Summary = fmt.Sprintf(format, args...)
	}
}

// OK outputs a success response.
func (w *Writer) OK(data any, opts ...ResponseOption) error {
	resp := &Response{OK: true, Data: data}
	for _, opt := range opts {
		opt(resp)
	}
	if w.opts.Format == FormatQuiet {
		return w.writeJSON(data)
	}
	return w.writeJSON(resp)
}

// Err outputs an error response and returns the matching exit code.
func (w *Writer) Err(err error) int {
	e := AsError(err)
	resp := &ErrorResponse{
		OK:    false,
		Error: e.Message,
		Code:  e.Code,
		Hint:  e.Hint,
	}
	if w.opts.Format == FormatQuiet {
		fmt.Fprintf(w.opts.ErrWriter, "error: %s\n", e.Error())
	} else {
		enc := json.NewEncoder(w.opts.ErrWriter)
		enc.SetIndent("", "  ")
		_ = enc.Encode(resp)
	}
	return e.ExitCode()
}

func (w *Writer) writeJSON(v any) error {
	enc := json.NewEncoder(w.opts.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
