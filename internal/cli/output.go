package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// Response is the JSON envelope of every command.
type Response struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error payload of a Response.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrCodeConfig  = "E_CONFIG"
	ErrCodeFetch   = "E_FETCH"
	ErrCodeCompose = "E_COMPOSE"
	ErrCodeRender  = "E_RENDER"
)

// OutputFormatter writes command results as text or JSON.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

func (f *OutputFormatter) json() bool {
	return f.Format == "json"
}

// Success writes data. In text mode data is written with its String method
// or fmt's default format.
func (f *OutputFormatter) Success(data any) error {
	if f.json() {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Fail writes an error payload and returns err wrapped with code, so the
// command still exits non-zero.
func (f *OutputFormatter) Fail(code string, err error) error {
	if f.json() {
		if encErr := json.NewEncoder(f.Writer).Encode(Response{
			Status: "error",
			Error:  &CLIError{Code: code, Message: err.Error()},
		}); encErr != nil {
			return encErr
		}
	}
	return fmt.Errorf("%s: %w", code, err)
}
