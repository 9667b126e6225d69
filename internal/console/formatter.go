// Package console renders user-facing progress. Diagnostics for operators go
// through zap instead.
package console

import "fmt"

// Formatter styles short console fragments.
type Formatter interface {
	Emphasize(s string) string
	Warn(s string) string
	OK(s string) string
	Fail(s string) string
}

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
)

// ANSI colors output for terminals.
type ANSI struct{}

func (ANSI) Emphasize(s string) string { return wrap(ansiBold, s) }
func (ANSI) Warn(s string) string      { return wrap(ansiYellow, s) }
func (ANSI) OK(s string) string        { return wrap(ansiGreen, s) }
func (ANSI) Fail(s string) string      { return wrap(ansiRed, s) }

func wrap(code, s string) string {
	return fmt.Sprintf("%s%s%s", code, s, ansiReset)
}

// Plain leaves text untouched, for files, pipes and tests.
type Plain struct{}

func (Plain) Emphasize(s string) string { return s }
func (Plain) Warn(s string) string      { return s }
func (Plain) OK(s string) string        { return s }
func (Plain) Fail(s string) string      { return s }

// New picks a formatter.
func New(color bool) Formatter {
	if color {
		return ANSI{}
	}
	return Plain{}
}
