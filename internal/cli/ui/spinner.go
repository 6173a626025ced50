package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// StepSpinner shows progress for a gateway call. On a TTY it animates a
// braille spinner; otherwise it prints static text. A nil writer makes
// every method a no-op so machine-readable output stays clean.
type StepSpinner struct {
	w      io.Writer
	s      *spinner.Spinner
	msg    string
	active bool
	noSpin bool
}

// NewStepSpinner creates a spinner that writes to w.
// Set noSpin=true for non-interactive environments.
func NewStepSpinner(w io.Writer, noSpin bool) *StepSpinner {
	return &StepSpinner{w: w, noSpin: noSpin}
}

// Start begins a named step.
func (ss *StepSpinner) Start(msg string) {
	if ss.w == nil {
		return
	}
	ss.msg = msg
	if ss.noSpin {
		fmt.Fprintf(ss.w, "  %s", msg)
		return
	}
	ss.s = spinner.New(
		spinner.CharSets[14], // ⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏
		80*time.Millisecond,
		spinner.WithWriter(ss.w),
	)
	ss.s.Prefix = "  "
	ss.s.Suffix = " " + msg
	ss.s.FinalMSG = ""
	ss.s.Start()
	ss.active = true
}

// Done completes the step with a green check and an optional detail.
func (ss *StepSpinner) Done(detail string) {
	ss.finish(StyleSuccess.Render(SymbolCheck), detail)
}

// Warn completes the step with a yellow warning, used for partial success.
func (ss *StepSpinner) Warn(detail string) {
	ss.finish(StyleWarning.Render(SymbolWarning), detail)
}

// Fail completes the step with a red cross.
func (ss *StepSpinner) Fail() {
	ss.finish(StyleError.Render(SymbolCross), "")
}

// Stop halts the spinner without printing a status.
func (ss *StepSpinner) Stop() {
	if ss.s != nil && ss.active {
		ss.s.Stop()
		ss.active = false
	}
}

func (ss *StepSpinner) finish(symbol, detail string) {
	if ss.w == nil {
		return
	}
	if detail != "" {
		detail = " " + StyleDim.Render(detail)
	}
	if ss.noSpin {
		fmt.Fprintf(ss.w, " %s%s\n", symbol, detail)
		return
	}
	ss.Stop()
	fmt.Fprintf(ss.w, "\r  %s %s%s\n", ss.msg, symbol, detail)
}
