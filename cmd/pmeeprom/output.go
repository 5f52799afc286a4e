package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/moffa90/go-pmeeprom/eeprom"
)

// console prints the "done:" and "fail:" status lines. The styles degrade
// to plain text when w is not a terminal.
type console struct {
	mu   sync.Mutex
	w    io.Writer
	done lipgloss.Style
	fail lipgloss.Style

	// interactive enables the in-place progress line
	interactive bool
	progressing bool
}

func newConsole(w io.Writer) *console {
	r := lipgloss.NewRenderer(w)
	return &console{
		w:           w,
		done:        r.NewStyle().Foreground(lipgloss.Color("2")),
		fail:        r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		interactive: isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Done prints a success line.
func (c *console) Done(format string, args ...any) {
	c.println(c.done.Render("done:"), format, args...)
}

// Fail prints a failure line.
func (c *console) Fail(format string, args ...any) {
	c.println(c.fail.Render("fail:"), format, args...)
}

func (c *console) println(prefix, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.endProgress()
	fmt.Fprintf(c.w, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}

// Progress returns the batch progress callback. Nothing is drawn unless the
// console is a terminal.
func (c *console) Progress(end uint16) eeprom.ProgressCallback {
	return func(p eeprom.Progress) {
		if !c.interactive {
			return
		}
		c.mu.Lock()
		defer c.mu.Unlock()

		fmt.Fprintf(c.w, "\r%s [%d/%d] %5.1f%%... ", progressVerb(p.Operation), p.Address, end, p.Percentage)
		c.progressing = true
	}
}

// endProgress moves past an active progress line. Called with c.mu held.
func (c *console) endProgress() {
	if c.progressing {
		fmt.Fprintln(c.w)
		c.progressing = false
	}
}

func progressVerb(op eeprom.Operation) string {
	switch op {
	case eeprom.OpRead:
		return "reading"
	case eeprom.OpWrite:
		return "writing"
	case eeprom.OpVerify:
		return "verifying"
	default:
		return op.String()
	}
}
