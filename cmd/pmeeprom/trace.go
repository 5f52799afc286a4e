package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-pmeeprom/tracelog"
)

func (a *app) traceCommand() *cobra.Command {
	var (
		session  string
		category string
	)

	cmd := &cobra.Command{
		Use:   "trace <file>",
		Short: "Print a protocol trace file",
		Long: `Print the events of a CBOR protocol trace, as written with --trace, one
line per event.`,
		Example: `  pmeeprom trace session.ptrace
  pmeeprom trace session.ptrace --category frame`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := tracelog.Filter{SessionID: session}
			if category != "" {
				c, err := parseCategory(category)
				if err != nil {
					return exitWith(exitParse, "%w", err)
				}
				filter.Category = &c
			}

			r, err := tracelog.NewFilteredReader(args[0], filter)
			if err != nil {
				return exitWith(exitFile, "unable to read file: %w", err)
			}
			defer func() { _ = r.Close() }()

			return printTrace(cmd.OutOrStdout(), r)
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "only show events of this session ID")
	cmd.Flags().StringVar(&category, "category", "", "only show events of this category: frame, state or error")
	return cmd
}

// traceTime is the timestamp layout of formatEvent.
const traceTime = "15:04:05.000"

func printTrace(w io.Writer, r *tracelog.Reader) error {
	for {
		event, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return exitWith(exitFile, "decode trace: %w", err)
		}
		fmt.Fprintln(w, formatEvent(event))
	}
}

// formatEvent renders one event, for example
//
//	12:00:01.250 1f0c2a9e OUT   82 00 0A B1 00 72 00 05 10 00 (resend 1)
func formatEvent(e tracelog.Event) string {
	var sb strings.Builder
	sb.WriteString(e.Timestamp.Local().Format(traceTime))
	sb.WriteByte(' ')
	sb.WriteString(shortID(e.SessionID))
	sb.WriteByte(' ')

	switch e.Category {
	case tracelog.CategoryFrame:
		fmt.Fprintf(&sb, "%-5s %s", e.Direction, e.HexData())
		if e.Attempt > 0 {
			fmt.Fprintf(&sb, " (resend %d)", e.Attempt)
		}
	case tracelog.CategoryState:
		fmt.Fprintf(&sb, "STATE %s -> %s", e.OldState, e.NewState)
		if e.Endpoint != "" {
			fmt.Fprintf(&sb, " [%s]", e.Endpoint)
		}
	case tracelog.CategoryError:
		fmt.Fprintf(&sb, "ERROR %s", e.Message)
		if len(e.Data) > 0 {
			fmt.Fprintf(&sb, ": %s", e.HexData())
		}
	default:
		sb.WriteString(e.Category.String())
	}
	return sb.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func parseCategory(s string) (tracelog.Category, error) {
	switch strings.ToLower(s) {
	case "frame":
		return tracelog.CategoryFrame, nil
	case "state":
		return tracelog.CategoryState, nil
	case "error":
		return tracelog.CategoryError, nil
	default:
		return 0, fmt.Errorf("unknown category %q: expected frame, state or error", s)
	}
}
