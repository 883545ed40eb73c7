package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pilot-net/spot-console/console/internal/action"
)

// terminalConfirmer asks on the terminal before a destructive action.
type terminalConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func newTerminalConfirmer(in io.Reader, out io.Writer) *terminalConfirmer {
	return &terminalConfirmer{in: bufio.NewReader(in), out: out}
}

func (t *terminalConfirmer) Confirm(ctx context.Context, p action.Prompt) (action.Answer, error) {
	if err := ctx.Err(); err != nil {
		return action.Answer{}, err
	}

	fmt.Fprintf(t.out, "%s %s\n", p.Action, p.Target)
	if p.Message != "" {
		fmt.Fprintln(t.out, p.Message)
	}
	if len(p.Removes) > 0 {
		fmt.Fprintln(t.out, "This also removes:")
		for _, r := range p.Removes {
			fmt.Fprintf(t.out, "  - %s\n", r)
		}
	}

	if p.TypeToConfirm != "" {
		fmt.Fprintf(t.out, "Type %q to confirm: ", p.TypeToConfirm)
		line, err := t.readLine()
		if err != nil {
			return action.Answer{}, err
		}
		// Typed text is compared exactly; only the line ending is stripped.
		return action.Answer{Confirmed: line != "", Typed: line}, nil
	}

	fmt.Fprint(t.out, "Continue? [y/N]: ")
	line, err := t.readLine()
	if err != nil {
		return action.Answer{}, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return action.Answer{Confirmed: true}, nil
	}
	return action.Answer{}, nil
}

// readLine reads one answer. Closed input reads as an empty answer, which
// declines.
func (t *terminalConfirmer) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading confirmation: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
