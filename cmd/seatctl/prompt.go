package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var isTerminalFunc = term.IsTerminal // mockable

// termPrompter asks on the terminal.  Without a terminal, confirmations are
// declined unless assumeYes is set.
type termPrompter struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
}

func newTermPrompter(in io.Reader, out io.Writer, assumeYes bool) *termPrompter {
	return &termPrompter{in: bufio.NewReader(in), out: out, assumeYes: assumeYes}
}

func (p *termPrompter) Confirm(msg string) bool {
	if p.assumeYes {
		return true
	}
	if !isTerminalFunc(int(os.Stdin.Fd())) {
		fmt.Fprintf(p.out, "%s (not a terminal, pass -yes to confirm)\n", msg)
		return false
	}
	fmt.Fprintf(p.out, "%s [y/N] ", msg)
	line, _ := p.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (p *termPrompter) Alert(msg string) {
	fmt.Fprintf(p.out, "! %s\n", msg)
}
