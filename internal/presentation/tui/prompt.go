package tui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsInteractive reports whether stdin is attached to a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Prompter reads user input lines with a styled prompt.
type Prompter struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewPrompter creates a prompter over stdin/stdout.
func NewPrompter() *Prompter {
	return &Prompter{
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

// Ask prints the question and returns the trimmed answer. io.EOF is
// returned when stdin closes.
func (p *Prompter) Ask(question string) (string, error) {
	profile := termenv.ColorProfile()
	styled := termenv.String("? " + question + " ").Foreground(profile.Color("#818cf8")).Bold()
	fmt.Fprint(p.out, styled.String())

	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
