package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// PasswordPrompt reads a password without echo when input is a terminal and
// as a single line otherwise.
type PasswordPrompt struct {
	in  io.Reader
	out io.Writer
}

// NewPasswordPrompt creates a prompt reading from in and writing the prompt
// text to out.
func NewPasswordPrompt(in io.Reader, out io.Writer) *PasswordPrompt {
	return &PasswordPrompt{in: in, out: out}
}

// Read prints label and returns the entered password.
func (p *PasswordPrompt) Read(label string) (string, error) {
	_, _ = fmt.Fprint(p.out, label)

	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pw, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
