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

// Prompter reads interactive answers. Labels are only printed when the
// input is a terminal, so piped input stays quiet.
type Prompter struct {
	in     io.Reader
	lines  *bufio.Reader
	prompt io.Writer
}

func NewPrompter(in io.Reader, prompt io.Writer) *Prompter {
	return &Prompter{in: in, lines: bufio.NewReader(in), prompt: prompt}
}

func (p *Prompter) terminalFd() (int, bool) {
	f, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	return int(f.Fd()), true
}

// Line reads one line, printing label first on a terminal.
func (p *Prompter) Line(label string) (string, error) {
	if _, ok := p.terminalFd(); ok {
		fmt.Fprint(p.prompt, label)
	}
	line, err := p.lines.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		if line == "" {
			return "", io.EOF
		}
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Password reads a password from file when given, without echo from a
// terminal, or as the next input line otherwise.
func (p *Prompter) Password(file string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading password file: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
	if fd, ok := p.terminalFd(); ok {
		fmt.Fprint(p.prompt, "Contraseña: ")
		password, err := term.ReadPassword(fd)
		fmt.Fprintln(p.prompt)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(password), nil
	}
	password, err := p.Line("")
	if errors.Is(err, io.EOF) {
		return "", errors.New("no password given on stdin")
	}
	return password, err
}
