package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// ErrNoChoice is returned when a selection prompt has no options.
var ErrNoChoice = errors.New("nothing to choose from")

// Prompter asks questions on a terminal or any line-oriented stream.
type Prompter struct {
	writer io.Writer
	reader *LineReader
	secret func() (string, error)
}

// NewPrompter creates a prompter reading answers from reader. When reader is
// a terminal, passwords are read without echo.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	p := &Prompter{writer: writer, reader: NewLineReader(reader)}
	if f, ok := reader.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		p.secret = func() (string, error) {
			b, err := term.ReadPassword(fd)
			return string(b), err
		}
	}
	return p
}

// Println writes a line to the prompter's output.
func (p *Prompter) Println(a ...any) {
	_, _ = fmt.Fprintln(p.writer, a...)
}

func (p *Prompter) prompt(label, def string) {
	if def != "" {
		label = fmt.Sprintf("%s [%s]", label, def)
	}
	_, _ = fmt.Fprint(p.writer, FormatPrompt(label))
}

// Ask reads a free text answer. An empty answer yields def.
func (p *Prompter) Ask(ctx context.Context, label, def string) (string, error) {
	p.prompt(label, def)
	answer, err := p.reader.ReadLine(ctx)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// AskRequired asks until a non-empty answer is given.
func (p *Prompter) AskRequired(ctx context.Context, label, def string) (string, error) {
	for {
		answer, err := p.Ask(ctx, label, def)
		if err != nil || answer != "" {
			return answer, err
		}
		p.Println(FormatWarning(label + " is required"))
	}
}

// AskPassword reads a secret. On a terminal nothing is echoed.
func (p *Prompter) AskPassword(ctx context.Context, label string) (string, error) {
	p.prompt(label, "")
	if p.secret == nil {
		return p.reader.ReadLine(ctx)
	}
	password, err := p.secret()
	p.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(password), nil
}

// AskFloat asks until a number is given. An empty answer yields def.
func (p *Prompter) AskFloat(ctx context.Context, label string, def float64) (float64, error) {
	for {
		answer, err := p.Ask(ctx, label, strconv.FormatFloat(def, 'f', -1, 64))
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(answer, ",", ""), 64)
		if err == nil {
			return v, nil
		}
		p.Println(FormatWarning(fmt.Sprintf("%q is not a number", answer)))
	}
}

// AskInt asks until a whole number is given. An empty answer yields def.
func (p *Prompter) AskInt(ctx context.Context, label string, def int) (int, error) {
	for {
		answer, err := p.Ask(ctx, label, strconv.Itoa(def))
		if err != nil {
			return 0, err
		}
		v, err := strconv.Atoi(strings.ReplaceAll(answer, ",", ""))
		if err == nil {
			return v, nil
		}
		p.Println(FormatWarning(fmt.Sprintf("%q is not a whole number", answer)))
	}
}

// Confirm asks a yes/no question.
func (p *Prompter) Confirm(ctx context.Context, question string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		p.prompt(question, hint)
		answer, err := p.reader.ReadLine(ctx)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		p.Println(FormatWarning("Please answer y or n"))
	}
}

// Choose lists options and returns the index of the one picked. Options are
// numbered from 1; def is a zero-based index, or -1 for no default.
func (p *Prompter) Choose(ctx context.Context, label string, options []string, def int) (int, error) {
	if len(options) == 0 {
		return 0, ErrNoChoice
	}
	for i, option := range options {
		p.Println(fmt.Sprintf("  [%d] %s", i+1, option))
	}

	defLabel := ""
	if def >= 0 && def < len(options) {
		defLabel = strconv.Itoa(def + 1)
	}
	for {
		answer, err := p.Ask(ctx, label, defLabel)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		p.Println(FormatWarning(fmt.Sprintf("Pick a number between 1 and %d", len(options))))
	}
}
