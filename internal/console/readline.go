package console

import (
	"errors"
	"io"

	"github.com/chzyer/readline"
)

// Terminal is an interactive LineReader with history and line editing.
type Terminal struct {
	rl *readline.Instance
}

func NewTerminal(prompt, historyFile string) (*Terminal, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		HistoryLimit:    200,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}
	return &Terminal{rl: rl}, nil
}

// ReadLine maps Ctrl+C and Ctrl+D to io.EOF.
func (t *Terminal) ReadLine() (string, error) {
	text, err := t.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", io.EOF
	}
	return text, err
}

// Stdout is a writer that keeps the prompt intact while printing.
func (t *Terminal) Stdout() io.Writer {
	return t.rl.Stdout()
}

func (t *Terminal) Close() error {
	return t.rl.Close()
}
