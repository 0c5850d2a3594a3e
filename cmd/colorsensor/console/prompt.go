package console

import (
	"errors"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// Shell reads lines until EOF, interrupt or one of the exit words and hands
// every non-empty line to fn. An error returned by fn is printed and the
// shell goes on.
func Shell(prompt, historyFile string, fn func(line string) error) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          writer,
		Stderr:          errWriter,
	})
	if err != nil {
		return err
	}
	defer rl.Close()
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit", "q":
			return nil
		}
		if err := fn(line); err != nil {
			Errorf("%s", err)
		}
	}
}
