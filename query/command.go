package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mklimuk/colorsensor/color"
)

var ErrUnknownCommand = errors.New("unknown query command")

// Command is a per-channel query code.
type Command uint32

const (
	ReadRed   Command = 1
	ReadGreen Command = 2
	ReadBlue  Command = 3
)

// Commands lists every supported command in code order.
var Commands = []Command{ReadRed, ReadGreen, ReadBlue}

func (c Command) String() string {
	switch c {
	case ReadRed:
		return "READ_R"
	case ReadGreen:
		return "READ_G"
	case ReadBlue:
		return "READ_B"
	}
	return fmt.Sprintf("CMD_%d", uint32(c))
}

// Channel returns the color component answered by the command.
func (c Command) Channel() (color.Channel, error) {
	switch c {
	case ReadRed:
		return color.Red, nil
	case ReadGreen:
		return color.Green, nil
	case ReadBlue:
		return color.Blue, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownCommand, uint32(c))
}

// ParseCommand accepts the command name (READ_R), the channel name or
// initial (red, r) or the numeric code.
func ParseCommand(s string) (Command, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "read_r", "red", "r":
		return ReadRed, nil
	case "read_g", "green", "g":
		return ReadGreen, nil
	case "read_b", "blue", "b":
		return ReadBlue, nil
	}
	code, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, s)
	}
	cmd := Command(code)
	if _, err := cmd.Channel(); err != nil {
		return 0, err
	}
	return cmd, nil
}
