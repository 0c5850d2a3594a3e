package console

import "github.com/fatih/color"

// Available ANSI colors
var (
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	Blue   = color.New(color.FgBlue).SprintFunc()
	White  = color.New(color.FgHiWhite).SprintFunc()
	Bold   = color.New(color.Bold).SprintFunc()
)

// Channel paints a channel value with the color it measures.
func Channel(name string, value int) string {
	switch name {
	case "r", "red", "READ_R":
		return Red(value)
	case "g", "green", "READ_G":
		return Green(value)
	case "b", "blue", "READ_B":
		return Blue(value)
	}
	return White(value)
}
