package player

import "github.com/hajimehoshi/ebiten/v2"

// Command is a presenter action triggered by a key.
type Command uint8

const (
	CommandNone Command = iota
	CommandNext
	CommandPrevious
	CommandFirst
	CommandLast
	CommandResume
	CommandToggleInfo
	CommandQuit
)

func (c Command) String() string {
	switch c {
	case CommandNext:
		return "next"
	case CommandPrevious:
		return "previous"
	case CommandFirst:
		return "first"
	case CommandLast:
		return "last"
	case CommandResume:
		return "resume"
	case CommandToggleInfo:
		return "toggle-info"
	case CommandQuit:
		return "quit"
	default:
		return "none"
	}
}

// Binding maps a key to a command. Bindings are checked in order.
type Binding struct {
	Key     ebiten.Key
	Command Command
}

// DefaultBindings are the keys used when Config.Bindings is nil.
var DefaultBindings = []Binding{
	{ebiten.KeyArrowRight, CommandNext},
	{ebiten.KeyPageDown, CommandNext},
	{ebiten.KeyArrowLeft, CommandPrevious},
	{ebiten.KeyPageUp, CommandPrevious},
	{ebiten.KeyHome, CommandFirst},
	{ebiten.KeyEnd, CommandLast},
	{ebiten.KeySpace, CommandResume},
	{ebiten.KeyEnter, CommandResume},
	{ebiten.KeyF1, CommandToggleInfo},
	{ebiten.KeyEscape, CommandQuit},
}
