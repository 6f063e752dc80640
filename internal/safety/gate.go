package safety

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/v0xg/deskpilot/internal/input"
)

// Level controls which actions are gated behind user confirmation.
type Level string

const (
	// LevelHigh confirms every input-producing action.
	LevelHigh Level = "high"
	// LevelMedium confirms only actions that mutate state beyond a click:
	// drag, hotkey and type.
	LevelMedium Level = "medium"
	// LevelLow confirms nothing.
	LevelLow Level = "low"
)

// ParseLevel validates a level name.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelHigh, LevelMedium, LevelLow:
		return Level(s), nil
	default:
		return "", fmt.Errorf("invalid safety level: %q (expected high, medium or low)", s)
	}
}

// Gate presents planned actions to the user and collects a yes/no decision
// before anything is executed. Declining is a deliberate no-op, not an error.
type Gate struct {
	level Level
	in    *bufio.Scanner
	out   io.Writer
}

// NewGate reads confirmations from in and writes prompts to out. The scanner
// must be the same one any surrounding prompt loop reads from; a second
// scanner over the same stream would buffer ahead and swallow answers.
func NewGate(level Level, in *bufio.Scanner, out io.Writer) *Gate {
	return &Gate{level: level, in: in, out: out}
}

// Required reports whether the action is gated at the current level.
// Terminal signals and wait never synthesize input, so they are never gated.
func (g *Gate) Required(a input.Action) bool {
	if a.Terminal() || a.Kind == input.KindWait {
		return false
	}
	switch g.level {
	case LevelHigh:
		return true
	case LevelMedium:
		return a.Kind == input.KindDrag || a.Kind == input.KindHotkey || a.Kind == input.KindType
	default:
		return false
	}
}

// Confirm shows the planned action and waits for an affirmative answer.
// Actions the level does not gate pass through immediately.
func (g *Gate) Confirm(a input.Action) (bool, error) {
	if !g.Required(a) {
		return true, nil
	}

	fmt.Fprintf(g.out, "\nI'll %s\n", a.Describe())
	if a.Reasoning != "" {
		fmt.Fprintf(g.out, "Reason: %s\n", a.Reasoning)
	}
	fmt.Fprint(g.out, "Proceed with this action? (y/n): ")

	if !g.in.Scan() {
		if err := g.in.Err(); err != nil {
			return false, fmt.Errorf("failed to read confirmation: %w", err)
		}
		return false, io.EOF
	}
	answer := strings.ToLower(strings.TrimSpace(g.in.Text()))
	return answer == "y" || answer == "yes", nil
}
