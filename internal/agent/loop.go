package agent

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// Mode selects the resolution strategy for an instruction.
type Mode string

const (
	// ModeVision acts on coordinates straight from the model.
	ModeVision Mode = "vision"
	// ModeTemplate re-locates elements via persisted template crops.
	ModeTemplate Mode = "template"
)

// Run executes a single instruction in the given mode.
func (a *Agent) Run(ctx context.Context, mode Mode, instruction string) error {
	switch mode {
	case ModeVision:
		return a.RunVision(ctx, instruction)
	case ModeTemplate:
		return a.RunTemplate(ctx, instruction)
	default:
		return fmt.Errorf("unknown mode: %s", mode)
	}
}

// Loop reads one instruction per turn from scanner until "exit" or EOF. The
// scanner must be the same one the confirmation gate reads from, so that
// buffered-ahead lines (piped input) reach the gate instead of being consumed
// here. Errors from an instruction are reported and the loop continues;
// recovery is user-mediated.
func (a *Agent) Loop(ctx context.Context, mode Mode, scanner *bufio.Scanner) error {
	for {
		fmt.Fprint(a.out, "\nWhat would you like me to do? (type 'exit' to quit): ")
		if !scanner.Scan() {
			break
		}
		instruction := strings.TrimSpace(scanner.Text())
		if instruction == "" {
			continue
		}
		if strings.EqualFold(instruction, "exit") {
			fmt.Fprintln(a.out, "Exiting.")
			return nil
		}

		if err := a.Run(ctx, mode, instruction); err != nil {
			fmt.Fprintf(a.out, "Failed: %v\n", err)
		}
	}
	return scanner.Err()
}
