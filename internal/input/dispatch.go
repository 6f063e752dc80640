package input

import (
	"fmt"
	"image"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Options configures dispatch behavior.
type Options struct {
	WaitDuration time.Duration // sleep for the wait action
	MinInterval  time.Duration // minimum spacing between input actions
	ScrollAmount int           // scroll clicks per scroll action
}

// Outcome reports what dispatching an action did.
type Outcome struct {
	Terminal bool   // finished or call_user ended the instruction
	Message  string // user-facing message for call_user
}

// Record is one executed action kept in the session history.
type Record struct {
	Action Action
	At     time.Time
}

// Dispatcher maps resolved actions onto driver calls. One action executes to
// completion before the next begins; there is no queue.
type Dispatcher struct {
	drv     Driver
	opts    Options
	log     *zap.Logger
	lastAt  time.Time
	history []Record
}

// NewDispatcher builds a dispatcher over the given driver.
func NewDispatcher(drv Driver, opts Options, log *zap.Logger) *Dispatcher {
	if opts.WaitDuration <= 0 {
		opts.WaitDuration = 5 * time.Second
	}
	if opts.ScrollAmount <= 0 {
		opts.ScrollAmount = 3
	}
	return &Dispatcher{drv: drv, opts: opts, log: log.Named("input")}
}

// History returns the actions executed so far this session.
func (d *Dispatcher) History() []Record {
	return d.history
}

// Execute performs one action. Parameter validation happens here so a
// malformed action never reaches the driver.
func (d *Dispatcher) Execute(a Action) (Outcome, error) {
	d.throttle()
	d.history = append(d.history, Record{Action: a, At: time.Now()})
	d.log.Debug("dispatching action", zap.String("kind", string(a.Kind)), zap.String("summary", a.Describe()))

	switch a.Kind {
	case KindClick:
		c, err := requireStart(a)
		if err != nil {
			return Outcome{}, err
		}
		d.drv.Click(c.X, c.Y)

	case KindLeftDouble:
		c, err := requireStart(a)
		if err != nil {
			return Outcome{}, err
		}
		d.drv.DoubleClick(c.X, c.Y)

	case KindRightSingle:
		c, err := requireStart(a)
		if err != nil {
			return Outcome{}, err
		}
		d.drv.RightClick(c.X, c.Y)

	case KindDrag:
		s, err := requireStart(a)
		if err != nil {
			return Outcome{}, err
		}
		if a.End == nil {
			return Outcome{}, fmt.Errorf("drag requires an end box")
		}
		e := a.End.Center()
		d.drv.Drag(s.X, s.Y, e.X, e.Y)

	case KindHotkey:
		keys := splitCombo(a.Keys)
		if len(keys) == 0 {
			return Outcome{}, fmt.Errorf("hotkey requires a key combination")
		}
		if err := d.drv.Hotkey(keys); err != nil {
			return Outcome{}, fmt.Errorf("hotkey %s failed: %w", a.Keys, err)
		}

	case KindType:
		if a.Content == "" {
			return Outcome{}, fmt.Errorf("type requires content")
		}
		// Click to focus first when the model supplied a target box.
		if a.Start != nil {
			c := a.Start.Center()
			d.drv.Click(c.X, c.Y)
		}
		if err := d.typeContent(a.Content); err != nil {
			return Outcome{}, err
		}

	case KindScroll:
		dir := strings.ToLower(a.Direction)
		switch dir {
		case "up", "down", "left", "right":
		default:
			return Outcome{}, fmt.Errorf("invalid scroll direction: %q", a.Direction)
		}
		// Without a target box the scroll happens wherever the pointer is.
		if a.Start != nil {
			c := a.Start.Center()
			d.drv.Move(c.X, c.Y)
		}
		d.drv.Scroll(dir, d.opts.ScrollAmount)

	case KindWait:
		time.Sleep(d.opts.WaitDuration)

	case KindFinished:
		return Outcome{Terminal: true}, nil

	case KindCallUser:
		msg := a.Message
		if msg == "" {
			msg = "Attention required"
		}
		return Outcome{Terminal: true, Message: msg}, nil

	default:
		return Outcome{}, fmt.Errorf("unknown action: %s", a.Kind)
	}

	d.lastAt = time.Now()
	return Outcome{}, nil
}

// typeContent types text, translating \n into an Enter keypress.
func (d *Dispatcher) typeContent(content string) error {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if line != "" {
			d.drv.TypeText(line)
		}
		if i < len(lines)-1 {
			if err := d.drv.Hotkey([]string{"enter"}); err != nil {
				return fmt.Errorf("enter keypress failed: %w", err)
			}
		}
	}
	return nil
}

// throttle enforces the minimum spacing between consecutive actions.
func (d *Dispatcher) throttle() {
	if d.opts.MinInterval <= 0 || d.lastAt.IsZero() {
		return
	}
	if since := time.Since(d.lastAt); since < d.opts.MinInterval {
		time.Sleep(d.opts.MinInterval - since)
	}
}

func requireStart(a Action) (image.Point, error) {
	if a.Start == nil {
		return image.Point{}, fmt.Errorf("%s requires a start box", a.Kind)
	}
	return a.Start.Center(), nil
}

// splitCombo parses "ctrl+shift+t" into its key list.
func splitCombo(combo string) []string {
	if strings.TrimSpace(combo) == "" {
		return nil
	}
	parts := strings.Split(combo, "+")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if k := strings.ToLower(strings.TrimSpace(p)); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
