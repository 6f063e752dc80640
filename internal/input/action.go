package input

import (
	"encoding/json"
	"fmt"
	"image"
	"strconv"
	"strings"
)

// Kind is the tag of an automation action. The names are the literal action
// vocabulary the vision model is prompted with.
type Kind string

const (
	KindClick       Kind = "click"
	KindLeftDouble  Kind = "left_double"
	KindRightSingle Kind = "right_single"
	KindDrag        Kind = "drag"
	KindHotkey      Kind = "hotkey"
	KindType        Kind = "type"
	KindScroll      Kind = "scroll"
	KindWait        Kind = "wait"
	KindFinished    Kind = "finished"
	KindCallUser    Kind = "call_user"
)

// Box is a screen-space bounding box with (X1,Y1) top-left and (X2,Y2)
// bottom-right, inclusive of the element it encloses.
type Box struct {
	X1, Y1, X2, Y2 int
}

// Center returns the midpoint of the box.
func (b Box) Center() image.Point {
	return image.Pt((b.X1+b.X2)/2, (b.Y1+b.Y2)/2)
}

// Rect converts the box to an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// In reports whether the box lies fully within bounds.
func (b Box) In(bounds image.Rectangle) bool {
	return b.X1 <= b.X2 && b.Y1 <= b.Y2 && b.Rect().In(bounds)
}

// MarshalJSON encodes the box as the wire-format 4-tuple [x1, y1, x2, y2].
func (b Box) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int{b.X1, b.Y1, b.X2, b.Y2})
}

// UnmarshalJSON accepts either the 4-tuple form [x1, y1, x2, y2] or the quoted
// string form "[x1, y1, x2, y2]" that models frequently emit for box params.
func (b *Box) UnmarshalJSON(data []byte) error {
	var arr [4]int
	if err := json.Unmarshal(data, &arr); err == nil {
		b.X1, b.Y1, b.X2, b.Y2 = arr[0], arr[1], arr[2], arr[3]
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("bounding box must be a 4-tuple or a bracketed string: %s", string(data))
	}
	parsed, err := ParseBox(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ParseBox parses a textual box like "[10, 20, 30, 40]" into a Box.
func ParseBox(s string) (Box, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "[")
	trimmed = strings.TrimSuffix(trimmed, "]")
	parts := strings.Split(trimmed, ",")
	if len(parts) != 4 {
		return Box{}, fmt.Errorf("bounding box %q must have 4 components", s)
	}
	var vals [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Box{}, fmt.Errorf("bounding box %q has non-integer component %q", s, p)
		}
		vals[i] = n
	}
	return Box{X1: vals[0], Y1: vals[1], X2: vals[2], Y2: vals[3]}, nil
}

// Action is one resolved automation step, ready for dispatch.
type Action struct {
	Kind      Kind   `json:"action"`
	Start     *Box   `json:"start_box,omitempty"` // target for pointer actions
	End       *Box   `json:"end_box,omitempty"`   // drag destination
	Keys      string `json:"key,omitempty"`       // hotkey combo, e.g. "ctrl+c"
	Content   string `json:"content,omitempty"`   // text to type, \n means Enter
	Direction string `json:"direction,omitempty"` // scroll direction
	Message   string `json:"message,omitempty"`   // call_user message
	Reasoning string `json:"reasoning,omitempty"`
}

// Terminal reports whether the action ends the loop for the current
// instruction instead of producing input events.
func (a Action) Terminal() bool {
	return a.Kind == KindFinished || a.Kind == KindCallUser
}

// Describe renders a short human-readable summary, used by the confirmation
// gate and progress output.
func (a Action) Describe() string {
	switch a.Kind {
	case KindClick, KindLeftDouble, KindRightSingle:
		if a.Start != nil {
			c := a.Start.Center()
			return fmt.Sprintf("%s at (%d, %d)", a.Kind, c.X, c.Y)
		}
		return string(a.Kind)
	case KindDrag:
		if a.Start != nil && a.End != nil {
			s, e := a.Start.Center(), a.End.Center()
			return fmt.Sprintf("drag from (%d, %d) to (%d, %d)", s.X, s.Y, e.X, e.Y)
		}
		return "drag"
	case KindHotkey:
		return fmt.Sprintf("press %s", a.Keys)
	case KindType:
		return fmt.Sprintf("type %q", a.Content)
	case KindScroll:
		if a.Start != nil {
			c := a.Start.Center()
			return fmt.Sprintf("scroll %s at (%d, %d)", a.Direction, c.X, c.Y)
		}
		return fmt.Sprintf("scroll %s", a.Direction)
	case KindWait:
		return "wait"
	case KindCallUser:
		return fmt.Sprintf("call user: %s", a.Message)
	default:
		return string(a.Kind)
	}
}
