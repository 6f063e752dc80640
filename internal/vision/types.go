package vision

import (
	"errors"
	"fmt"
	"image"

	"github.com/v0xg/deskpilot/internal/input"
)

// ErrOutOfBounds marks model output whose coordinates fall outside the
// captured image. Such output is rejected before any input is dispatched.
var ErrOutOfBounds = errors.New("model returned coordinates outside the screen bounds")

// ErrModelDeclined marks a response where the model reported it could not
// find a suitable element or action for the instruction.
var ErrModelDeclined = errors.New("model declined the request")

// Element is one UI element identified on a screenshot.
type Element struct {
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	Box         input.Box `json:"bounding_box"`
	Description string    `json:"description"`
}

// ClickTarget is the direct-coordinate resolution: a single element to click.
type ClickTarget struct {
	TargetElement string `json:"target_element"`
	Coordinates   [2]int `json:"coordinates"` // [x, y]
	ClickType     string `json:"click_type"`  // single or double
	Reasoning     string `json:"reasoning"`
	Error         string `json:"error,omitempty"`
}

// Point returns the click location.
func (t ClickTarget) Point() image.Point {
	return image.Pt(t.Coordinates[0], t.Coordinates[1])
}

// ActionParams carries the extra parameters of a basic-mode target selection.
type ActionParams struct {
	Content   string   `json:"content,omitempty"`
	Keys      []string `json:"keys,omitempty"`
	Direction string   `json:"direction,omitempty"`
	EndTarget string   `json:"end_target,omitempty"`
}

// TargetSelection is the template-mode resolution: which stored element to
// act on and how. The element is re-located on screen by the matcher before
// dispatch, so no coordinates appear here.
type TargetSelection struct {
	TargetElement string       `json:"target_element"`
	Action        string       `json:"action"` // click, double_click, right_click, drag, type, hotkey, scroll
	Params        ActionParams `json:"action_parameters"`
	Reasoning     string       `json:"reasoning"`
	Error         string       `json:"error,omitempty"`
}

// BasicKind maps a basic-mode action name onto the dispatch vocabulary.
func BasicKind(name string) (input.Kind, error) {
	switch name {
	case "click":
		return input.KindClick, nil
	case "double_click":
		return input.KindLeftDouble, nil
	case "right_click":
		return input.KindRightSingle, nil
	case "drag":
		return input.KindDrag, nil
	case "type":
		return input.KindType, nil
	case "hotkey":
		return input.KindHotkey, nil
	case "scroll":
		return input.KindScroll, nil
	default:
		return "", fmt.Errorf("unsupported action: %q", name)
	}
}
