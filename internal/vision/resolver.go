package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/v0xg/deskpilot/internal/input"
)

const systemPrompt = `You are a desktop automation assistant. You analyze desktop screenshots and translate natural-language requests into precise UI interactions. Always answer with the exact JSON shape you are asked for and nothing else.`

// Resolver turns instructions plus screenshots into validated elements and
// actions using a vision-language provider. Every remote call runs under the
// configured timeout.
type Resolver struct {
	provider Provider
	timeout  time.Duration
	log      *zap.Logger
}

// NewResolver wraps a provider.
func NewResolver(p Provider, timeout time.Duration, log *zap.Logger) *Resolver {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Resolver{provider: p, timeout: timeout, log: log.Named("vision")}
}

// IdentifyElements asks the model for the clickable elements visible in the
// screenshot. Elements whose boxes fall outside bounds are discarded.
func (r *Resolver) IdentifyElements(ctx context.Context, imagePNG []byte, bounds image.Rectangle) ([]Element, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.provider.Generate(ctx, Request{
		System:   systemPrompt,
		Prompt:   identifyPrompt,
		ImagePNG: imagePNG,
	})
	if err != nil {
		return nil, fmt.Errorf("element identification failed: %w", err)
	}

	elements, err := DecodeArray[Element](resp)
	if err != nil {
		return nil, err
	}

	valid := elements[:0]
	for _, e := range elements {
		if !e.Box.In(bounds) {
			r.log.Warn("discarding element with out-of-bounds box",
				zap.String("name", e.Name), zap.Any("box", e.Box))
			continue
		}
		valid = append(valid, e)
	}
	return valid, nil
}

// SelectClick asks the model which element to click for the instruction and
// validates the returned coordinates against the screen bounds.
func (r *Resolver) SelectClick(ctx context.Context, instruction string, elements []Element, bounds image.Rectangle) (*ClickTarget, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	prompt := buildSelectClickPrompt(instruction, elementsJSON(elements, true))
	resp, err := r.provider.Generate(ctx, Request{System: systemPrompt, Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("target resolution failed: %w", err)
	}

	target, err := DecodeObject[ClickTarget](resp)
	if err != nil {
		return nil, err
	}
	if target.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrModelDeclined, target.Error)
	}
	if !target.Point().In(bounds) {
		return nil, fmt.Errorf("%w: (%d, %d) not in %v", ErrOutOfBounds,
			target.Coordinates[0], target.Coordinates[1], bounds)
	}
	return target, nil
}

// SelectTarget asks the model which stored element to act on and how. The
// element is re-located via template matching later, so no coordinates are
// validated here.
func (r *Resolver) SelectTarget(ctx context.Context, instruction string, elements []Element) (*TargetSelection, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	prompt := buildSelectTargetPrompt(instruction, elementsJSON(elements, false))
	resp, err := r.provider.Generate(ctx, Request{System: systemPrompt, Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("target resolution failed: %w", err)
	}

	sel, err := DecodeObject[TargetSelection](resp)
	if err != nil {
		return nil, err
	}
	if sel.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrModelDeclined, sel.Error)
	}
	if _, err := BasicKind(sel.Action); err != nil {
		return nil, err
	}
	return sel, nil
}

type planParams struct {
	StartBox  *input.Box `json:"start_box,omitempty"`
	EndBox    *input.Box `json:"end_box,omitempty"`
	Key       string     `json:"key,omitempty"`
	Content   string     `json:"content,omitempty"`
	Direction string     `json:"direction,omitempty"`
	Message   string     `json:"message,omitempty"`
}

type planResponse struct {
	ActionName string     `json:"action_name"`
	Parameters planParams `json:"parameters"`
	Reasoning  string     `json:"reasoning"`
	Error      string     `json:"error,omitempty"`
}

// PlanAction asks the model to pick one action from the full vocabulary, with
// bounding boxes taken from the identified elements, and validates every box
// against the screen bounds before the action is allowed near the dispatcher.
func (r *Resolver) PlanAction(ctx context.Context, instruction string, elements []Element, bounds image.Rectangle) (*input.Action, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	prompt := buildPlanPrompt(instruction, elementsJSON(elements, true))
	resp, err := r.provider.Generate(ctx, Request{System: systemPrompt, Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("action planning failed: %w", err)
	}

	plan, err := DecodeObject[planResponse](resp)
	if err != nil {
		return nil, err
	}
	if plan.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrModelDeclined, plan.Error)
	}

	action := input.Action{
		Kind:      input.Kind(plan.ActionName),
		Start:     plan.Parameters.StartBox,
		End:       plan.Parameters.EndBox,
		Keys:      plan.Parameters.Key,
		Content:   plan.Parameters.Content,
		Direction: plan.Parameters.Direction,
		Message:   plan.Parameters.Message,
		Reasoning: plan.Reasoning,
	}
	switch action.Kind {
	case input.KindClick, input.KindLeftDouble, input.KindRightSingle, input.KindDrag,
		input.KindHotkey, input.KindType, input.KindScroll, input.KindWait,
		input.KindFinished, input.KindCallUser:
	default:
		return nil, fmt.Errorf("model chose an unknown action: %q", plan.ActionName)
	}

	for _, box := range []*input.Box{action.Start, action.End} {
		if box != nil && !box.In(bounds) {
			return nil, fmt.Errorf("%w: box %v not in %v", ErrOutOfBounds, *box, bounds)
		}
	}
	return &action, nil
}

// elementsJSON renders the element list for a prompt; boxes are omitted when
// the model only needs to name a target.
func elementsJSON(elements []Element, withBoxes bool) string {
	if withBoxes {
		data, _ := json.Marshal(elements)
		return string(data)
	}
	type summary struct {
		Name        string `json:"name"`
		Type        string `json:"type"`
		Description string `json:"description"`
	}
	summaries := make([]summary, 0, len(elements))
	for _, e := range elements {
		summaries = append(summaries, summary{Name: e.Name, Type: e.Type, Description: e.Description})
	}
	data, _ := json.Marshal(summaries)
	return string(data)
}
