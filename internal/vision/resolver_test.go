package vision

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/v0xg/deskpilot/internal/input"
)

// cannedProvider returns fixed responses and records the requests it saw.
type cannedProvider struct {
	response string
	err      error
	requests []Request
}

func (p *cannedProvider) Generate(_ context.Context, req Request) (string, error) {
	p.requests = append(p.requests, req)
	return p.response, p.err
}

func newTestResolver(response string) (*Resolver, *cannedProvider) {
	p := &cannedProvider{response: response}
	return NewResolver(p, time.Second, zap.NewNop()), p
}

var testBounds = image.Rect(0, 0, 1024, 768)

func TestIdentifyElementsFiltersOutOfBounds(t *testing.T) {
	r, p := newTestResolver(`[
		{"type": "icon", "name": "Recycle Bin", "bounding_box": [800, 30, 824, 54], "description": "trash"},
		{"type": "icon", "name": "Ghost", "bounding_box": [2000, 30, 2024, 54], "description": "off screen"}
	]`)

	elements, err := r.IdentifyElements(context.Background(), []byte("png"), testBounds)
	require.NoError(t, err)
	require.Len(t, elements, 1)
	assert.Equal(t, "Recycle Bin", elements[0].Name)

	require.Len(t, p.requests, 1)
	assert.NotEmpty(t, p.requests[0].ImagePNG, "identification must include the screenshot")
}

func TestIdentifyElementsBadJSON(t *testing.T) {
	r, _ := newTestResolver("the screen is empty")
	_, err := r.IdentifyElements(context.Background(), []byte("png"), testBounds)
	assert.Error(t, err)
}

func TestSelectClickHappyPath(t *testing.T) {
	r, p := newTestResolver(`{
		"target_element": "Recycle Bin",
		"coordinates": [812, 40],
		"click_type": "single",
		"reasoning": "the trash icon matches the request"
	}`)

	target, err := r.SelectClick(context.Background(), "Open the Recycle Bin", nil, testBounds)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(812, 40), target.Point())
	assert.Equal(t, "single", target.ClickType)

	require.Len(t, p.requests, 1)
	assert.Empty(t, p.requests[0].ImagePNG, "target selection is text-only")
}

func TestSelectClickRejectsOutOfBounds(t *testing.T) {
	r, _ := newTestResolver(`{"target_element": "x", "coordinates": [5000, 40], "click_type": "single"}`)
	_, err := r.SelectClick(context.Background(), "click x", nil, testBounds)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestSelectClickModelDeclined(t *testing.T) {
	r, _ := newTestResolver(`{"error": "no matching element on screen"}`)
	_, err := r.SelectClick(context.Background(), "click the unicorn", nil, testBounds)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelDeclined)
}

func TestSelectTarget(t *testing.T) {
	r, _ := newTestResolver(`{
		"target_element": "Search Box",
		"action": "type",
		"action_parameters": {"content": "hello"},
		"reasoning": "typing goes into the search box"
	}`)

	sel, err := r.SelectTarget(context.Background(), "search for hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "Search Box", sel.TargetElement)
	assert.Equal(t, "type", sel.Action)
	assert.Equal(t, "hello", sel.Params.Content)
}

func TestSelectTargetUnsupportedAction(t *testing.T) {
	r, _ := newTestResolver(`{"target_element": "x", "action": "levitate"}`)
	_, err := r.SelectTarget(context.Background(), "do the thing", nil)
	assert.Error(t, err)
}

func TestPlanActionClick(t *testing.T) {
	r, _ := newTestResolver(`{
		"action_name": "click",
		"parameters": {"start_box": "[800, 30, 824, 54]"},
		"reasoning": "click the icon"
	}`)

	action, err := r.PlanAction(context.Background(), "open it", nil, testBounds)
	require.NoError(t, err)
	assert.Equal(t, input.KindClick, action.Kind)
	require.NotNil(t, action.Start)
	assert.Equal(t, image.Pt(812, 42), action.Start.Center())
	assert.Equal(t, "click the icon", action.Reasoning)
}

func TestPlanActionDragWithTupleBoxes(t *testing.T) {
	r, _ := newTestResolver(`{
		"action_name": "drag",
		"parameters": {"start_box": [0, 0, 10, 10], "end_box": [100, 100, 110, 110]}
	}`)

	action, err := r.PlanAction(context.Background(), "move the file", nil, testBounds)
	require.NoError(t, err)
	assert.Equal(t, input.KindDrag, action.Kind)
	require.NotNil(t, action.End)
}

func TestPlanActionHotkey(t *testing.T) {
	r, _ := newTestResolver(`{"action_name": "hotkey", "parameters": {"key": "ctrl+c"}}`)
	action, err := r.PlanAction(context.Background(), "copy", nil, testBounds)
	require.NoError(t, err)
	assert.Equal(t, input.KindHotkey, action.Kind)
	assert.Equal(t, "ctrl+c", action.Keys)
}

func TestPlanActionRejectsOutOfBoundsBox(t *testing.T) {
	r, _ := newTestResolver(`{"action_name": "click", "parameters": {"start_box": "[2000, 30, 2024, 54]"}}`)
	_, err := r.PlanAction(context.Background(), "open it", nil, testBounds)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestPlanActionUnknownVerb(t *testing.T) {
	r, _ := newTestResolver(`{"action_name": "reboot", "parameters": {}}`)
	_, err := r.PlanAction(context.Background(), "reboot", nil, testBounds)
	assert.Error(t, err)
}

func TestPlanActionModelDeclined(t *testing.T) {
	r, _ := newTestResolver(`{"error": "instruction is ambiguous"}`)
	_, err := r.PlanAction(context.Background(), "do something", nil, testBounds)
	assert.ErrorIs(t, err, ErrModelDeclined)
}

func TestBasicKindMapping(t *testing.T) {
	cases := map[string]input.Kind{
		"click":        input.KindClick,
		"double_click": input.KindLeftDouble,
		"right_click":  input.KindRightSingle,
		"drag":         input.KindDrag,
		"type":         input.KindType,
		"hotkey":       input.KindHotkey,
		"scroll":       input.KindScroll,
	}
	for name, want := range cases {
		got, err := BasicKind(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got)
	}
	_, err := BasicKind("wait")
	assert.Error(t, err, "wait is not a basic-mode action")
}
