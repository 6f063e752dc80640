package input

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeDriver records every call instead of synthesizing input.
type fakeDriver struct {
	calls []string
	typed []string
	keys  [][]string
}

func (d *fakeDriver) record(c string)        { d.calls = append(d.calls, c) }
func (d *fakeDriver) Move(x, y int)          { d.record(call("move", x, y)) }
func (d *fakeDriver) Click(x, y int)         { d.record(call("click", x, y)) }
func (d *fakeDriver) DoubleClick(x, y int)   { d.record(call("double", x, y)) }
func (d *fakeDriver) RightClick(x, y int)    { d.record(call("right", x, y)) }
func (d *fakeDriver) Drag(fx, fy, tx, ty int) {
	d.record(call("drag", fx, fy) + "->" + call("", tx, ty))
}
func (d *fakeDriver) TypeText(text string) {
	d.record("type")
	d.typed = append(d.typed, text)
}
func (d *fakeDriver) Hotkey(keys []string) error {
	d.record("hotkey")
	d.keys = append(d.keys, keys)
	return nil
}
func (d *fakeDriver) Scroll(direction string, amount int) {
	d.record("scroll-" + direction)
}

func call(name string, x, y int) string {
	return fmt.Sprintf("%s(%d,%d)", name, x, y)
}

func newTestDispatcher(t *testing.T, opts Options) (*Dispatcher, *fakeDriver) {
	t.Helper()
	drv := &fakeDriver{}
	return NewDispatcher(drv, opts, zap.NewNop()), drv
}

func TestExecuteClickAtBoxCenter(t *testing.T) {
	d, drv := newTestDispatcher(t, Options{})
	_, err := d.Execute(Action{Kind: KindClick, Start: &Box{X1: 800, Y1: 30, X2: 824, Y2: 50}})
	require.NoError(t, err)
	assert.Equal(t, []string{"click(812,40)"}, drv.calls)
}

func TestExecuteClickVariants(t *testing.T) {
	box := &Box{X1: 0, Y1: 0, X2: 10, Y2: 10}

	d, drv := newTestDispatcher(t, Options{})
	_, err := d.Execute(Action{Kind: KindLeftDouble, Start: box})
	require.NoError(t, err)
	_, err = d.Execute(Action{Kind: KindRightSingle, Start: box})
	require.NoError(t, err)
	assert.Equal(t, []string{"double(5,5)", "right(5,5)"}, drv.calls)
}

func TestExecuteRequiresStartBox(t *testing.T) {
	d, drv := newTestDispatcher(t, Options{})
	for _, kind := range []Kind{KindClick, KindLeftDouble, KindRightSingle, KindDrag} {
		_, err := d.Execute(Action{Kind: kind})
		assert.Error(t, err, "kind %s", kind)
	}
	assert.Empty(t, drv.calls, "no input may be synthesized for malformed actions")
}

func TestExecuteDragRequiresEndBox(t *testing.T) {
	d, drv := newTestDispatcher(t, Options{})
	_, err := d.Execute(Action{Kind: KindDrag, Start: &Box{X1: 0, Y1: 0, X2: 2, Y2: 2}})
	assert.Error(t, err)
	assert.Empty(t, drv.calls)
}

func TestExecuteDrag(t *testing.T) {
	d, drv := newTestDispatcher(t, Options{})
	_, err := d.Execute(Action{
		Kind:  KindDrag,
		Start: &Box{X1: 0, Y1: 0, X2: 10, Y2: 10},
		End:   &Box{X1: 100, Y1: 100, X2: 110, Y2: 110},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"drag(5,5)->(105,105)"}, drv.calls)
}

func TestExecuteHotkeySplitsCombo(t *testing.T) {
	d, drv := newTestDispatcher(t, Options{})
	_, err := d.Execute(Action{Kind: KindHotkey, Keys: "Ctrl+Shift+T"})
	require.NoError(t, err)
	require.Len(t, drv.keys, 1)
	assert.Equal(t, []string{"ctrl", "shift", "t"}, drv.keys[0])
}

func TestExecuteTypeTranslatesNewlines(t *testing.T) {
	d, drv := newTestDispatcher(t, Options{})
	_, err := d.Execute(Action{Kind: KindType, Content: "hello\nworld"})
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "world"}, drv.typed)
	require.Len(t, drv.keys, 1)
	assert.Equal(t, []string{"enter"}, drv.keys[0])
}

func TestExecuteTypeFocusesTargetFirst(t *testing.T) {
	d, drv := newTestDispatcher(t, Options{})
	_, err := d.Execute(Action{Kind: KindType, Content: "hi", Start: &Box{X1: 10, Y1: 10, X2: 20, Y2: 20}})
	require.NoError(t, err)
	assert.Equal(t, []string{"click(15,15)", "type"}, drv.calls)
}

func TestExecuteScrollValidatesDirection(t *testing.T) {
	d, drv := newTestDispatcher(t, Options{})
	_, err := d.Execute(Action{Kind: KindScroll, Direction: "sideways"})
	assert.Error(t, err)
	assert.Empty(t, drv.calls)

	_, err = d.Execute(Action{Kind: KindScroll, Direction: "down"})
	require.NoError(t, err)
	assert.Equal(t, []string{"scroll-down"}, drv.calls)
}

func TestExecuteScrollMovesToTargetFirst(t *testing.T) {
	d, drv := newTestDispatcher(t, Options{})
	_, err := d.Execute(Action{Kind: KindScroll, Direction: "up", Start: &Box{X1: 100, Y1: 200, X2: 120, Y2: 220}})
	require.NoError(t, err)
	assert.Equal(t, []string{"move(110,210)", "scroll-up"}, drv.calls)
}

func TestExecuteScrollWithoutTargetKeepsPointer(t *testing.T) {
	// No target box means scrolling wherever the pointer already is, not
	// jumping it to the screen origin.
	d, drv := newTestDispatcher(t, Options{})
	_, err := d.Execute(Action{Kind: KindScroll, Direction: "down"})
	require.NoError(t, err)
	assert.Equal(t, []string{"scroll-down"}, drv.calls)
}

func TestExecuteWaitBlocksForConfiguredDuration(t *testing.T) {
	const wait = 50 * time.Millisecond
	d, drv := newTestDispatcher(t, Options{WaitDuration: wait})

	start := time.Now()
	outcome, err := d.Execute(Action{Kind: KindWait})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.False(t, outcome.Terminal)
	assert.GreaterOrEqual(t, elapsed, wait)
	assert.Empty(t, drv.calls, "wait synthesizes no input")
}

func TestExecuteTerminalActions(t *testing.T) {
	d, drv := newTestDispatcher(t, Options{})

	outcome, err := d.Execute(Action{Kind: KindFinished})
	require.NoError(t, err)
	assert.True(t, outcome.Terminal)
	assert.Empty(t, outcome.Message)

	outcome, err = d.Execute(Action{Kind: KindCallUser, Message: "stuck on a captcha"})
	require.NoError(t, err)
	assert.True(t, outcome.Terminal)
	assert.Equal(t, "stuck on a captcha", outcome.Message)

	assert.Empty(t, drv.calls, "terminal signals synthesize no input")
}

func TestExecuteUnknownAction(t *testing.T) {
	d, _ := newTestDispatcher(t, Options{})
	_, err := d.Execute(Action{Kind: "teleport"})
	assert.Error(t, err)
}

func TestExecuteRecordsHistory(t *testing.T) {
	d, _ := newTestDispatcher(t, Options{})
	_, _ = d.Execute(Action{Kind: KindClick, Start: &Box{X1: 0, Y1: 0, X2: 2, Y2: 2}})
	_, _ = d.Execute(Action{Kind: KindFinished})
	require.Len(t, d.History(), 2)
	assert.Equal(t, KindClick, d.History()[0].Action.Kind)
}

func TestExecuteThrottlesConsecutiveActions(t *testing.T) {
	const interval = 40 * time.Millisecond
	d, _ := newTestDispatcher(t, Options{MinInterval: interval})
	box := &Box{X1: 0, Y1: 0, X2: 2, Y2: 2}

	_, err := d.Execute(Action{Kind: KindClick, Start: box})
	require.NoError(t, err)

	start := time.Now()
	_, err = d.Execute(Action{Kind: KindClick, Start: box})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), interval)
}
