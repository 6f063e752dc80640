package agent

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/v0xg/deskpilot/internal/input"
	"github.com/v0xg/deskpilot/internal/safety"
	"github.com/v0xg/deskpilot/internal/screen"
	"github.com/v0xg/deskpilot/internal/template"
	"github.com/v0xg/deskpilot/internal/vision"
)

// Resolver is the slice of the vision resolver the agent needs.
type Resolver interface {
	IdentifyElements(ctx context.Context, imagePNG []byte, bounds image.Rectangle) ([]vision.Element, error)
	SelectClick(ctx context.Context, instruction string, elements []vision.Element, bounds image.Rectangle) (*vision.ClickTarget, error)
	SelectTarget(ctx context.Context, instruction string, elements []vision.Element) (*vision.TargetSelection, error)
	PlanAction(ctx context.Context, instruction string, elements []vision.Element, bounds image.Rectangle) (*input.Action, error)
}

// Options tunes pipeline behavior.
type Options struct {
	MaxUploadWidth  int           // screenshots wider than this are downscaled before upload
	ScreenshotDir   string        // when set, every capture is also saved here
	Advanced        bool          // template mode picks from the full action vocabulary
	MatchRetryDelay time.Duration // pause before the single template re-match
}

// Agent runs one instruction at a time through capture, resolve and act.
// Everything is synchronous; at most one action is ever in flight.
type Agent struct {
	resolver   Resolver
	capturer   screen.Capturer
	dispatcher *input.Dispatcher
	store      *template.Store
	matcher    *template.Matcher
	gate       *safety.Gate
	out        io.Writer
	log        *zap.Logger
	opts       Options
}

// New wires the pipeline together.
func New(resolver Resolver, capturer screen.Capturer, dispatcher *input.Dispatcher,
	store *template.Store, matcher *template.Matcher, gate *safety.Gate,
	out io.Writer, log *zap.Logger, opts Options) *Agent {
	if opts.MatchRetryDelay <= 0 {
		opts.MatchRetryDelay = 500 * time.Millisecond
	}
	return &Agent{
		resolver:   resolver,
		capturer:   capturer,
		dispatcher: dispatcher,
		store:      store,
		matcher:    matcher,
		gate:       gate,
		out:        out,
		log:        log.Named("agent"),
		opts:       opts,
	}
}

// snapshot is one capture prepared for upload, with the factor needed to map
// model coordinates (upload space) back onto the real screen.
type snapshot struct {
	original image.Image
	png      []byte
	bounds   image.Rectangle // upload space, what the model sees
	scale    float64         // original px per upload px, >= 1
}

func (a *Agent) capture() (*snapshot, error) {
	img, err := a.capturer.Capture()
	if err != nil {
		return nil, err
	}
	if a.opts.ScreenshotDir != "" {
		if path, err := screen.SaveTimestamped(a.opts.ScreenshotDir, img); err != nil {
			a.log.Warn("failed to save debug screenshot", zap.Error(err))
		} else {
			a.log.Debug("saved screenshot", zap.String("path", path))
		}
	}

	upload := screen.Downscale(img, a.opts.MaxUploadWidth)
	png, err := screen.EncodePNG(upload)
	if err != nil {
		return nil, err
	}

	scale := 1.0
	if upload.Bounds().Dx() > 0 {
		scale = float64(img.Bounds().Dx()) / float64(upload.Bounds().Dx())
	}
	return &snapshot{original: img, png: png, bounds: upload.Bounds(), scale: scale}, nil
}

// RunVision resolves the instruction to direct screen coordinates and clicks.
func (a *Agent) RunVision(ctx context.Context, instruction string) error {
	fmt.Fprintln(a.out, "Capturing screen...")
	snap, err := a.capture()
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Analyzing desktop elements...")
	elements, err := a.resolver.IdentifyElements(ctx, snap.png, snap.bounds)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Found %d clickable elements\n", len(elements))

	fmt.Fprintln(a.out, "Processing your request...")
	target, err := a.resolver.SelectClick(ctx, instruction, elements, snap.bounds)
	if err != nil {
		return err
	}

	p := scalePoint(target.Point(), snap.scale)
	kind := input.KindClick
	if target.ClickType == "double" {
		kind = input.KindLeftDouble
	}
	action := input.Action{
		Kind:      kind,
		Start:     &input.Box{X1: p.X, Y1: p.Y, X2: p.X, Y2: p.Y},
		Reasoning: target.Reasoning,
	}

	fmt.Fprintf(a.out, "Target: %s\n", target.TargetElement)
	return a.execute(action)
}

// RunTemplate resolves the instruction via persisted element templates. The
// chosen element is re-matched against a fresh capture right before acting,
// so it is found even if the screen shifted since resolution.
func (a *Agent) RunTemplate(ctx context.Context, instruction string) error {
	fmt.Fprintln(a.out, "Capturing screen...")
	snap, err := a.capture()
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Analyzing desktop elements...")
	elements, err := a.resolver.IdentifyElements(ctx, snap.png, snap.bounds)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Found %d clickable elements\n", len(elements))

	if a.opts.Advanced {
		return a.runAdvanced(ctx, instruction, elements, snap)
	}

	fmt.Fprintln(a.out, "Extracting element templates...")
	templates, err := a.store.SaveCrops(snap.original, scaleElements(elements, snap.scale))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Extracted %d templates\n", len(templates))

	fmt.Fprintln(a.out, "Processing your request...")
	sel, err := a.resolver.SelectTarget(ctx, instruction, elements)
	if err != nil {
		return err
	}
	kind, err := vision.BasicKind(sel.Action)
	if err != nil {
		return err
	}

	action := input.Action{
		Kind:      kind,
		Content:   sel.Params.Content,
		Direction: sel.Params.Direction,
		Keys:      joinKeys(sel.Params.Keys),
		Reasoning: sel.Reasoning,
	}

	fmt.Fprintf(a.out, "Target: %s\n", sel.TargetElement)
	ok, err := a.gate.Confirm(action)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Action cancelled.")
		return nil
	}

	fmt.Fprintln(a.out, "Locating target on screen...")
	tmpl, found := templates[sel.TargetElement]
	if !found {
		return fmt.Errorf("no template stored for target %q", sel.TargetElement)
	}
	match, err := a.locate(tmpl.Label)
	if err != nil {
		return fmt.Errorf("could not locate %q on screen: %w", sel.TargetElement, err)
	}
	action.Start = &match.Box

	if kind == input.KindDrag {
		endTmpl, found := templates[sel.Params.EndTarget]
		if !found {
			return fmt.Errorf("no template stored for drag destination %q", sel.Params.EndTarget)
		}
		endMatch, err := a.locate(endTmpl.Label)
		if err != nil {
			return fmt.Errorf("could not locate drag destination %q: %w", sel.Params.EndTarget, err)
		}
		action.End = &endMatch.Box
	}

	return a.dispatch(action)
}

// runAdvanced lets the model choose directly from the action vocabulary.
func (a *Agent) runAdvanced(ctx context.Context, instruction string, elements []vision.Element, snap *snapshot) error {
	fmt.Fprintln(a.out, "Processing your request for advanced action...")
	action, err := a.resolver.PlanAction(ctx, instruction, elements, snap.bounds)
	if err != nil {
		return err
	}
	scaled := *action
	scaled.Start = scaleBoxPtr(action.Start, snap.scale)
	scaled.End = scaleBoxPtr(action.End, snap.scale)
	return a.execute(scaled)
}

// execute runs the gate and then dispatches.
func (a *Agent) execute(action input.Action) error {
	ok, err := a.gate.Confirm(action)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Action cancelled.")
		return nil
	}
	return a.dispatch(action)
}

func (a *Agent) dispatch(action input.Action) error {
	outcome, err := a.dispatcher.Execute(action)
	if err != nil {
		return err
	}
	switch {
	case outcome.Terminal && outcome.Message != "":
		fmt.Fprintf(a.out, "\n!!! %s !!!\n", outcome.Message)
	case outcome.Terminal:
		fmt.Fprintln(a.out, "Task completed.")
	default:
		fmt.Fprintln(a.out, "Action completed successfully!")
	}
	return nil
}

// locate re-matches a stored template against the live screen: one fresh
// capture, and on a miss one more after a short pause. Anything beyond that
// goes back to the user.
func (a *Agent) locate(label string) (*template.Match, error) {
	tmpl, err := a.store.Load(label)
	if err != nil {
		return nil, err
	}
	current, err := a.capturer.Capture()
	if err != nil {
		return nil, err
	}
	match, err := a.matcher.Find(tmpl, current)
	if err == nil {
		return match, nil
	}
	if !errors.Is(err, template.ErrNotFound) {
		return nil, err
	}

	a.log.Debug("template miss, re-capturing once", zap.String("label", label))
	time.Sleep(a.opts.MatchRetryDelay)
	current, err = a.capturer.Capture()
	if err != nil {
		return nil, err
	}
	return a.matcher.Find(tmpl, current)
}

func joinKeys(keys []string) string {
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += "+"
		}
		out += k
	}
	return out
}

func scalePoint(p image.Point, f float64) image.Point {
	return image.Pt(int(float64(p.X)*f), int(float64(p.Y)*f))
}

func scaleBox(b input.Box, f float64) input.Box {
	return input.Box{
		X1: int(float64(b.X1) * f),
		Y1: int(float64(b.Y1) * f),
		X2: int(float64(b.X2) * f),
		Y2: int(float64(b.Y2) * f),
	}
}

func scaleBoxPtr(b *input.Box, f float64) *input.Box {
	if b == nil {
		return nil
	}
	scaled := scaleBox(*b, f)
	return &scaled
}

func scaleElements(elements []vision.Element, f float64) []vision.Element {
	if f == 1.0 {
		return elements
	}
	out := make([]vision.Element, len(elements))
	for i, e := range elements {
		out[i] = e
		out[i].Box = scaleBox(e.Box, f)
	}
	return out
}
