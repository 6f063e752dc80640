package template

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/vcaesar/gcv"
	"go.uber.org/zap"

	"github.com/v0xg/deskpilot/internal/input"
)

// ErrNotFound is returned when no match reaches the confidence threshold.
// The matcher never returns a low-confidence guess.
var ErrNotFound = errors.New("template not found on screen")

// Match is a located template on the current screen.
type Match struct {
	Center image.Point
	Box    input.Box
	Score  float64
}

// Matcher locates stored templates on a fresh screenshot via normalized
// cross-correlation.
type Matcher struct {
	confidence float64
	log        *zap.Logger
}

// NewMatcher builds a matcher with the given confidence threshold (0.8 by
// convention).
func NewMatcher(confidence float64, log *zap.Logger) *Matcher {
	if confidence <= 0 || confidence > 1 {
		confidence = 0.8
	}
	return &Matcher{confidence: confidence, log: log.Named("matcher")}
}

// Find searches screen for tmpl and returns the best match above the
// threshold, or ErrNotFound.
func (m *Matcher) Find(tmpl, screen image.Image) (*Match, error) {
	tb, sb := tmpl.Bounds(), screen.Bounds()
	if tb.Dx() > sb.Dx() || tb.Dy() > sb.Dy() {
		return nil, fmt.Errorf("template %dx%d larger than screen %dx%d", tb.Dx(), tb.Dy(), sb.Dx(), sb.Dy())
	}

	_, maxVal, _, maxLoc := gcv.FindImg(tmpl, screen)
	score := float64(maxVal)
	// Correlation on degenerate (constant-color) regions can yield NaN;
	// treat it as no match rather than letting the comparison pass.
	if math.IsNaN(score) || score < m.confidence {
		m.log.Debug("best match below threshold",
			zap.Float64("score", score), zap.Float64("threshold", m.confidence))
		return nil, fmt.Errorf("%w (best score %.3f, threshold %.3f)", ErrNotFound, score, m.confidence)
	}

	box := input.Box{
		X1: maxLoc.X,
		Y1: maxLoc.Y,
		X2: maxLoc.X + tb.Dx(),
		Y2: maxLoc.Y + tb.Dy(),
	}
	return &Match{Center: box.Center(), Box: box, Score: score}, nil
}
