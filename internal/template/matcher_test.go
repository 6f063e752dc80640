package template

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFindLocatesEmbeddedTemplate(t *testing.T) {
	screen := patternImage(120, 90, 7)
	tmpl := cropImage(screen, image.Rect(40, 25, 64, 49))

	m := NewMatcher(0.8, zap.NewNop())
	match, err := m.Find(tmpl, screen)
	require.NoError(t, err)

	assert.Equal(t, 40, match.Box.X1)
	assert.Equal(t, 25, match.Box.Y1)
	assert.Equal(t, image.Pt(52, 37), match.Center)
	assert.GreaterOrEqual(t, match.Score, 0.8)
}

func TestFindBelowThresholdReturnsNotFound(t *testing.T) {
	// Independent noise patterns: the best correlation stays far below the
	// threshold, and the matcher must say "not found" instead of guessing.
	screen := patternImage(120, 90, 11)
	tmpl := patternImage(24, 24, 201)

	m := NewMatcher(0.8, zap.NewNop())
	_, err := m.Find(tmpl, screen)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindRejectsOversizedTemplate(t *testing.T) {
	screen := patternImage(50, 50, 1)
	tmpl := patternImage(100, 100, 1)

	m := NewMatcher(0.8, zap.NewNop())
	_, err := m.Find(tmpl, screen)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestNewMatcherClampsBadThreshold(t *testing.T) {
	m := NewMatcher(0, zap.NewNop())
	assert.InDelta(t, 0.8, m.confidence, 1e-9)

	m = NewMatcher(1.5, zap.NewNop())
	assert.InDelta(t, 0.8, m.confidence, 1e-9)
}
