package template

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	"github.com/vcaesar/imgo"
	"go.uber.org/zap"

	"github.com/v0xg/deskpilot/internal/input"
	"github.com/v0xg/deskpilot/internal/vision"
)

// Template records one persisted element crop.
type Template struct {
	Label       string
	File        string
	Box         input.Box
	Type        string
	Description string
}

// Store persists element crops as one PNG per label under a directory. Crops
// survive across sessions; a later save for the same label overwrites.
type Store struct {
	dir string
	log *zap.Logger
}

// NewStore opens (and creates if needed) the template directory.
func NewStore(dir string, log *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create template dir %s: %w", dir, err)
	}
	return &Store{dir: dir, log: log.Named("template")}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// SaveCrops cuts each element's bounding box out of the screenshot and
// persists it keyed by the element name. A duplicate name within one batch
// gets a numeric suffix so no crop silently shadows another.
func (s *Store) SaveCrops(screenshot image.Image, elements []vision.Element) (map[string]Template, error) {
	templates := make(map[string]Template, len(elements))
	seen := make(map[string]int, len(elements))

	for _, e := range elements {
		if e.Name == "" {
			continue
		}
		label := Sanitize(e.Name)
		seen[label]++
		if n := seen[label]; n > 1 {
			label = fmt.Sprintf("%s_%d", label, n)
		}

		crop := cropImage(screenshot, e.Box.Rect())
		if crop.Bounds().Empty() {
			s.log.Warn("skipping element with empty crop", zap.String("name", e.Name))
			continue
		}

		path := filepath.Join(s.dir, label+".png")
		if err := imgo.Save(path, crop); err != nil {
			return nil, fmt.Errorf("failed to save template for %q: %w", e.Name, err)
		}

		templates[e.Name] = Template{
			Label:       label,
			File:        path,
			Box:         e.Box,
			Type:        e.Type,
			Description: e.Description,
		}
		s.log.Debug("extracted template", zap.String("name", e.Name), zap.String("file", path))
	}
	return templates, nil
}

// Load reads a template image back by label.
func (s *Store) Load(label string) (image.Image, error) {
	path := filepath.Join(s.dir, Sanitize(label)+".png")
	img, _, err := imgo.DecodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load template %q: %w", label, err)
	}
	return img, nil
}

// List returns the labels currently stored.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read template dir: %w", err)
	}
	var labels []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".png") {
			continue
		}
		labels = append(labels, strings.TrimSuffix(e.Name(), ".png"))
	}
	return labels, nil
}

// Sanitize maps an element name onto a safe filename stem: lowercase with
// every non-alphanumeric rune replaced by an underscore.
func Sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// cropImage copies exactly the pixels inside r (clamped to the source
// bounds) into a fresh image anchored at the origin.
func cropImage(src image.Image, r image.Rectangle) *image.RGBA {
	r = r.Intersect(src.Bounds())
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)
	return dst
}
