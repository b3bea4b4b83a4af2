// internal/fixtures/fixtures.go
package fixtures

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

// Fixture describes a generated PDF used as upload input.
type Fixture struct {
	Name     string
	Pages    int
	FontSize float64
	// Label returns the heading drawn on page n (1-based).
	Label  func(n int) string
	LabelX float64
	LabelY float64
	// Rects is the number of random 10mm squares drawn per page to make
	// rendering expensive.
	Rects int
}

// epoch pins document metadata so the same seed yields identical bytes.
var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Builtins lists the fixtures the built-in scenarios upload, plus a single
// page variant of the 16 page document.
func Builtins() []Fixture {
	return []Fixture{
		{
			Name:     "test-verify.pdf",
			Pages:    1,
			FontSize: 16,
			Label:    func(int) string { return "Verify" },
			LabelX:   10,
			LabelY:   10,
		},
		{
			Name:     "test-16-pages.pdf",
			Pages:    16,
			FontSize: 40,
			Label:    func(n int) string { return fmt.Sprintf("Page %d", n) },
			LabelX:   10,
			LabelY:   50,
			Rects:    500,
		},
		{
			Name:     "test-1-page.pdf",
			Pages:    1,
			FontSize: 40,
			Label:    func(int) string { return "Page 1" },
			LabelX:   10,
			LabelY:   50,
			Rects:    1,
		},
	}
}

// Lookup returns the built-in fixture with the given file name.
func Lookup(name string) (Fixture, bool) {
	for _, f := range Builtins() {
		if f.Name == name {
			return f, true
		}
	}
	return Fixture{}, false
}

// Write renders f as an A4 portrait PDF to w. rng drives rectangle placement.
func Write(w io.Writer, f Fixture, rng *rand.Rand) error {
	if f.Pages <= 0 {
		return fmt.Errorf("fixture %s: page count must be positive", f.Name)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(epoch)
	pdf.SetModificationDate(epoch)
	pdf.SetTitle(f.Name, true)
	pdf.SetCreator("zine-verify", true)

	for n := 1; n <= f.Pages; n++ {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "", f.FontSize)
		if f.Label != nil {
			pdf.Text(f.LabelX, f.LabelY, f.Label(n))
		}
		for i := 0; i < f.Rects; i++ {
			pdf.Rect(rng.Float64()*200, rng.Float64()*200, 10, 10, "D")
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("fixture %s: %w", f.Name, err)
	}
	return nil
}

// Options controls Generate.
type Options struct {
	// Overwrite replaces files that already exist.
	Overwrite bool
	Seed      uint64
}

// Generate writes fixtures into dir and returns the paths written. Existing
// files are left alone unless opts.Overwrite is set.
func Generate(dir string, fixtures []Fixture, opts Options, logger *zap.Logger) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create fixtures directory: %w", err)
	}

	var written []string
	for _, f := range fixtures {
		path := filepath.Join(dir, f.Name)
		if !opts.Overwrite {
			if _, err := os.Stat(path); err == nil {
				logger.Info("Fixture exists, skipping.", zap.String("path", path))
				continue
			} else if !errors.Is(err, os.ErrNotExist) {
				return written, fmt.Errorf("failed to stat %s: %w", path, err)
			}
		}

		if err := writeFile(path, f, rand.New(rand.NewPCG(opts.Seed, uint64(f.Pages)))); err != nil {
			return written, err
		}
		logger.Info("Created fixture.", zap.String("path", path), zap.Int("pages", f.Pages))
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, f Fixture, rng *rand.Rand) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}()
	return Write(out, f, rng)
}
