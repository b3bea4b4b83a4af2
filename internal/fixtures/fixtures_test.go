// internal/fixtures/fixtures_test.go
package fixtures

import (
	"bytes"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestWrite(t *testing.T) {
	f, ok := Lookup("test-16-pages.pdf")
	require.True(t, ok)

	var first, second bytes.Buffer
	require.NoError(t, Write(&first, f, rand.New(rand.NewPCG(7, 16))))
	require.NoError(t, Write(&second, f, rand.New(rand.NewPCG(7, 16))))

	assert.True(t, bytes.HasPrefix(first.Bytes(), []byte("%PDF-")))
	assert.Contains(t, first.String(), "/Count 16")
	assert.Equal(t, first.Bytes(), second.Bytes(), "same seed must give identical output")

	var third bytes.Buffer
	require.NoError(t, Write(&third, f, rand.New(rand.NewPCG(8, 16))))
	assert.NotEqual(t, first.Bytes(), third.Bytes())
}

func TestWrite_InvalidPages(t *testing.T) {
	err := Write(&bytes.Buffer{}, Fixture{Name: "empty.pdf"}, rand.New(rand.NewPCG(1, 1)))
	assert.ErrorContains(t, err, "page count must be positive")
}

func TestBuiltins(t *testing.T) {
	names := make([]string, 0, 3)
	for _, f := range Builtins() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"test-verify.pdf", "test-16-pages.pdf", "test-1-page.pdf"}, names)

	verify, ok := Lookup("test-verify.pdf")
	require.True(t, ok)
	assert.Equal(t, 1, verify.Pages)
	assert.Equal(t, "Verify", verify.Label(1))

	sixteen, _ := Lookup("test-16-pages.pdf")
	assert.Equal(t, "Page 12", sixteen.Label(12))
	assert.Equal(t, 500, sixteen.Rects)

	_, ok = Lookup("missing.pdf")
	assert.False(t, ok)
}

func TestGenerate(t *testing.T) {
	logger := zaptest.NewLogger(t)
	dir := filepath.Join(t.TempDir(), "fixtures")

	written, err := Generate(dir, Builtins(), Options{Seed: 1}, logger)
	require.NoError(t, err)
	require.Len(t, written, 3)
	for _, path := range written {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	t.Run("existing files are kept", func(t *testing.T) {
		path := filepath.Join(dir, "test-verify.pdf")
		require.NoError(t, os.WriteFile(path, []byte("sentinel"), 0o644))

		written, err := Generate(dir, Builtins()[:1], Options{Seed: 1}, logger)
		require.NoError(t, err)
		assert.Empty(t, written)
		data, _ := os.ReadFile(path)
		assert.Equal(t, "sentinel", string(data))
	})

	t.Run("overwrite replaces files", func(t *testing.T) {
		written, err := Generate(dir, Builtins()[:1], Options{Seed: 1, Overwrite: true}, logger)
		require.NoError(t, err)
		require.Len(t, written, 1)
		data, _ := os.ReadFile(written[0])
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	})
}
