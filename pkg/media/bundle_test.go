package media

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundle_Resolve(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "overlay.mp4"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "intro.mov"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "clips.mov"), 0o755))

	b := NewBundle(dir, nil)

	path, err := b.Resolve("overlay")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "overlay.mp4"), path)

	path, err = b.Resolve("intro.mov")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "intro.mov"), path)

	_, err = b.Resolve("clips")
	assert.ErrorIs(t, err, ErrResourceNotFound, "directories are not media")

	_, err = b.Resolve("missing")
	assert.ErrorIs(t, err, ErrResourceNotFound)

	_, err = b.Resolve("")
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestBundle_ExtensionOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "overlay.mp4"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "overlay.mov"), []byte("x"), 0o644))

	path, err := NewBundle(dir, nil).Resolve("overlay")
	require.NoError(t, err)
	assert.Equal(t, ".mov", filepath.Ext(path))

	path, err = NewBundle(dir, nil, ".mp4").Resolve("overlay")
	require.NoError(t, err)
	assert.Equal(t, ".mp4", filepath.Ext(path))
}

func TestBundle_Open(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "overlay.mp4"), []byte("x"), 0o644))

	var opened string
	b := NewBundle(dir, func(path string) (Player, error) {
		opened = path
		return NewClockPlayer(time.Second), nil
	})

	p, err := b.Open("overlay")
	require.NoError(t, err)
	assert.NotNil(t, p)
	assert.Equal(t, filepath.Join(dir, "overlay.mp4"), opened)

	_, err = b.Open("nope")
	assert.ErrorIs(t, err, ErrResourceNotFound)

	broken := NewBundle(dir, func(string) (Player, error) { return nil, errors.New("codec") })
	_, err = broken.Open("overlay")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrResourceNotFound)
}

func TestCatalog(t *testing.T) {
	c := Catalog{"overlay": 3 * time.Second, "bad": 0, "intro": time.Second}

	p, err := c.Open("overlay")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, p.Duration())

	_, err = c.Open("missing")
	assert.ErrorIs(t, err, ErrResourceNotFound)

	_, err = c.Open("bad")
	require.Error(t, err)

	assert.Equal(t, []string{"bad", "intro", "overlay"}, c.Names())
}
