package recorder

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motion-recorder-go/internal/models"
)

func TestFileNameFor(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "motion_20250102_030405.mp4", FileNameFor(ts))
}

func TestResolveDestinationAvoidsExistingFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	now := time.Date(2025, 6, 7, 18, 30, 0, 0, time.UTC)
	cfg := StorageConfig{Mode: models.StorageModePrivate, FolderName: "Yard", PrivateRoot: root}

	want := []string{
		"motion_20250607_183000.mp4",
		"motion_20250607_183000_1.mp4",
		"motion_20250607_183000_2.mp4",
	}
	for _, name := range want {
		dest, err := ResolveDestination(cfg, now)
		require.NoError(t, err)
		assert.Equal(t, name, dest.FileName)
		assert.Equal(t, filepath.Join(root, "Yard", name), dest.Path)
		require.NoError(t, os.WriteFile(dest.Path, nil, 0644))
	}
}

func TestResolveDestination(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 7, 18, 30, 0, 0, time.UTC)

	t.Run("private mode", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		dest, err := ResolveDestination(StorageConfig{
			Mode:        models.StorageModePrivate,
			FolderName:  "Yard",
			PrivateRoot: root,
			PublicRoot:  t.TempDir(),
		}, now)
		require.NoError(t, err)
		assert.Equal(t, models.StorageModePrivate, dest.Mode)
		assert.Equal(t, filepath.Join(root, "Yard", "motion_20250607_183000.mp4"), dest.Path)
		assert.DirExists(t, dest.Dir)
	})

	t.Run("public mode", func(t *testing.T) {
		t.Parallel()
		public := t.TempDir()
		dest, err := ResolveDestination(StorageConfig{
			Mode:        models.StorageModePublic,
			FolderName:  "Yard",
			PrivateRoot: t.TempDir(),
			PublicRoot:  public,
		}, now)
		require.NoError(t, err)
		assert.Equal(t, models.StorageModePublic, dest.Mode)
		assert.Equal(t, filepath.Join(public, "Yard"), dest.Dir)
	})

	t.Run("public mode falls back without public root", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		dest, err := ResolveDestination(StorageConfig{
			Mode:        models.StorageModePublic,
			PrivateRoot: root,
		}, now)
		require.NoError(t, err)
		assert.Equal(t, models.StorageModePrivate, dest.Mode)
		assert.Equal(t, filepath.Join(root, DefaultFolderName), dest.Dir)
	})

	t.Run("public mode falls back when root is unusable", func(t *testing.T) {
		t.Parallel()
		blocker := filepath.Join(t.TempDir(), "not-a-dir")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

		dest, err := ResolveDestination(StorageConfig{
			Mode:        models.StorageModePublic,
			PrivateRoot: t.TempDir(),
			PublicRoot:  blocker,
		}, now)
		require.NoError(t, err)
		assert.Equal(t, models.StorageModePrivate, dest.Mode)
	})

	t.Run("blank folder uses default", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		dest, err := ResolveDestination(StorageConfig{FolderName: "   ", PrivateRoot: root}, now)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, DefaultFolderName), dest.Dir)
	})

	t.Run("folder cannot escape root", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		dest, err := ResolveDestination(StorageConfig{FolderName: "../../etc", PrivateRoot: root}, now)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "etc"), dest.Dir)
	})

	t.Run("missing private root", func(t *testing.T) {
		t.Parallel()
		_, err := ResolveDestination(StorageConfig{}, now)
		assert.Error(t, err)
	})
}
