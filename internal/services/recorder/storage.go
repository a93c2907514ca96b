package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"motion-recorder-go/internal/models"
)

const (
	// DefaultFolderName is used when the configured folder name is blank
	DefaultFolderName = "MotionRecorder"

	fileNameLayout = "20060102_150405"
	fileExtension  = ".mp4"
)

// StorageConfig describes where a recording should be written
type StorageConfig struct {
	Mode       models.StorageMode
	FolderName string

	PrivateRoot string // Root of the private application directory
	PublicRoot  string // Root of the shared media directory; empty when unsupported
}

// Destination is the resolved write target handed to a sink
type Destination struct {
	Mode     models.StorageMode // Mode actually used after fallback
	Dir      string
	FileName string
	Path     string
}

// FileNameFor returns the recording file name for a start time
func FileNameFor(t time.Time) string {
	return "motion_" + t.Format(fileNameLayout) + fileExtension
}

// uniqueFileName returns FileNameFor(t), or the first free variant with a
// numeric suffix when dir already holds a recording started in that second
func uniqueFileName(dir string, t time.Time) string {
	name := FileNameFor(t)
	base := strings.TrimSuffix(name, fileExtension)
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(dir, name)); os.IsNotExist(err) {
			return name
		}
		name = fmt.Sprintf("%s_%d%s", base, i, fileExtension)
	}
}

// ResolveDestination picks the directory for cfg, creates it and returns the
// output path. Public mode falls back to private when the public root is not
// configured or cannot be created. Existing files are never reused.
func ResolveDestination(cfg StorageConfig, now time.Time) (Destination, error) {
	folder := strings.TrimSpace(cfg.FolderName)
	if folder == "" {
		folder = DefaultFolderName
	}
	// Folder name is a single path element
	folder = filepath.Base(filepath.Clean(folder))
	if folder == "." || folder == string(filepath.Separator) || folder == ".." {
		folder = DefaultFolderName
	}

	if cfg.Mode == models.StorageModePublic && cfg.PublicRoot != "" {
		dir := filepath.Join(cfg.PublicRoot, folder)
		if err := os.MkdirAll(dir, 0755); err == nil {
			fileName := uniqueFileName(dir, now)
			return Destination{
				Mode:     models.StorageModePublic,
				Dir:      dir,
				FileName: fileName,
				Path:     filepath.Join(dir, fileName),
			}, nil
		}
	}

	if cfg.PrivateRoot == "" {
		return Destination{}, fmt.Errorf("private storage root not configured")
	}
	dir := filepath.Join(cfg.PrivateRoot, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Destination{}, fmt.Errorf("failed to create output directory: %w", err)
	}
	fileName := uniqueFileName(dir, now)

	return Destination{
		Mode:     models.StorageModePrivate,
		Dir:      dir,
		FileName: fileName,
		Path:     filepath.Join(dir, fileName),
	}, nil
}
