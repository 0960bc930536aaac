package files

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Kind is the track a media file is published as.
type Kind int

const (
	KindVideo Kind = iota
	KindAudio
)

func (k Kind) String() string {
	if k == KindAudio {
		return "microphone"
	}
	return "camera"
}

// containers the LiveKit file track reader understands, by extension
var containers = map[string]struct {
	kind Kind
	mime string
}{
	".ivf":  {KindVideo, "video/vp8"},
	".h264": {KindVideo, "video/h264"},
	".ogg":  {KindAudio, "audio/opus"},
}

// FileInfo holds information about a media file to be published
type FileInfo struct {
	// Path is the absolute path to the file
	Path string

	// Name is the filename (without directory)
	Name string

	Size int64
	Kind Kind

	// MimeType is the codec the file will be published with
	MimeType string
}

// ValidateMediaFiles checks the camera and microphone files, skipping empty
// paths. All problems are reported together.
func ValidateMediaFiles(cameraPath, micPath string) ([]FileInfo, error) {
	var infos []FileInfo
	var errors []string

	for _, f := range []struct {
		path string
		kind Kind
	}{{cameraPath, KindVideo}, {micPath, KindAudio}} {
		if f.path == "" {
			continue
		}
		info, err := validateSingleFile(f.path, f.kind)
		if err != nil {
			errors = append(errors, err.Error())
			continue
		}
		infos = append(infos, info)
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("media file validation failed:\n  - %s", joinErrors(errors))
	}
	return infos, nil
}

// validateSingleFile checks a single file and returns its info
func validateSingleFile(path string, kind Kind) (FileInfo, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("%s: failed to get absolute path: %w", path, err)
	}

	stat, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return FileInfo{}, fmt.Errorf("%s: file does not exist", path)
		}
		return FileInfo{}, fmt.Errorf("%s: failed to stat file: %w", path, err)
	}
	if stat.IsDir() {
		return FileInfo{}, fmt.Errorf("%s: is a directory", path)
	}
	if stat.Size() == 0 {
		return FileInfo{}, fmt.Errorf("%s: file is empty", path)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return FileInfo{}, fmt.Errorf("%s: cannot open file (check permissions): %w", path, err)
	}
	file.Close()

	c, ok := containers[strings.ToLower(filepath.Ext(absPath))]
	if !ok {
		return FileInfo{}, fmt.Errorf("%s: unsupported format for %s (want %s)", path, kind, supported(kind))
	}
	if c.kind != kind {
		return FileInfo{}, fmt.Errorf("%s: %s file cannot be published as %s", path, c.kind, kind)
	}

	return FileInfo{
		Path:     absPath,
		Name:     filepath.Base(absPath),
		Size:     stat.Size(),
		Kind:     kind,
		MimeType: c.mime,
	}, nil
}

func supported(kind Kind) string {
	var exts []string
	for ext, c := range containers {
		if c.kind == kind {
			exts = append(exts, ext)
		}
	}
	slices.Sort(exts)
	return strings.Join(exts, ", ")
}

// joinErrors joins multiple error messages with newlines
func joinErrors(errors []string) string {
	var result strings.Builder
	for i, err := range errors {
		if i > 0 {
			result.WriteString("\n  - ")
		}
		result.WriteString(err)
	}
	return result.String()
}
