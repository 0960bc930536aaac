package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestValidateMediaFiles(t *testing.T) {
	camera := writeFile(t, "camera.ivf", []byte("DKIF"))
	mic := writeFile(t, "mic.OGG", []byte("OggS"))

	infos, err := ValidateMediaFiles(camera, mic)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, KindVideo, infos[0].Kind)
	assert.Equal(t, "video/vp8", infos[0].MimeType)
	assert.Equal(t, "camera.ivf", infos[0].Name)
	assert.True(t, filepath.IsAbs(infos[0].Path))

	assert.Equal(t, KindAudio, infos[1].Kind)
	assert.Equal(t, "audio/opus", infos[1].MimeType)
}

func TestValidateMediaFilesNone(t *testing.T) {
	infos, err := ValidateMediaFiles("", "")
	assert.NoError(t, err)
	assert.Empty(t, infos)
}

func TestValidateMediaFilesErrors(t *testing.T) {
	empty := writeFile(t, "camera.h264", nil)
	wrongKind := writeFile(t, "voice.ogg", []byte("OggS"))
	unknown := writeFile(t, "mic.mp3", []byte("ID3"))

	_, err := ValidateMediaFiles(empty, unknown)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file is empty")
	assert.Contains(t, err.Error(), "unsupported format for microphone (want .ogg)")

	_, err = ValidateMediaFiles(wrongKind, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "microphone file cannot be published as camera")

	_, err = ValidateMediaFiles(filepath.Join(t.TempDir(), "missing.ivf"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file does not exist")

	_, err = ValidateMediaFiles(t.TempDir(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}
