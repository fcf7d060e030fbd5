package ffmpeg

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// resolved tool locations
type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

// ErrNotFound is returned when ffmpeg or ffprobe cannot be located.
var ErrNotFound = errors.New("ffmpeg not found: install it or set VIDSCRIBE_FFMPEG_PATH and VIDSCRIBE_FFPROBE_PATH")

var (
	ensureOnce sync.Once
	ensureErr  error
	ensurePath BinaryPaths
)

// resolves the binaries once per process
func Ensure() (BinaryPaths, error) {
	ensureOnce.Do(func() {
		ensurePath, ensureErr = locate(os.Getenv, exec.LookPath)
	})
	return ensurePath, ensureErr
}

func FFmpegPath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFmpeg, nil
}

func FFprobePath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFprobe, nil
}

// env overrides win, then PATH lookup
func locate(getenv func(string) string, lookPath func(string) (string, error)) (BinaryPaths, error) {
	paths := BinaryPaths{
		FFmpeg:  getenv("VIDSCRIBE_FFMPEG_PATH"),
		FFprobe: getenv("VIDSCRIBE_FFPROBE_PATH"),
	}

	if paths.FFmpeg == "" {
		found, err := lookPath("ffmpeg")
		if err != nil {
			return BinaryPaths{}, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		paths.FFmpeg = found
	}
	if paths.FFprobe == "" {
		found, err := lookPath("ffprobe")
		if err != nil {
			return BinaryPaths{}, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		paths.FFprobe = found
	}

	return paths, nil
}
