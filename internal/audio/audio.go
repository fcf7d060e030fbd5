package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/mgpai22/vidscribe/internal/ffmpeg"
)

// settings for normalizing uploads before recognition
type Options struct {
	Format     string // Output format (wav, mp3)
	SampleRate int    // Sample rate in Hz
	Channels   int    // Number of channels (1=mono, 2=stereo)
	Bitrate    string // Bitrate for mp3 (e.g., "64k")
}

// 16 kHz mono PCM, what whisper models consume natively
func DefaultOptions() Options {
	return Options{
		Format:     "wav",
		SampleRate: 16000,
		Channels:   1,
	}
}

// small mono mp3, for engines behind an upload size limit
func CompressedOptions() Options {
	return Options{
		Format:     "mp3",
		SampleRate: 16000,
		Channels:   1,
		Bitrate:    "64k",
	}
}

// file extension produced for the options
func (o Options) Extension() string {
	if o.Format == "mp3" {
		return ".mp3"
	}
	return ".wav"
}

// ffmpeg output arguments for the options
func (o Options) kwargs() ffmpeg.KwArgs {
	kwargs := ffmpeg.KwArgs{
		"vn": "",           // No video
		"ar": o.SampleRate, // Sample rate
		"ac": o.Channels,   // Channels
	}

	switch o.Format {
	case "mp3":
		kwargs["acodec"] = "libmp3lame"
		if o.Bitrate != "" {
			kwargs["b:a"] = o.Bitrate
		}
	default:
		kwargs["acodec"] = "pcm_s16le"
	}
	return kwargs
}

// extracts the audio track of inputPath into outputPath using opts
func Normalize(ctx context.Context, inputPath, outputPath string, opts Options) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return err
	}

	var stderr bytes.Buffer
	stream := ffmpeg.Input(inputPath).
		Output(outputPath, opts.kwargs()).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		WithErrorOutput(&stderr)

	cmd := stream.Compile()
	if err := runContext(ctx, cmd); err != nil {
		return fmt.Errorf("ffmpeg normalization failed: %w: %s", err, tail(stderr.String(), 400))
	}

	return nil
}

// runs cmd, killing it when ctx is done
func runContext(ctx context.Context, cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// JSON output from ffprobe
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// duration of an audio/video file
func GetDuration(ctx context.Context, filePath string) (time.Duration, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return 0, fmt.Errorf("file not found: %s", filePath)
	}

	ffprobePath, err := ffmpegbin.FFprobePath()
	if err != nil {
		return 0, err
	}

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		filePath,
	)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseProbeDuration(out.Bytes())
}

func parseProbeDuration(data []byte) (time.Duration, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	var seconds float64
	if _, err := fmt.Sscanf(probe.Format.Duration, "%f", &seconds); err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}

// checks if the file is a video based on extension
func IsVideoFile(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

// checks if the file is an audio file based on extension
func IsAudioFile(path string) bool {
	return audioExts[strings.ToLower(filepath.Ext(path))]
}

// checks if the file is either audio or video
func IsMediaFile(path string) bool {
	return IsAudioFile(path) || IsVideoFile(path)
}

var videoExts = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
}

var audioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".aac":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
	".m4a":  true,
	".wma":  true,
	".aiff": true,
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
