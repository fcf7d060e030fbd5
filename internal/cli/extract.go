package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mgpai22/vidscribe/internal/audio"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [media_file]",
	Short: "Extract the audio track the engine would receive",
	Long: `Extract the audio track from a video or audio file using the same
normalization applied when preprocessing is enabled (16 kHz mono WAV by
default). Useful to check what the recognition engine hears.

Examples:
  vidscribe extract video.mp4
  vidscribe extract video.mp4 -o audio.mp3 -f mp3
  vidscribe extract video.mp4 --sample-rate 44100 --channels 2`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	defaults := audio.DefaultOptions()
	extractCmd.Flags().StringP("output", "o", "", "Output file path")
	extractCmd.Flags().
		StringP("format", "f", defaults.Format, "Output audio format (wav, mp3)")
	extractCmd.Flags().
		IntP("sample-rate", "r", defaults.SampleRate, "Sample rate in Hz (e.g., 16000, 44100, 48000)")
	extractCmd.Flags().
		Int("channels", defaults.Channels, "Number of audio channels (1=mono, 2=stereo)")
	extractCmd.Flags().
		StringP("bitrate", "b", "", "Bitrate for mp3 output (e.g., 64k, 128k)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	mediaPath := args[0]

	format, _ := cmd.Flags().GetString("format")
	sampleRate, _ := cmd.Flags().GetInt("sample-rate")
	channels, _ := cmd.Flags().GetInt("channels")
	bitrate, _ := cmd.Flags().GetString("bitrate")
	outputPath, _ := cmd.Flags().GetString("output")

	format = strings.ToLower(format)
	if format != "wav" && format != "mp3" {
		return fmt.Errorf("invalid format %q: supported formats are wav, mp3", format)
	}
	if !audio.IsMediaFile(mediaPath) {
		return fmt.Errorf("unsupported file type: %s (expected audio or video file)", filepath.Ext(mediaPath))
	}

	opts := audio.Options{
		Format:     format,
		SampleRate: sampleRate,
		Channels:   channels,
		Bitrate:    bitrate,
	}

	if outputPath == "" {
		outputPath = strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + opts.Extension()
	}
	if filepath.Clean(outputPath) == filepath.Clean(mediaPath) {
		return fmt.Errorf("output path must differ from the input")
	}

	logger.Infow("Extracting audio",
		"input", mediaPath,
		"output", outputPath,
		"format", format,
		"sample_rate", sampleRate,
		"channels", channels,
	)

	if err := audio.Normalize(cmd.Context(), mediaPath, outputPath, opts); err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Audio extracted successfully: %s\n", absOutput)

	if d, err := audio.GetDuration(cmd.Context(), outputPath); err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "  Duration: %s\n", d.Round(time.Second))
	}

	return nil
}
