package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/mgpai22/vidscribe/internal/audio"
	"github.com/mgpai22/vidscribe/internal/job"
	"github.com/mgpai22/vidscribe/internal/subtitle"
	"github.com/spf13/cobra"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [media_file]",
	Short: "Generate subtitles for a local audio or video file",
	Long: `Transcribe the specified audio or video file and write an SRT file.

Without --output the file is written to the configured output directory,
named after the input file.

Examples:
  vidscribe transcribe talk.mp4
  vidscribe transcribe talk.mp4 -o talk.srt --model-size small
  vidscribe transcribe podcast.mp3 --device cuda --print
  vidscribe transcribe interview.wav --provider openai`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)

	transcribeCmd.Flags().StringP("output", "o", "", "Output file path")
	transcribeCmd.Flags().String("model-size", "", "Whisper model size (default from config, medium)")
	transcribeCmd.Flags().String("device", "", "Compute device: cpu, cuda or auto")
	transcribeCmd.Flags().String("provider", "", "Recognition engine: faster-whisper, openai or gemini")
	transcribeCmd.Flags().StringP("language", "l", "", "Language code (e.g., en, es, fr), empty to auto-detect")
	transcribeCmd.Flags().Bool("print", false, "Also print the subtitles to stdout")
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	mediaPath := args[0]

	if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", mediaPath)
	}
	if !audio.IsMediaFile(mediaPath) {
		return fmt.Errorf("unsupported file type: %s (expected audio or video file)", filepath.Ext(mediaPath))
	}

	outputPath, _ := cmd.Flags().GetString("output")
	modelSize, _ := cmd.Flags().GetString("model-size")
	device, _ := cmd.Flags().GetString("device")
	printSubs, _ := cmd.Flags().GetBool("print")

	if provider, _ := cmd.Flags().GetString("provider"); provider != "" {
		cfg.Transcription.Provider = provider
	}
	if language, _ := cmd.Flags().GetString("language"); language != "" {
		cfg.Transcription.Language = language
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	orchestrator, err := newOrchestrator(cfg, logger)
	if err != nil {
		return err
	}

	src, err := os.Open(mediaPath)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer src.Close()

	logger.Infow("Starting subtitle generation",
		"input", mediaPath,
		"provider", cfg.Transcription.Provider,
	)

	filename := filepath.Base(mediaPath)
	j, err := orchestrator.Transcribe(ctx, src, filename, job.Params{
		ModelSize: modelSize,
		Device:    device,
	})
	if err != nil {
		return err
	}
	defer j.Close()

	store := newStore(cfg)
	if outputPath == "" {
		outputPath, err = store.Path(filename, j.ID)
		if err != nil {
			return err
		}
	}

	var entries int
	err = store.Write(outputPath, func(w io.Writer) error {
		if printSubs {
			w = io.MultiWriter(w, cmd.OutOrStdout())
		}
		n, err := subtitle.NewSRTWriter().Write(w, j.Result.Segments)
		entries = n
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write subtitles: %w", err)
	}

	out := cmd.OutOrStdout()
	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(out, "Subtitles generated successfully: %s\n", absOutput)
	fmt.Fprintf(out, "  Entries: %d\n", entries)
	if info := j.Result.Info; info.Language != "" {
		fmt.Fprintf(out, "  Language: %s (%.2f)\n", info.Language, info.LanguageProbability)
	}
	if d := j.Result.Info.Duration; d > 0 {
		fmt.Fprintf(out, "  Duration: %s\n", time.Duration(d*float64(time.Second)).Round(time.Second))
	}

	return nil
}
