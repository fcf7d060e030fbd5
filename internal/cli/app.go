package cli

import (
	"fmt"

	"github.com/mgpai22/vidscribe/internal/config"
	"github.com/mgpai22/vidscribe/internal/ffmpeg"
	"github.com/mgpai22/vidscribe/internal/job"
	"github.com/mgpai22/vidscribe/internal/logging"
	"github.com/mgpai22/vidscribe/internal/output"
	"github.com/mgpai22/vidscribe/internal/transcribe"
)

// engine factory per provider, replaced in tests
var newFactory = transcribe.ProviderFactory

// builds engine options from the transcription config
func engineOptions(c *config.Config) transcribe.Options {
	t := c.Transcription
	opts := transcribe.Options{
		ModelSize:   t.ModelSize,
		Device:      t.Device,
		ComputeType: t.ComputeType,
		CPUThreads:  t.CPUThreads,
		Language:    t.Language,
		Python:      t.Python,
	}

	switch transcribe.Provider(t.Provider) {
	case transcribe.ProviderOpenAI:
		opts.APIKey = t.OpenAIAPIKey
	case transcribe.ProviderGemini:
		opts.APIKey = t.GeminiAPIKey
	}
	return opts
}

func newOrchestrator(c *config.Config, log *logging.Logger) (*job.Orchestrator, error) {
	if c.Transcription.Preprocess {
		paths, err := ffmpeg.Ensure()
		if err != nil {
			return nil, fmt.Errorf("preprocessing enabled: %w", err)
		}
		log.Debugw("Using ffmpeg", "ffmpeg", paths.FFmpeg, "ffprobe", paths.FFprobe)
	}

	provider := transcribe.Provider(c.Transcription.Provider)
	return job.New(job.Config{
		Provider:   provider,
		Factory:    newFactory(provider),
		Engine:     engineOptions(c),
		TempDir:    c.Paths.TempDir,
		Preprocess: c.Transcription.Preprocess,
		Logger:     log,
	}), nil
}

func newStore(c *config.Config) *output.Store {
	return output.NewStore(c.Paths.OutputDir, c.Paths.PerJobDirs)
}
