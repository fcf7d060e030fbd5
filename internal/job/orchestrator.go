package job

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mgpai22/vidscribe/internal/audio"
	"github.com/mgpai22/vidscribe/internal/logging"
	"github.com/mgpai22/vidscribe/internal/transcribe"
)

// default request parameters
const (
	DefaultModelSize = "medium"
	DefaultDevice    = "cpu"
)

// Params are the per-request engine choices. Empty fields take the
// orchestrator defaults.
type Params struct {
	ModelSize string
	Device    string
}

// Job is one accepted transcription request.
type Job struct {
	ID        string
	Filename  string
	ModelSize string
	Device    string

	// InputPath is where the upload was stored. It no longer exists once
	// Transcribe has returned.
	InputPath string

	Result *transcribe.Result
}

// Close releases the engine output if the segments were not fully read.
func (j *Job) Close() error {
	if j == nil {
		return nil
	}
	return j.Result.Close()
}

type Config struct {
	Provider transcribe.Provider
	Factory  transcribe.FactoryFunc

	// Engine carries provider settings shared by every job. ModelSize and
	// Device here are the defaults for requests that leave them empty.
	Engine transcribe.Options

	TempDir    string
	Preprocess bool
	Logger     *logging.Logger
}

// Orchestrator stores uploads in scoped temp directories and runs a fresh
// engine over each one.
type Orchestrator struct {
	provider   transcribe.Provider
	factory    transcribe.FactoryFunc
	engine     transcribe.Options
	tempDir    string
	preprocess bool
	logger     *logging.Logger
}

func New(cfg Config) *Orchestrator {
	if cfg.Provider == "" {
		cfg.Provider = transcribe.ProviderFasterWhisper
	}
	if cfg.Factory == nil {
		cfg.Factory = transcribe.ProviderFactory(cfg.Provider)
	}
	if cfg.Engine.ModelSize == "" {
		cfg.Engine.ModelSize = DefaultModelSize
	}
	if cfg.Engine.Device == "" {
		cfg.Engine.Device = DefaultDevice
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}

	return &Orchestrator{
		provider:   cfg.Provider,
		factory:    cfg.Factory,
		engine:     cfg.Engine,
		tempDir:    cfg.TempDir,
		preprocess: cfg.Preprocess,
		logger:     cfg.Logger,
	}
}

// Transcribe stores upload, runs the engine on it and returns the job with
// its lazy result. Every error is a *Failure matching ErrTranscription. The
// stored upload is removed before Transcribe returns, whatever the outcome.
func (o *Orchestrator) Transcribe(
	ctx context.Context,
	upload io.Reader,
	filename string,
	params Params,
) (*Job, error) {
	j := &Job{
		ID:       uuid.NewString(),
		Filename: filename,
	}
	log := o.logger.With("job_id", j.ID, "filename", filename)

	modelSize, device, err := o.resolve(params)
	if err != nil {
		log.Warnw("Rejected transcription parameters", "error", err)
		return nil, &Failure{Kind: KindInvalidParams, Err: err}
	}
	j.ModelSize, j.Device = modelSize, device

	dir, err := os.MkdirTemp(o.tempDir, "vidscribe-*")
	if err != nil {
		return nil, o.fail(log, KindUpload, fmt.Errorf("create temp dir: %w", err))
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warnw("Failed to remove temp dir", "dir", dir, "error", err)
		}
	}()

	j.InputPath = filepath.Join(dir, "upload"+uploadExt(filename))
	size, err := saveUpload(j.InputPath, upload)
	if err != nil {
		return nil, o.fail(log, KindUpload, err)
	}
	log.Debugw("Stored upload", "path", j.InputPath, "bytes", size)

	audioPath := j.InputPath
	if o.preprocess {
		opts := o.audioOptions()
		audioPath = filepath.Join(dir, "audio"+opts.Extension())
		if err := audio.Normalize(ctx, j.InputPath, audioPath, opts); err != nil {
			return nil, o.fail(log, KindMedia, fmt.Errorf("%w: %v", transcribe.ErrMedia, err))
		}
		if d, err := audio.GetDuration(ctx, audioPath); err == nil {
			log.Debugw("Normalized audio", "path", audioPath, "duration", d)
		}
	}

	engineOpts := o.engine
	engineOpts.ModelSize = modelSize
	engineOpts.Device = device

	engine, err := o.factory(ctx, engineOpts)
	if err != nil {
		return nil, o.fail(log, Classify(err), fmt.Errorf("create %s engine: %w", o.provider, err))
	}

	log.Infow("Transcribing",
		"provider", o.provider,
		"model_size", modelSize,
		"device", device,
	)

	result, err := engine.Transcribe(ctx, audioPath, transcribe.DefaultDecodeOptions())
	if err != nil {
		return nil, o.fail(log, Classify(err), err)
	}

	log.Infow("Detected language",
		"language", result.Info.Language,
		"probability", result.Info.LanguageProbability,
	)

	j.Result = result
	return j, nil
}

// applies defaults and checks the request parameters
func (o *Orchestrator) resolve(params Params) (string, string, error) {
	modelSize := strings.TrimSpace(params.ModelSize)
	if modelSize == "" {
		modelSize = o.engine.ModelSize
	}
	device := strings.ToLower(strings.TrimSpace(params.Device))
	if device == "" {
		device = o.engine.Device
	}

	if o.provider == transcribe.ProviderFasterWhisper {
		if !transcribe.ValidModelSize(modelSize) {
			return "", "", fmt.Errorf("unknown model size %q", modelSize)
		}
	} else if strings.ContainsAny(modelSize, `/\ `) {
		return "", "", fmt.Errorf("invalid model size %q", modelSize)
	}
	if !transcribe.ValidDevice(device) {
		return "", "", fmt.Errorf("unknown device %q", device)
	}
	return modelSize, device, nil
}

// hosted engines get compressed audio to stay under their upload limits
func (o *Orchestrator) audioOptions() audio.Options {
	if o.provider == transcribe.ProviderFasterWhisper {
		return audio.DefaultOptions()
	}
	return audio.CompressedOptions()
}

func (o *Orchestrator) fail(log *logging.Logger, kind Kind, err error) error {
	log.Errorw("Transcription failed", "kind", kind, "error", err)
	return &Failure{Kind: kind, Err: err}
}

// copies the whole upload into path
func saveUpload(path string, upload io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create upload file: %w", err)
	}

	n, err := io.Copy(f, upload)
	if err != nil {
		_ = f.Close()
		return n, fmt.Errorf("store upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("close upload file: %w", err)
	}
	return n, nil
}

// keeps a short alphanumeric extension so engines can sniff the container
func uploadExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
