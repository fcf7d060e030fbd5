package transcribe

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"

	"github.com/mgpai22/vidscribe/internal/subtitle"
)

// Engine failure kinds. Engines wrap one of these so callers can tell causes
// apart without knowing engine-specific error types.
var (
	ErrModelLoad = errors.New("model load failed")
	ErrMedia     = errors.New("unreadable media")
	ErrDevice    = errors.New("device unavailable")
)

// transcription result. Segments is lazy and can be ranged over once.
type Result struct {
	Segments iter.Seq2[subtitle.Segment, error]
	Info     subtitle.RecognitionInfo

	closeOnce sync.Once
	closer    func() error
	closeErr  error
}

// NewResult wraps an eager segment list.
func NewResult(segments []subtitle.Segment, info subtitle.RecognitionInfo) *Result {
	return &Result{Segments: subtitle.SliceSeq(segments), Info: info}
}

// releases whatever still backs an undrained segment sequence
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	r.closeOnce.Do(func() {
		if r.closer != nil {
			r.closeErr = r.closer()
		}
	})
	return r.closeErr
}

// per-call decoding parameters
type DecodeOptions struct {
	BeamSize  int
	VADFilter bool
}

// fixed decoding parameters used for every job
func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{
		BeamSize:  5,
		VADFilter: true,
	}
}

// interface for audio transcription
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, decode DecodeOptions) (*Result, error)
}

// transcription service provider
type Provider string

const (
	ProviderFasterWhisper Provider = "faster-whisper"
	ProviderOpenAI        Provider = "openai"
	ProviderGemini        Provider = "gemini"
)

// engine construction options
type Options struct {
	ModelSize   string
	Device      string
	ComputeType string
	CPUThreads  int
	Language    string // Source language of audio, empty to auto-detect

	Python string // interpreter for the faster-whisper helper
	APIKey string
	Model  string // API model name for hosted providers
	Prompt string
}

// resolves the hosted API model: Model if set, else ModelSize when it is
// not a local whisper size, else fallback
func (o Options) apiModel(fallback string) string {
	if o.Model != "" {
		return o.Model
	}
	if o.ModelSize != "" && !ValidModelSize(o.ModelSize) {
		return o.ModelSize
	}
	return fallback
}

// creates transcriber based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	opts Options,
) (Transcriber, error) {
	switch provider {
	case ProviderFasterWhisper, "":
		return NewFasterWhisperTranscriber(opts)
	case ProviderOpenAI:
		return NewOpenAITranscriber(ctx, opts)
	case ProviderGemini:
		return NewGeminiTranscriber(ctx, opts)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// FactoryFunc builds an engine for one job.
type FactoryFunc func(ctx context.Context, opts Options) (Transcriber, error)

// binds Factory to a provider
func ProviderFactory(provider Provider) FactoryFunc {
	return func(ctx context.Context, opts Options) (Transcriber, error) {
		return Factory(ctx, provider, opts)
	}
}

// faster-whisper model names, smallest first
var modelSizes = []string{
	"tiny",
	"tiny.en",
	"base",
	"base.en",
	"small",
	"small.en",
	"medium",
	"medium.en",
	"large-v1",
	"large-v2",
	"large-v3",
	"large",
	"large-v3-turbo",
	"turbo",
	"distil-small.en",
	"distil-medium.en",
	"distil-large-v2",
	"distil-large-v3",
}

var devices = []string{"cpu", "cuda", "auto"}

// ModelSizes lists the accepted model sizes.
func ModelSizes() []string {
	return slices.Clone(modelSizes)
}

// Devices lists the accepted compute devices.
func Devices() []string {
	return slices.Clone(devices)
}

// reports whether size names a known whisper model
func ValidModelSize(size string) bool {
	return slices.Contains(modelSizes, size)
}

// reports whether device is a supported compute device
func ValidDevice(device string) bool {
	return slices.Contains(devices, strings.ToLower(device))
}
