package transcribe

import (
	"context"
	"os"
	"sync"

	"github.com/mgpai22/vidscribe/internal/subtitle"
)

// Stub is a Transcriber returning canned output, for tests and dry runs.
type Stub struct {
	Segments []subtitle.Segment
	Info     subtitle.RecognitionInfo
	Err      error

	mu    sync.Mutex
	calls []StubCall
}

// one recorded Transcribe invocation
type StubCall struct {
	AudioPath string
	Decode    DecodeOptions
	// whether the audio file existed when the engine was invoked
	FileExisted bool
}

func (s *Stub) Transcribe(ctx context.Context, audioPath string, decode DecodeOptions) (*Result, error) {
	_, statErr := os.Stat(audioPath)

	s.mu.Lock()
	s.calls = append(s.calls, StubCall{AudioPath: audioPath, Decode: decode, FileExisted: statErr == nil})
	s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewResult(s.Segments, s.Info), nil
}

// Calls returns the recorded invocations.
func (s *Stub) Calls() []StubCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StubCall(nil), s.calls...)
}

// Factory returns a FactoryFunc that always hands out s.
func (s *Stub) Factory() FactoryFunc {
	return func(ctx context.Context, opts Options) (Transcriber, error) {
		return s, nil
	}
}
