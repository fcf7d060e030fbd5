package job

import (
	"errors"
	"fmt"

	"github.com/mgpai22/vidscribe/internal/transcribe"
)

// ErrTranscription matches every failure returned by Orchestrator.Transcribe.
var ErrTranscription = errors.New("transcription failed")

// Kind names the stage or cause of a failed job.
type Kind string

const (
	KindInvalidParams Kind = "invalid_params"
	KindUpload        Kind = "upload"
	KindMedia         Kind = "media"
	KindModelLoad     Kind = "model_load"
	KindDevice        Kind = "device"
	KindEngine        Kind = "engine"
)

// Failure is the structured error behind ErrTranscription.
type Failure struct {
	Kind Kind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("transcription failed (%s): %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func (f *Failure) Is(target error) bool {
	return target == ErrTranscription
}

// Classify maps an engine error onto a failure kind.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, transcribe.ErrModelLoad):
		return KindModelLoad
	case errors.Is(err, transcribe.ErrMedia):
		return KindMedia
	case errors.Is(err, transcribe.ErrDevice):
		return KindDevice
	default:
		return KindEngine
	}
}

// KindOf returns the failure kind carried by err, or KindEngine when err is
// not a *Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindEngine
}
