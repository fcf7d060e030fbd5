package transcribe

import (
	"testing"

	"github.com/mgpai22/vidscribe/internal/subtitle"
)

func TestOptionsAPIModel(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"default", Options{}, "whisper-1"},
		{"local size ignored", Options{ModelSize: "medium"}, "whisper-1"},
		{"hosted name from model size", Options{ModelSize: "gpt-4o-transcribe"}, "gpt-4o-transcribe"},
		{"explicit model wins", Options{Model: "whisper-1", ModelSize: "gpt-4o-transcribe"}, "whisper-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.apiModel("whisper-1"); got != tt.want {
				t.Errorf("apiModel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResultCloseWithoutCloser(t *testing.T) {
	var nilResult *Result
	if err := nilResult.Close(); err != nil {
		t.Errorf("nil Close() = %v", err)
	}

	r := NewResult(nil, subtitle.RecognitionInfo{})
	if err := r.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}
