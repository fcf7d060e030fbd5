package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mgpai22/vidscribe/internal/subtitle"
)

// implements Transcriber interface using OpenAI Audio API.
// Beam size, VAD and device are chosen server side and are not configurable.
type OpenAITranscriber struct {
	client  openai.Client
	model   string
	options Options
}

// segment from OpenAI Whisper verbose_json response
type whisperSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// verbose_json response structure from Whisper
type whisperVerboseResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
}

func NewOpenAITranscriber(
	ctx context.Context,
	opts Options,
) (*OpenAITranscriber, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrModelLoad)
	}

	client := openai.NewClient(option.WithAPIKey(opts.APIKey))

	model := opts.apiModel("whisper-1")

	return &OpenAITranscriber{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

// transcribes single audio file
func (t *OpenAITranscriber) Transcribe(
	ctx context.Context,
	audioPath string,
	decode DecodeOptions,
) (*Result, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMedia, err)
	}
	defer file.Close()

	params := openai.AudioTranscriptionNewParams{
		File:                   file,
		Model:                  openai.AudioModel(t.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"segment"},
	}

	if t.options.Language != "" {
		params.Language = openai.String(t.options.Language)
	}

	if t.options.Prompt != "" {
		params.Prompt = openai.String(t.options.Prompt)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	segments, info, err := parseVerboseJSONResponse(resp.RawJSON())
	if err != nil {
		return nil, err
	}
	if info.Language == "" {
		info.Language = t.options.Language
	}

	return NewResult(segments, info), nil
}

// converts a verbose_json body into segments. Segment text is passed through
// untouched; a response without segments becomes a single segment.
func parseVerboseJSONResponse(rawJSON string) ([]subtitle.Segment, subtitle.RecognitionInfo, error) {
	var info subtitle.RecognitionInfo
	if rawJSON == "" {
		return nil, info, fmt.Errorf("empty response")
	}

	var verboseResp whisperVerboseResponse
	if err := json.Unmarshal([]byte(rawJSON), &verboseResp); err != nil {
		return nil, info, fmt.Errorf("failed to parse verbose_json response: %w", err)
	}

	info = subtitle.RecognitionInfo{
		Language: verboseResp.Language,
		Duration: verboseResp.Duration,
	}

	if len(verboseResp.Segments) == 0 {
		text := strings.TrimSpace(verboseResp.Text)
		if text == "" {
			// no speech detected
			return nil, info, nil
		}
		return []subtitle.Segment{{
			Start: 0,
			End:   verboseResp.Duration,
			Text:  text,
		}}, info, nil
	}

	segments := make([]subtitle.Segment, 0, len(verboseResp.Segments))
	for _, seg := range verboseResp.Segments {
		segments = append(segments, subtitle.Segment{
			ID:    seg.ID,
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}

	return segments, info, nil
}
