package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"google.golang.org/genai"

	"github.com/mgpai22/vidscribe/internal/subtitle"
)

// implements Transcriber interface using Google Gemini
type GeminiTranscriber struct {
	client  *genai.Client
	model   string
	options Options
}

// segment from Gemini's JSON response
type transcriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func NewGeminiTranscriber(ctx context.Context, opts Options) (*GeminiTranscriber, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrModelLoad)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", ErrModelLoad, err)
	}

	model := opts.apiModel("gemini-2.5-flash")

	return &GeminiTranscriber{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

// transcribes single audio file
func (t *GeminiTranscriber) Transcribe(ctx context.Context, audioPath string, decode DecodeOptions) (*Result, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMedia, err)
	}

	uploadedFile, err := t.client.Files.UploadFromPath(ctx, audioPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upload audio file: %w", err)
	}

	defer func() {
		_, _ = t.client.Files.Delete(context.WithoutCancel(ctx), uploadedFile.Name, nil)
	}()

	parts := []*genai.Part{
		genai.NewPartFromText(t.buildTranscriptionPrompt()),
		genai.NewPartFromURI(uploadedFile.URI, uploadedFile.MIMEType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := t.client.Models.GenerateContent(ctx, t.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	segments, err := parseTranscriptionResponse(result)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transcription: %w", err)
	}

	return NewResult(segments, subtitle.RecognitionInfo{Language: t.options.Language}), nil
}

// creates the prompt for transcription
func (t *GeminiTranscriber) buildTranscriptionPrompt() string {
	var sb strings.Builder

	sb.WriteString("Generate a detailed transcript of this audio. ")
	sb.WriteString("For each sentence or phrase, provide the start timestamp, end timestamp, and the exact text spoken. ")
	sb.WriteString("Format your response as a JSON array with objects containing 'start', 'end', and 'text' fields, ")
	sb.WriteString("where 'start' and 'end' are timestamps in seconds (as numbers). ")
	sb.WriteString("Skip silence, music and other non-speech audio. ")

	if t.options.Language != "" {
		sb.WriteString(fmt.Sprintf("The audio is in %s. ", t.options.Language))
	}

	if t.options.Prompt != "" {
		sb.WriteString(t.options.Prompt)
		sb.WriteString(" ")
	}

	sb.WriteString("Return ONLY the JSON array, no other text or markdown formatting.")

	return sb.String()
}

// parses Gemini's response into segments
func parseTranscriptionResponse(result *genai.GenerateContentResponse) ([]subtitle.Segment, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	var responseText strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			responseText.WriteString(part.Text)
		}
	}

	if responseText.Len() == 0 {
		return nil, fmt.Errorf("no text in Gemini response")
	}

	cleaned := cleanJSONResponse(responseText.String())
	transcript, err := extractTranscriptSegments(cleaned)
	if err != nil {
		return nil, fmt.Errorf("%w (response: %s)", err, truncateString(cleaned, 200))
	}

	segments := make([]subtitle.Segment, len(transcript))
	for i, ts := range transcript {
		segments[i] = subtitle.Segment{
			ID:    i,
			Start: ts.Start,
			End:   ts.End,
			Text:  ts.Text,
		}
	}

	// model output is not guaranteed to be ordered
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})

	return segments, nil
}

var jsonBlockRegex = regexp.MustCompile("```(?:json)?\\s*")

// removes markdown formatting from the response
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)

	// remove ```json and ``` markers
	s = jsonBlockRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")

	return strings.TrimSpace(s)
}

// finds the first JSON value in text that holds a usable segment array,
// either directly or under a wrapper object
func extractTranscriptSegments(text string) ([]transcriptSegment, error) {
	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}

		decoder := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			continue
		}

		if segments, ok := segmentsFromJSON(raw, 0); ok {
			return segments, nil
		}

		// skip past the value just decoded
		i += int(decoder.InputOffset()) - 1
	}

	return nil, errors.New("no transcript segments found in response")
}

func segmentsFromJSON(raw json.RawMessage, depth int) ([]transcriptSegment, bool) {
	if depth > 3 {
		return nil, false
	}

	var segments []transcriptSegment
	if err := json.Unmarshal(raw, &segments); err == nil {
		return segments, validateSegments(segments)
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, false
	}

	keys := make([]string, 0, len(wrapper))
	for key := range wrapper {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keyRank(keys[i]) < keyRank(keys[j]) ||
			(keyRank(keys[i]) == keyRank(keys[j]) && keys[i] < keys[j])
	})

	for _, key := range keys {
		if segments, ok := segmentsFromJSON(wrapper[key], depth+1); ok {
			return segments, true
		}
	}
	return nil, false
}

// wrapper keys models commonly use, tried before anything else
func keyRank(key string) int {
	switch key {
	case "segments":
		return 0
	case "transcript":
		return 1
	case "data":
		return 2
	default:
		return 3
	}
}

// reports whether at least one segment carries any information
func validateSegments(segments []transcriptSegment) bool {
	for _, seg := range segments {
		if seg.Text != "" || seg.Start != 0 || seg.End != 0 {
			return true
		}
	}
	return false
}

// truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
