package transcribe

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mgpai22/vidscribe/internal/subtitle"
)

//go:embed assets/faster_whisper.py
var fasterWhisperScript string

// helper exit codes, mirrored in assets/faster_whisper.py
const (
	exitModelLoad = 3
	exitMedia     = 4
	exitDevice    = 5
)

// implements Transcriber by running faster-whisper in a Python helper process
type FasterWhisperTranscriber struct {
	python  string
	options Options
}

func NewFasterWhisperTranscriber(opts Options) (*FasterWhisperTranscriber, error) {
	python := opts.Python
	if python == "" {
		python = "python3"
	}
	if opts.ModelSize == "" {
		opts.ModelSize = "medium"
	}
	if opts.Device == "" {
		opts.Device = "cpu"
	}
	if opts.ComputeType == "" {
		opts.ComputeType = "int8"
	}
	if opts.CPUThreads <= 0 {
		opts.CPUThreads = 8
	}

	return &FasterWhisperTranscriber{
		python:  python,
		options: opts,
	}, nil
}

// one JSON line written by the helper
type helperMessage struct {
	Type string `json:"type"`

	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`

	Language            string  `json:"language"`
	LanguageProbability float64 `json:"language_probability"`
	Duration            float64 `json:"duration"`

	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// starts the helper and waits for its info line. By then the helper has
// decoded the audio, so audioPath may be removed while segments stream.
func (t *FasterWhisperTranscriber) Transcribe(
	ctx context.Context,
	audioPath string,
	decode DecodeOptions,
) (*Result, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMedia, err)
	}

	cmd := exec.CommandContext(ctx, t.python, t.buildArgs(audioPath, decode)...)
	stderr := &tailBuffer{limit: 4096}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("helper stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start %s: %v", ErrModelLoad, t.python, err)
	}

	proc := &helperProcess{cmd: cmd, stream: newHelperStream(stdout), stderr: stderr}

	info, err := proc.stream.info()
	if err != nil {
		return nil, proc.fail(err)
	}

	return &Result{
		Segments: proc.segments(),
		Info:     info,
		closer:   proc.stop,
	}, nil
}

// builds the interpreter arguments; the helper is passed inline with -c
func (t *FasterWhisperTranscriber) buildArgs(audioPath string, decode DecodeOptions) []string {
	beamSize := decode.BeamSize
	if beamSize <= 0 {
		beamSize = DefaultDecodeOptions().BeamSize
	}

	args := []string{
		"-c", fasterWhisperScript,
		"--audio", audioPath,
		"--model", t.options.ModelSize,
		"--device", t.options.Device,
		"--compute-type", t.options.ComputeType,
		"--cpu-threads", strconv.Itoa(t.options.CPUThreads),
		"--beam-size", strconv.Itoa(beamSize),
	}
	if decode.VADFilter {
		args = append(args, "--vad-filter")
	}
	if t.options.Language != "" {
		args = append(args, "--language", t.options.Language)
	}
	return args
}

// a running helper and its output
type helperProcess struct {
	cmd    *exec.Cmd
	stream *helperStream
	stderr *tailBuffer

	used     atomic.Bool
	waitOnce sync.Once
	waitErr  error
}

func (p *helperProcess) wait() error {
	p.waitOnce.Do(func() {
		p.waitErr = p.cmd.Wait()
	})
	return p.waitErr
}

// kills the helper if it is still running and reaps it
func (p *helperProcess) stop() error {
	if p.cmd.ProcessState == nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	_ = p.wait()
	return nil
}

// converts a stream error into the engine error to report
func (p *helperProcess) fail(streamErr error) error {
	var reported *helperError
	if errors.As(streamErr, &reported) {
		_ = p.wait()
		return reported.classified()
	}

	if errors.Is(streamErr, io.EOF) {
		// output ended before the done record
		return classifyExit(p.wait(), p.stderr.String())
	}

	_ = p.stop()
	return fmt.Errorf("faster-whisper helper: %w", streamErr)
}

// single-use sequence over the helper's segment lines
func (p *helperProcess) segments() func(yield func(subtitle.Segment, error) bool) {
	return func(yield func(subtitle.Segment, error) bool) {
		if !p.used.CompareAndSwap(false, true) {
			yield(subtitle.Segment{}, errors.New("segment sequence already consumed"))
			return
		}

		for {
			seg, done, err := p.stream.next()
			if err != nil {
				yield(subtitle.Segment{}, p.fail(err))
				return
			}
			if done {
				if err := p.wait(); err != nil {
					yield(subtitle.Segment{}, classifyExit(err, p.stderr.String()))
				}
				return
			}
			if !yield(seg, nil) {
				_ = p.stop()
				return
			}
		}
	}
}

// decodes helper JSON lines, skipping anything that is not a JSON object
type helperStream struct {
	scanner *bufio.Scanner
}

func newHelperStream(r io.Reader) *helperStream {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &helperStream{scanner: scanner}
}

func (s *helperStream) read() (helperMessage, error) {
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}

		var msg helperMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return helperMessage{}, fmt.Errorf("decode helper output: %w", err)
		}
		if msg.Type == "error" {
			return helperMessage{}, &helperError{kind: msg.Kind, message: msg.Message}
		}
		return msg, nil
	}

	if err := s.scanner.Err(); err != nil {
		return helperMessage{}, fmt.Errorf("read helper output: %w", err)
	}
	return helperMessage{}, io.EOF
}

func (s *helperStream) info() (subtitle.RecognitionInfo, error) {
	msg, err := s.read()
	if err != nil {
		return subtitle.RecognitionInfo{}, err
	}
	if msg.Type != "info" {
		return subtitle.RecognitionInfo{}, fmt.Errorf("expected info record, got %q", msg.Type)
	}
	return subtitle.RecognitionInfo{
		Language:            msg.Language,
		LanguageProbability: msg.LanguageProbability,
		Duration:            msg.Duration,
	}, nil
}

// returns the next segment, or done once the helper reports completion
func (s *helperStream) next() (subtitle.Segment, bool, error) {
	msg, err := s.read()
	if err != nil {
		return subtitle.Segment{}, false, err
	}

	switch msg.Type {
	case "segment":
		return subtitle.Segment{
			ID:    msg.ID,
			Start: msg.Start,
			End:   msg.End,
			Text:  msg.Text,
		}, false, nil
	case "done":
		return subtitle.Segment{}, true, nil
	default:
		return subtitle.Segment{}, false, fmt.Errorf("unexpected helper record %q", msg.Type)
	}
}

// failure reported by the helper itself
type helperError struct {
	kind    string
	message string
}

func (e *helperError) Error() string {
	return fmt.Sprintf("faster-whisper %s error: %s", e.kind, e.message)
}

func (e *helperError) classified() error {
	switch e.kind {
	case "model_load":
		return fmt.Errorf("%w: %s", ErrModelLoad, e.message)
	case "media":
		return fmt.Errorf("%w: %s", ErrMedia, e.message)
	case "device":
		return fmt.Errorf("%w: %s", ErrDevice, e.message)
	default:
		return e
	}
}

// maps the helper's exit status to an engine error
func classifyExit(err error, stderr string) error {
	if err == nil {
		return errors.New("faster-whisper helper exited before completing")
	}

	detail := strings.TrimSpace(stderr)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.ExitCode() {
		case exitModelLoad:
			return fmt.Errorf("%w: %s", ErrModelLoad, detail)
		case exitMedia:
			return fmt.Errorf("%w: %s", ErrMedia, detail)
		case exitDevice:
			return fmt.Errorf("%w: %s", ErrDevice, detail)
		}
	}
	return fmt.Errorf("faster-whisper failed: %w: %s", err, detail)
}

// keeps the last limit bytes written to it
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
