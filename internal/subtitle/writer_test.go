package subtitle

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"strings"
	"testing"
)

func TestSRTWriterTwoSegments(t *testing.T) {
	segments := []Segment{
		{ID: 0, Start: 0, End: 1.5, Text: "  Hi"},
		{ID: 1, Start: 1.5, End: 3, Text: "there"},
	}

	var buf bytes.Buffer
	n, err := NewSRTWriter().Write(&buf, SliceSeq(segments))
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 blocks, got %d", n)
	}

	want := "1\n00:00:00,000 --> 00:00:01,500\nHi\n\n2\n00:00:01,500 --> 00:00:03,000\nthere\n\n"
	if buf.String() != want {
		t.Errorf("unexpected output:\n got %q\nwant %q", buf.String(), want)
	}
}

func TestSRTWriterIgnoresSegmentIDs(t *testing.T) {
	segments := []Segment{
		{ID: 41, Start: 0, End: 1, Text: "a"},
		{ID: 7, Start: 1, End: 2, Text: "b"},
		{ID: 7, Start: 2, End: 3, Text: "c"},
		{ID: -1, Start: 3, End: 4, Text: "d"},
	}

	var buf bytes.Buffer
	if _, err := NewSRTWriter().Write(&buf, SliceSeq(segments)); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	blocks := strings.Split(strings.TrimSuffix(buf.String(), "\n\n"), "\n\n")
	if len(blocks) != len(segments) {
		t.Fatalf("expected %d blocks, got %d", len(segments), len(blocks))
	}
	for i, block := range blocks {
		index := strings.SplitN(block, "\n", 2)[0]
		if index != fmt.Sprint(i+1) {
			t.Errorf("block %d: expected index %d, got %q", i, i+1, index)
		}
	}
}

func TestSRTWriterKeepsEmptyText(t *testing.T) {
	segments := []Segment{
		{Start: 0, End: 1, Text: "   "},
		{Start: 1, End: 2, Text: ""},
		{Start: 2, End: 3, Text: " trailing  "},
	}

	var buf bytes.Buffer
	n, err := NewSRTWriter().Write(&buf, SliceSeq(segments))
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 blocks, got %d", n)
	}

	want := "1\n00:00:00,000 --> 00:00:01,000\n\n\n" +
		"2\n00:00:01,000 --> 00:00:02,000\n\n\n" +
		"3\n00:00:02,000 --> 00:00:03,000\ntrailing  \n\n"
	if buf.String() != want {
		t.Errorf("unexpected output:\n got %q\nwant %q", buf.String(), want)
	}
}

func TestSRTWriterEmptySequence(t *testing.T) {
	var buf bytes.Buffer
	n, err := NewSRTWriter().Write(&buf, SliceSeq(nil))
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if n != 0 || buf.Len() != 0 {
		t.Errorf("expected empty output, got %d blocks and %q", n, buf.String())
	}
}

func TestSRTWriterIdempotent(t *testing.T) {
	segments := []Segment{
		{Start: 0.25, End: 1.75, Text: " one"},
		{Start: 61.1, End: 3725.999, Text: "two"},
	}

	var first, second bytes.Buffer
	if _, err := NewSRTWriter().Write(&first, SliceSeq(segments)); err != nil {
		t.Fatalf("first Write returned error: %v", err)
	}
	if _, err := NewSRTWriter().Write(&second, SliceSeq(segments)); err != nil {
		t.Fatalf("second Write returned error: %v", err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Errorf("outputs differ:\n%q\n%q", first.String(), second.String())
	}
}

func TestSRTWriterClampsInvertedTimes(t *testing.T) {
	var buf bytes.Buffer
	segments := []Segment{{Start: 5, End: 4, Text: "x"}}
	if _, err := NewSRTWriter().Write(&buf, SliceSeq(segments)); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	want := "1\n00:00:05,000 --> 00:00:05,000\nx\n\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestSRTWriterSourceError(t *testing.T) {
	sourceErr := errors.New("decoder crashed")
	var seq iter.Seq2[Segment, error] = func(yield func(Segment, error) bool) {
		if !yield(Segment{Start: 0, End: 1, Text: "ok"}, nil) {
			return
		}
		yield(Segment{}, sourceErr)
	}

	var buf bytes.Buffer
	n, err := NewSRTWriter().Write(&buf, seq)
	if !errors.Is(err, sourceErr) {
		t.Fatalf("expected source error, got %v", err)
	}
	var writeErr *WriteError
	if errors.As(err, &writeErr) {
		t.Errorf("source error must not be reported as WriteError")
	}
	if n != 1 {
		t.Errorf("expected 1 block before failure, got %d", n)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestSRTWriterDestinationError(t *testing.T) {
	segments := []Segment{{Start: 0, End: 1, Text: "hello"}}

	_, err := NewSRTWriter().Write(failingWriter{}, SliceSeq(segments))
	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected *WriteError, got %v", err)
	}
}

func TestSRTWriterConsumesLazily(t *testing.T) {
	pulled := 0
	var seq iter.Seq2[Segment, error] = func(yield func(Segment, error) bool) {
		for i := 0; i < 3; i++ {
			pulled++
			if !yield(Segment{ID: i, Start: float64(i), End: float64(i + 1), Text: "x"}, nil) {
				return
			}
		}
	}

	var buf bytes.Buffer
	if _, err := NewSRTWriter().Write(&buf, seq); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if pulled != 3 {
		t.Errorf("expected each segment pulled once, got %d pulls", pulled)
	}
}
