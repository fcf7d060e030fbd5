package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"iter"
)

// WriteError reports a failure writing to the destination, as opposed to
// an error coming from the segment source.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write subtitles: %v", e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// SubRip format
type SRTWriter struct{}

func NewSRTWriter() *SRTWriter {
	return &SRTWriter{}
}

// streams segments to dst as SRT blocks in a single pass and returns the
// number of blocks written. Source errors are returned unchanged, destination
// errors as *WriteError. Nothing is retried.
func (w *SRTWriter) Write(dst io.Writer, segments iter.Seq2[Segment, error]) (int, error) {
	bw := bufio.NewWriter(dst)

	count := 0
	for entry, err := range Entries(segments) {
		if err != nil {
			return count, err
		}
		if _, err := bw.WriteString(entry.String()); err != nil {
			return count, &WriteError{Err: err}
		}
		count++
	}

	if err := bw.Flush(); err != nil {
		return count, &WriteError{Err: err}
	}

	return count, nil
}

// file extension for SubRip output
const Extension = ".srt"
