package subtitle

import (
	"fmt"
	"iter"
	"strings"
	"unicode"
)

// represents a single recognized utterance as produced by an engine.
// ID is an ordering hint from the engine and is never used as the subtitle index.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"` // seconds
	End   float64 `json:"end"`   // seconds
	Text  string  `json:"text"`
}

// metadata for one recognition run, used for logging only
type RecognitionInfo struct {
	Language            string  `json:"language"`
	LanguageProbability float64 `json:"language_probability"`
	Duration            float64 `json:"duration"`
}

// represents single SRT block
type Entry struct {
	Index int
	Start string
	End   string
	Text  string
}

// builds the entry for seg at the given 1-based index
func NewEntry(index int, seg Segment) Entry {
	end := seg.End
	if end < seg.Start {
		end = seg.Start
	}
	return Entry{
		Index: index,
		Start: FormatTime(seg.Start),
		End:   FormatTime(end),
		Text:  strings.TrimLeftFunc(seg.Text, unicode.IsSpace),
	}
}

// renders the entry as an SRT block including the trailing blank line
func (e Entry) String() string {
	return fmt.Sprintf("%d\n%s --> %s\n%s\n\n", e.Index, e.Start, e.End, e.Text)
}

// numbers segments from 1 in input order. The first error from the
// source is yielded once and iteration stops.
func Entries(segments iter.Seq2[Segment, error]) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		index := 0
		for seg, err := range segments {
			if err != nil {
				yield(Entry{}, err)
				return
			}
			index++
			if !yield(NewEntry(index, seg), nil) {
				return
			}
		}
	}
}

// adapts a slice to the sequence type engines return
func SliceSeq(segments []Segment) iter.Seq2[Segment, error] {
	return func(yield func(Segment, error) bool) {
		for _, seg := range segments {
			if !yield(seg, nil) {
				return
			}
		}
	}
}
