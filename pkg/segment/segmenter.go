package segment

import (
	"fmt"
	"strings"

	"voicenote-vector-be/pkg/apperror"
)

const (
	DefaultMaxWords     = 300
	DefaultOverlapWords = 50
)

// Segmenter splits transcript text into overlapping word windows.
// The tail overlapWords words of each segment are byte-identical to the head
// overlapWords words of the next segment.
type Segmenter struct {
	maxWords     int
	overlapWords int
}

func NewSegmenter(maxWords, overlapWords int) (*Segmenter, error) {
	if maxWords <= 0 || overlapWords < 0 {
		return nil, apperror.Newf(apperror.KindConfigError, "segment.new", "",
			"segmentation parameters must be positive (maxWords=%d, overlapWords=%d)", maxWords, overlapWords)
	}
	if overlapWords >= maxWords {
		// A window that never advances would loop forever.
		return nil, apperror.Newf(apperror.KindConfigError, "segment.new", "",
			"overlapWords (%d) must be smaller than maxWords (%d)", overlapWords, maxWords)
	}
	return &Segmenter{maxWords: maxWords, overlapWords: overlapWords}, nil
}

func (s *Segmenter) MaxWords() int     { return s.maxWords }
func (s *Segmenter) OverlapWords() int { return s.overlapWords }

// Split tokenizes on whitespace and produces overlapping windows of up to
// maxWords words each. Texts of maxWords words or fewer come back verbatim as a
// single segment, without re-join artifacts. Blank input yields no segments.
func (s *Segmenter) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if len(words) <= s.maxWords {
		return []string{text}
	}

	var segments []string
	start := 0
	for {
		end := start + s.maxWords
		if end > len(words) {
			end = len(words)
		}
		segments = append(segments, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
		start = end - s.overlapWords
	}
	return segments
}

// Reassemble reverses Split for a previously produced segment sequence: each
// segment after the first drops its overlapping head words before joining.
// The result is the space-joined word sequence of the original text (the
// verbatim original when Split returned a single segment).
func Reassemble(segments []string, overlapWords int) (string, error) {
	switch len(segments) {
	case 0:
		return "", nil
	case 1:
		return segments[0], nil
	}

	var b strings.Builder
	b.WriteString(segments[0])
	for i := 1; i < len(segments); i++ {
		words := strings.Fields(segments[i])
		if len(words) < overlapWords {
			return "", fmt.Errorf("segment %d has %d words, shorter than overlap %d", i, len(words), overlapWords)
		}
		tail := words[overlapWords:]
		if len(tail) == 0 {
			continue
		}
		b.WriteString(" ")
		b.WriteString(strings.Join(tail, " "))
	}
	return b.String(), nil
}
