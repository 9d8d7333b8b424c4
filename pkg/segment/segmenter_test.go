package segment

import (
	"fmt"
	"strings"
	"testing"
)

func makeWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i+1)
	}
	return strings.Join(words, " ")
}

func TestNewSegmenterValidation(t *testing.T) {
	tests := []struct {
		name         string
		maxWords     int
		overlapWords int
		wantErr      bool
	}{
		{name: "defaults", maxWords: 300, overlapWords: 50, wantErr: false},
		{name: "zero overlap", maxWords: 100, overlapWords: 0, wantErr: false},
		{name: "overlap equals max", maxWords: 50, overlapWords: 50, wantErr: true},
		{name: "overlap above max", maxWords: 50, overlapWords: 60, wantErr: true},
		{name: "zero max", maxWords: 0, overlapWords: 0, wantErr: true},
		{name: "negative overlap", maxWords: 100, overlapWords: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSegmenter(tt.maxWords, tt.overlapWords)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSegmenter(%d, %d) error = %v, wantErr %v", tt.maxWords, tt.overlapWords, err, tt.wantErr)
			}
		})
	}
}

func TestSplitShortTextVerbatim(t *testing.T) {
	s, _ := NewSegmenter(300, 50)

	// Irregular whitespace must survive untouched when no windowing happens.
	text := "hello   world\nthis is  short"
	segments := s.Split(text)

	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if segments[0] != text {
		t.Errorf("short text not verbatim: got %q", segments[0])
	}
}

func TestSplitBlankText(t *testing.T) {
	s, _ := NewSegmenter(300, 50)

	for _, text := range []string{"", "   ", "\n\t "} {
		if got := s.Split(text); len(got) != 0 {
			t.Errorf("Split(%q) = %d segments, want 0", text, len(got))
		}
	}
}

func TestSplitWindows(t *testing.T) {
	s, _ := NewSegmenter(300, 50)

	// 400 words: first window w1..w300, second w251..w400.
	segments := s.Split(makeWords(400))

	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}

	first := strings.Fields(segments[0])
	second := strings.Fields(segments[1])

	if len(first) != 300 {
		t.Errorf("first segment has %d words, want 300", len(first))
	}
	if first[0] != "w1" || first[299] != "w300" {
		t.Errorf("first segment spans %s..%s, want w1..w300", first[0], first[299])
	}
	if len(second) != 150 {
		t.Errorf("second segment has %d words, want 150", len(second))
	}
	if second[0] != "w251" || second[149] != "w400" {
		t.Errorf("second segment spans %s..%s, want w251..w400", second[0], second[149])
	}
}

func TestSplitOverlapProperty(t *testing.T) {
	s, _ := NewSegmenter(30, 10)

	segments := s.Split(makeWords(100))
	if len(segments) < 2 {
		t.Fatalf("expected multiple segments, got %d", len(segments))
	}

	for i := 1; i < len(segments); i++ {
		prev := strings.Fields(segments[i-1])
		cur := strings.Fields(segments[i])

		tail := strings.Join(prev[len(prev)-10:], " ")
		head := strings.Join(cur[:10], " ")
		if tail != head {
			t.Errorf("segment %d: overlap mismatch\n tail: %s\n head: %s", i, tail, head)
		}
	}
}

func TestSplitCoversAllWords(t *testing.T) {
	s, _ := NewSegmenter(30, 10)

	total := 95
	segments := s.Split(makeWords(total))

	reassembled, err := Reassemble(segments, 10)
	if err != nil {
		t.Fatalf("Reassemble failed: %v", err)
	}
	if reassembled != makeWords(total) {
		t.Errorf("reassembled text does not match original word sequence")
	}
}

func TestReassemble(t *testing.T) {
	tests := []struct {
		name     string
		segments []string
		overlap  int
		want     string
		wantErr  bool
	}{
		{name: "empty", segments: nil, overlap: 10, want: ""},
		{name: "single verbatim", segments: []string{"hello   world"}, overlap: 10, want: "hello   world"},
		{
			name:     "two segments",
			segments: []string{"a b c d", "c d e f"},
			overlap:  2,
			want:     "a b c d e f",
		},
		{
			name:     "successor shorter than overlap",
			segments: []string{"a b c d", "e"},
			overlap:  2,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Reassemble(tt.segments, tt.overlap)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Reassemble error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Reassemble = %q, want %q", got, tt.want)
			}
		})
	}
}
