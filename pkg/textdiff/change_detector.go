package textdiff

import (
	"github.com/agnivade/levenshtein"

	"voicenote-vector-be/pkg/apperror"
)

const DefaultThreshold = 0.2

// ChangeDetector decides whether new transcript text diverged enough from the
// previously embedded text to justify re-embedding. Distance is computed over
// raw characters: case and whitespace edits count fully toward the ratio.
type ChangeDetector struct {
	threshold float64
}

func NewChangeDetector(threshold float64) (*ChangeDetector, error) {
	if threshold <= 0 || threshold >= 1 {
		return nil, apperror.Newf(apperror.KindConfigError, "textdiff.new", "",
			"change threshold must be in (0,1), got %f", threshold)
	}
	return &ChangeDetector{threshold: threshold}, nil
}

func (d *ChangeDetector) Threshold() float64 { return d.threshold }

// ShouldReembed reports whether oldText -> newText is a significant change.
// Empty oldText: re-embed iff newText is non-empty. Empty newText: always
// re-embed (change to empty; the caller decides whether to store or purge).
// Otherwise the normalized edit-distance ratio must strictly exceed the threshold.
func (d *ChangeDetector) ShouldReembed(oldText, newText string) bool {
	if oldText == "" {
		return newText != ""
	}
	if newText == "" {
		return true
	}
	return d.ChangeRatio(oldText, newText) > d.threshold
}

// ChangeRatio returns Levenshtein(old, new) / max(len(old), len(new)), in [0,1].
func (d *ChangeDetector) ChangeRatio(oldText, newText string) float64 {
	distance := levenshtein.ComputeDistance(oldText, newText)
	maxLen := len([]rune(oldText))
	if n := len([]rune(newText)); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 0
	}
	return float64(distance) / float64(maxLen)
}
