package health

import (
	"math"
	"sync"
)

const (
	// historySize is how many prior scores the smoothing window keeps.
	historySize = 3

	// maxStep is the largest score change allowed between two consecutive
	// evaluations, in either direction.
	maxStep = 15

	// Blend weights once the history holds at least two entries.
	blendCurrentShare = 0.7
	blendAverageShare = 0.3
)

// History is the bounded rolling window of prior health scores used by the
// smoothing engine. It lives for the process lifetime and is not persisted.
//
// History is safe for concurrent use.
type History struct {
	mu     sync.Mutex
	scores []int
}

// NewHistory returns an empty History.
func NewHistory() *History {
	return &History{scores: make([]int, 0, historySize)}
}

// Smooth dampens a capped score against the most recent history entry,
// records the dampened value, and blends it with the window's moving average.
//
// The step against the previous entry never exceeds ±15 points. The dampened
// value, not the blended result, is what enters the history, so a stable
// input is a fixed point of the blend. The returned score is clamped to
// [0,100].
func (h *History) Smooth(capped int) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	score := capped
	if len(h.scores) > 0 {
		prev := h.scores[len(h.scores)-1]
		switch {
		case score-prev > maxStep:
			score = prev + maxStep
		case prev-score > maxStep:
			score = prev - maxStep
		}
	}

	h.scores = append(h.scores, score)
	if len(h.scores) > historySize {
		h.scores = h.scores[1:]
	}

	final := score
	if len(h.scores) >= 2 {
		avg := math.Round(mean(h.scores))
		final = int(math.Round(blendCurrentShare*float64(score) + blendAverageShare*avg))
	}

	return clampScore(final)
}

// Scores returns a copy of the current window, oldest first.
func (h *History) Scores() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]int, len(h.scores))
	copy(out, h.scores)
	return out
}

// Reset clears the window. Intended for tests and for operator-triggered
// re-baselining after maintenance.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scores = h.scores[:0]
}

func mean(vals []int) float64 {
	var sum int
	for _, v := range vals {
		sum += v
	}
	return float64(sum) / float64(len(vals))
}
