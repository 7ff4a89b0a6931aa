package health

import (
	"reflect"
	"testing"
)

func TestSmooth_EmptyHistoryPassesThrough(t *testing.T) {
	h := NewHistory()
	if got := h.Smooth(90); got != 90 {
		t.Fatalf("Smooth(90) = %d, want 90 with empty history", got)
	}
	if got := h.Scores(); !reflect.DeepEqual(got, []int{90}) {
		t.Fatalf("history = %v, want [90]", got)
	}
}

func TestSmooth_DampensThenBlends(t *testing.T) {
	// Capped sequence 90, 10, 50:
	//   eval 1: empty history → final 90, history [90]
	//   eval 2: 10 vs prev 90 dampens to 75; history [90,75];
	//           avg = round(82.5) = 83; final = round(0.7·75 + 0.3·83) = 77
	//   eval 3: 50 vs prev 75 dampens to 60; history [90,75,60];
	//           avg = 75; final = round(0.7·60 + 0.3·75) = round(64.5) = 65
	h := NewHistory()

	if got := h.Smooth(90); got != 90 {
		t.Fatalf("eval 1 = %d, want 90", got)
	}

	got := h.Smooth(10)
	if got != 77 {
		t.Fatalf("eval 2 = %d, want 77", got)
	}
	if hist := h.Scores(); !reflect.DeepEqual(hist, []int{90, 75}) {
		t.Fatalf("history after eval 2 = %v, want [90 75]", hist)
	}

	got = h.Smooth(50)
	if got != 65 {
		t.Fatalf("eval 3 = %d, want 65", got)
	}
	if hist := h.Scores(); !reflect.DeepEqual(hist, []int{90, 75, 60}) {
		t.Fatalf("history after eval 3 = %v, want [90 75 60]", hist)
	}
}

func TestSmooth_StepNeverExceedsFifteen(t *testing.T) {
	// The dampened value entering the history never moves more than 15
	// points from the previous entry, in either direction.
	h := NewHistory()
	h.Smooth(50)

	h.Smooth(100)
	if hist := h.Scores(); hist[len(hist)-1] != 65 {
		t.Errorf("upward step: history entry = %d, want 65", hist[len(hist)-1])
	}

	h.Smooth(0)
	if hist := h.Scores(); hist[len(hist)-1] != 50 {
		t.Errorf("downward step: history entry = %d, want 50", hist[len(hist)-1])
	}
}

func TestSmooth_FixedPoint(t *testing.T) {
	// With a stabilized history (all entries equal) and an unchanged input,
	// re-evaluation returns the same score: the blend of s with itself is s.
	h := NewHistory()
	for i := 0; i < 3; i++ {
		h.Smooth(72)
	}
	for i := 0; i < 5; i++ {
		if got := h.Smooth(72); got != 72 {
			t.Fatalf("iteration %d: Smooth(72) = %d, want 72", i, got)
		}
	}
}

func TestSmooth_HistoryBounded(t *testing.T) {
	h := NewHistory()
	for i := 0; i < 10; i++ {
		h.Smooth(50)
	}
	if got := len(h.Scores()); got != historySize {
		t.Fatalf("history length = %d, want %d", got, historySize)
	}
}

func TestSmooth_EvictsOldestFirst(t *testing.T) {
	h := NewHistory()
	h.Smooth(10) // [10]
	h.Smooth(20) // [10 20]
	h.Smooth(30) // [10 20 30]
	h.Smooth(40) // 10 evicted → [20 30 40]
	if hist := h.Scores(); !reflect.DeepEqual(hist, []int{20, 30, 40}) {
		t.Fatalf("history = %v, want [20 30 40]", hist)
	}
}

func TestHistory_Reset(t *testing.T) {
	h := NewHistory()
	h.Smooth(40)
	h.Smooth(45)
	h.Reset()
	if got := len(h.Scores()); got != 0 {
		t.Fatalf("history length after Reset = %d, want 0", got)
	}
	// A fresh history passes the next score through undampened.
	if got := h.Smooth(100); got != 100 {
		t.Fatalf("Smooth(100) after Reset = %d, want 100", got)
	}
}

func TestSmooth_Clamped(t *testing.T) {
	h := NewHistory()
	for i := 0; i < 20; i++ {
		got := h.Smooth(100)
		if got < 0 || got > 100 {
			t.Fatalf("score %d out of [0,100]", got)
		}
	}
}
