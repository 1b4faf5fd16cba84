// internal/status/status_test.go
package status

import (
	"testing"
	"time"
)

func TestModeFromWord(t *testing.T) {
	tests := []struct {
		word uint16
		mode Mode
		q    Quality
	}{
		{0, ModeMeasuring, QualityNormal},
		{1, ModeZeroCalibrating, QualityZeroCalibration},
		{2, ModeSpanCalibrating, QualitySpanCalibration},
		{3, ModeUnknown, QualityEmpty},
		{0xFFFF, ModeUnknown, QualityEmpty},
	}

	for _, tt := range tests {
		m := ModeFromWord(tt.word)
		if m != tt.mode {
			t.Fatalf("word %d: mode=%s want %s", tt.word, m, tt.mode)
		}
		if q := QualityFor(m); q != tt.q {
			t.Fatalf("word %d: quality=%s want %s", tt.word, q, tt.q)
		}
	}
}

func TestNextSnapshot(t *testing.T) {
	t0 := time.Unix(1000, 0)

	s := Next(Snapshot{}, 3, 3, t0)
	if s.Health != HealthOK || !s.LastSuccess.Equal(t0) {
		t.Fatalf("full success: %+v", s)
	}

	t1 := t0.Add(5 * time.Second)
	s = Next(s, 0, 3, t1)
	s = Next(s, 0, 3, t1.Add(5*time.Second))
	if s.Health != HealthError || s.ConsecutiveFailures != 2 {
		t.Fatalf("failures not counted: %+v", s)
	}
	if !s.LastSuccess.Equal(t0) {
		t.Fatalf("last success moved on failure: %v", s.LastSuccess)
	}

	s = Next(s, 1, 3, t1.Add(10*time.Second))
	if s.Health != HealthDegraded || s.ConsecutiveFailures != 0 {
		t.Fatalf("partial recovery: %+v", s)
	}
}
