package steering

import (
	"math"
	"testing"

	"github.com/steerline/go-steerline/pkg/steering/scan"
)

func TestEstimator_Scenario(t *testing.T) {
	// ROI 200x100, one scan row at y=50, center column 100, matches at
	// columns {140,141,142}: lateral error must be +41.
	cfg := testConfig()
	p := NewPerception(cfg, scan.NewPixelScanner())
	e := NewEstimator(cfg)

	frame := paint(200, 100, map[int][]int{50: {140, 141, 142}})
	res, err := p.Extract(frame, 0, false)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	lateral, ok := e.Estimate(res)
	if !ok {
		t.Fatal("expected a valid error")
	}
	if lateral != 41 {
		t.Errorf("lateral error = %v, want +41", lateral)
	}
}

func TestEstimator_NoSignalBelowMinPixels(t *testing.T) {
	cfg := testConfig()
	cfg.MinPixels = 3
	p := NewPerception(cfg, scan.NewPixelScanner())
	e := NewEstimator(cfg)

	// Two matched pixels is below the confidence threshold.
	frame := paint(200, 100, map[int][]int{50: {140, 141}})
	res, err := p.Extract(frame, 0, false)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if _, ok := e.Estimate(res); ok {
		t.Error("expected no-signal below the minimum pixel count")
	}
}

func TestEstimator_EmptyIsNoSignalNotZero(t *testing.T) {
	cfg := testConfig()
	e := NewEstimator(cfg)

	lateral, ok := e.Estimate(ScanResult{})
	if ok {
		t.Error("empty scan must be no-signal, not a valid zero error")
	}
	if lateral != 0 {
		t.Errorf("no-signal error value = %v, want 0", lateral)
	}
}

func TestEstimator_SignConvention(t *testing.T) {
	cfg := testConfig()
	p := NewPerception(cfg, scan.NewPixelScanner())
	e := NewEstimator(cfg)

	tests := []struct {
		name    string
		columns []int
		wantPos bool
	}{
		{"line right of center", []int{150, 151, 152}, true},
		{"line left of center", []int{40, 41, 42}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := paint(200, 100, map[int][]int{50: tt.columns})
			res, err := p.Extract(frame, 0, false)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			lateral, ok := e.Estimate(res)
			if !ok {
				t.Fatal("expected a valid error")
			}
			if (lateral > 0) != tt.wantPos {
				t.Errorf("lateral = %v, wanted positive=%v", lateral, tt.wantPos)
			}
		})
	}
}

func TestEstimator_WeightedNearFar(t *testing.T) {
	cfg := testConfig()
	cfg.Rows = []ScanRow{{Y: 75, Weight: 0.7}, {Y: 25, Weight: 0.3}}
	p := NewPerception(cfg, scan.NewPixelScanner())
	e := NewEstimator(cfg)

	// Near row offset +20 (center 120), far row offset +40 (center 140):
	// both contribute, weighted: 0.7*20 + 0.3*40 = 26.
	frame := paint(200, 100, map[int][]int{
		75: {119, 120, 121},
		25: {139, 140, 141},
	})
	res, err := p.Extract(frame, 0, false)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	lateral, ok := e.Estimate(res)
	if !ok {
		t.Fatal("expected a valid error")
	}
	if math.Abs(lateral-26) > 1e-9 {
		t.Errorf("lateral = %v, want 26", lateral)
	}
}

func TestEstimator_LoneRowRenormalizes(t *testing.T) {
	// Line visible only on the far row: its weight renormalizes to full
	// strength instead of scaling the error down.
	cfg := testConfig()
	cfg.Rows = []ScanRow{{Y: 75, Weight: 0.7}, {Y: 25, Weight: 0.3}}
	p := NewPerception(cfg, scan.NewPixelScanner())
	e := NewEstimator(cfg)

	frame := paint(200, 100, map[int][]int{25: {139, 140, 141}})
	res, err := p.Extract(frame, 0, false)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	lateral, ok := e.Estimate(res)
	if !ok {
		t.Fatal("expected a valid error")
	}
	if math.Abs(lateral-40) > 1e-9 {
		t.Errorf("lateral = %v, want 40 (full weight for the lone row)", lateral)
	}
}
