package zoom

import (
	"math"
	"testing"
)

func TestSetZoomClamps(t *testing.T) {
	inputs := []float64{-3, 0, 0.1, 0.4999, 0.5, 0.75, 1, 1.9999, 2, 2.0001, 5, 1e9}

	for _, z := range inputs {
		c := New(Options{Zoom: 1, Min: 0.5, Max: 2})
		c.SetZoom(z)
		want := math.Max(0.5, math.Min(2, z))
		if got := c.Zoom(); got != want {
			t.Errorf("SetZoom(%v) = %v, want %v", z, got, want)
		}
	}
}

func TestScenarioBounds(t *testing.T) {
	c := New(Options{Zoom: 1, Min: 0.5, Max: 2})

	c.SetZoom(5)
	if got := c.Zoom(); got != 2 {
		t.Errorf("SetZoom(5) = %v, want 2", got)
	}

	c.SetZoom(0.1)
	if got := c.Zoom(); got != 0.5 {
		t.Errorf("SetZoom(0.1) = %v, want 0.5", got)
	}
}

func TestZoomInOutRoundTrip(t *testing.T) {
	for _, start := range []float64{0.6, 0.7, 0.8, 1, 1.1, 1.3, 1.75, 1.2345678912} {
		c := New(Options{Zoom: start, Min: 0.5, Max: 2})
		c.ZoomIn()
		c.ZoomOut()
		if got := c.Zoom(); got != start {
			t.Errorf("ZoomIn+ZoomOut from %v = %v, want %v", start, got, start)
		}

		c.ZoomOut()
		c.ZoomIn()
		if got := c.Zoom(); got != start {
			t.Errorf("ZoomOut+ZoomIn from %v = %v, want %v", start, got, start)
		}
	}
}

func TestRepeatedStepsReturnExactly(t *testing.T) {
	c := New(Options{Zoom: 0.7, Min: 0.1, Max: 4})
	for i := 0; i < 7; i++ {
		c.ZoomIn()
	}
	for i := 0; i < 7; i++ {
		c.ZoomOut()
	}
	if got := c.Zoom(); got != 0.7 {
		t.Errorf("7x ZoomIn then 7x ZoomOut = %v, want 0.7", got)
	}
}

func TestSetZoomStartsNewBase(t *testing.T) {
	c := New(Options{Zoom: 1, Min: 0.5, Max: 2})
	c.ZoomIn()
	c.SetZoom(1.5)
	c.ZoomIn()
	c.ZoomOut()
	if got := c.Zoom(); got != 1.5 {
		t.Errorf("Zoom() = %v, want 1.5", got)
	}
}

func TestZoomInStopsAtMax(t *testing.T) {
	c := New(Options{Zoom: 1.95, Min: 0.5, Max: 2})
	c.ZoomIn()
	if got := c.Zoom(); got != 2 {
		t.Errorf("ZoomIn near max = %v, want 2", got)
	}
	c.ZoomIn()
	if got := c.Zoom(); got != 2 {
		t.Errorf("ZoomIn at max = %v, want 2", got)
	}
}

func TestOnChangeOnlyOnEffectiveChange(t *testing.T) {
	var calls []float64
	c := New(Options{Zoom: 1, Min: 0.5, Max: 2, OnChange: func(z float64) {
		calls = append(calls, z)
	}})

	c.SetZoom(1)   // unchanged
	c.SetZoom(3)   // clamps to 2
	c.SetZoom(2.5) // clamps to 2 again, no change
	c.ZoomIn()     // still 2
	c.SetZoom(1.5)

	want := []float64{2, 1.5}
	if len(calls) != len(want) {
		t.Fatalf("OnChange calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("OnChange[%d] = %v, want %v", i, calls[i], want[i])
		}
	}
}

func TestDisabledIsNoop(t *testing.T) {
	called := false
	c := New(Options{Zoom: 1, Min: 0.5, Max: 2, Disabled: true, OnChange: func(float64) { called = true }})

	c.SetZoom(1.5)
	c.ZoomIn()
	c.ZoomOut()

	if got := c.Zoom(); got != 1 {
		t.Errorf("Zoom() = %v, want 1", got)
	}
	if called {
		t.Error("OnChange called while disabled")
	}
	if !c.State().Disabled {
		t.Error("State().Disabled = false, want true")
	}
}

func TestNaNIgnored(t *testing.T) {
	c := New(Options{Zoom: 1})
	c.SetZoom(math.NaN())
	if got := c.Zoom(); got != 1 {
		t.Errorf("SetZoom(NaN) = %v, want 1", got)
	}
}

func TestNewNormalizesBounds(t *testing.T) {
	tests := []struct {
		name             string
		opts             Options
		wantMin, wantMax float64
		wantZoom         float64
	}{
		{"defaults", Options{}, DefaultMin, DefaultMax, 1},
		{"swapped", Options{Min: 2, Max: 0.5}, 0.5, 2, 1},
		{"initial above max", Options{Zoom: 10, Min: 0.5, Max: 2}, 0.5, 2, 2},
		{"negative min", Options{Min: -1, Max: 3}, DefaultMin, 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.opts)
			min, max := c.Bounds()
			if min != tt.wantMin || max != tt.wantMax {
				t.Errorf("Bounds() = [%v, %v], want [%v, %v]", min, max, tt.wantMin, tt.wantMax)
			}
			if got := c.Zoom(); got != tt.wantZoom {
				t.Errorf("Zoom() = %v, want %v", got, tt.wantZoom)
			}
		})
	}
}

func TestReconfigureReclamps(t *testing.T) {
	var last float64
	c := New(Options{Zoom: 1.8, Min: 0.5, Max: 2, OnChange: func(z float64) { last = z }})

	c.Reconfigure(0.5, 1.5)
	if got := c.Zoom(); got != 1.5 {
		t.Errorf("Zoom() after Reconfigure = %v, want 1.5", got)
	}
	if last != 1.5 {
		t.Errorf("OnChange = %v, want 1.5", last)
	}
}
