package domain

import (
	"math"
	"testing"
)

// openEye is a plausible open-eye landmark shape: corners at x 0 and 4,
// lids offset vertically around y 0.
var openEye = [6]Point{
	{X: 0, Y: 0},
	{X: 4, Y: 0},
	{X: 1, Y: -0.6},
	{X: 3, Y: -0.6},
	{X: 1, Y: 0.6},
	{X: 3, Y: 0.6},
}

func scaleEye(eye [6]Point, k float64) [6]Point {
	var out [6]Point
	for i, p := range eye {
		out[i] = Point{X: p.X * k, Y: p.Y * k}
	}
	return out
}

func TestEyeAspectRatio_ScaleInvariant(t *testing.T) {
	base := EyeAspectRatio(openEye)
	if base <= 0 {
		t.Fatalf("expected positive EAR, got %v", base)
	}

	for _, k := range []float64{0.5, 2, 10, 137.5} {
		got := EyeAspectRatio(scaleEye(openEye, k))
		if math.Abs(got-base) > 1e-9 {
			t.Errorf("scale %v: EAR %v, want %v", k, got, base)
		}
	}
}

func TestEyeAspectRatio_ClosedEyeLower(t *testing.T) {
	closed := openEye
	for _, i := range []int{2, 3, 4, 5} {
		closed[i].Y /= 10
	}
	if EyeAspectRatio(closed) >= EyeAspectRatio(openEye) {
		t.Error("closing the lids should lower the EAR")
	}
}

func TestEyeAspectRatio_DegenerateEye(t *testing.T) {
	var collapsed [6]Point
	if got := EyeAspectRatio(collapsed); got != 0 {
		t.Errorf("zero-width eye: got %v, want 0", got)
	}
}

func TestNoseTip(t *testing.T) {
	l := LandmarkSet{Nose: []Point{{}, {}, {}, {X: 7, Y: 9}}}
	tip, ok := l.NoseTip()
	if !ok {
		t.Fatal("expected nose tip for 4-point nose group")
	}
	if tip.X != 7 || tip.Y != 9 {
		t.Errorf("got %+v, want {7 9}", tip)
	}

	short := LandmarkSet{Nose: []Point{{}, {}}}
	if _, ok := short.NoseTip(); ok {
		t.Error("expected no nose tip for truncated nose group")
	}
}

func TestAspectRatio_AveragesBothEyes(t *testing.T) {
	l := LandmarkSet{LeftEye: openEye, RightEye: scaleEye(openEye, 3)}
	want := EyeAspectRatio(openEye)
	if got := l.AspectRatio(); math.Abs(got-want) > 1e-9 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDist(t *testing.T) {
	if got := Dist(Point{X: 0, Y: 0}, Point{X: 3, Y: 4}); got != 5 {
		t.Errorf("got %v, want 5", got)
	}
}
