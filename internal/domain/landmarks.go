package domain

import "math"

// Point is a 2D landmark position in frame pixel coordinates.
type Point struct {
	X float64
	Y float64
}

// Dist returns the Euclidean distance between two points.
func Dist(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// noseTipIndex is the anatomically fixed position of the nose tip within the
// nose landmark group produced by the descriptor source.
const noseTipIndex = 3

// MinNosePoints is the smallest nose landmark group the source may produce.
const MinNosePoints = noseTipIndex + 1

// LandmarkSet holds the per-frame facial landmark groups. Eye points follow a
// fixed anatomical order: index 0 and 1 are the horizontal corners, pairs
// (2,4) and (3,5) are the upper/lower lids. A LandmarkSet is valid only for
// the frame that produced it.
type LandmarkSet struct {
	LeftEye  [6]Point
	RightEye [6]Point
	Nose     []Point
}

// NoseTip returns the nose tip landmark. ok is false when the source
// delivered fewer nose points than the fixed tip index requires.
func (l LandmarkSet) NoseTip() (Point, bool) {
	if len(l.Nose) < MinNosePoints {
		return Point{}, false
	}
	return l.Nose[noseTipIndex], true
}

// EyeAspectRatio computes the EAR for a single eye:
//
//	(dist(p2,p4) + dist(p3,p5)) / (2 * dist(p0,p1))
//
// The ratio is dimensionless, so it is invariant under uniform scaling of
// the landmark coordinates. Returns 0 for a degenerate (zero-width) eye.
func EyeAspectRatio(eye [6]Point) float64 {
	horizontal := Dist(eye[0], eye[1])
	if horizontal == 0 {
		return 0
	}
	vertical := Dist(eye[2], eye[4]) + Dist(eye[3], eye[5])
	return vertical / (2 * horizontal)
}

// AspectRatio returns the mean EAR across both eyes, the per-frame signal
// used by blink detection.
func (l LandmarkSet) AspectRatio() float64 {
	return (EyeAspectRatio(l.LeftEye) + EyeAspectRatio(l.RightEye)) / 2
}
