package domain

// Frame is one encoded camera image (JPEG bytes).
type Frame []byte

// Detection is the descriptor source's output for a single frame: the
// appearance descriptor plus the landmark groups the liveness checks read.
// Absence of a face in a frame is represented by a nil *Detection, not an
// error, so checks can tolerate brief tracking loss.
type Detection struct {
	Descriptor Descriptor
	Landmarks  LandmarkSet
}
