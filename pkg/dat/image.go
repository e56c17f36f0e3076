package dat

// Image is a decoded frame in RGBA format plus decode-time metadata.
// Settler frames may carry torso and shadow overlays attached by the
// composite loader. A null image has no pixel data and zero dimensions;
// it stands in for slots that failed to decode or out-of-range requests.
//
// Images are immutable once inserted into a Reader's cache and may be
// freely shared between callers.
type Image struct {
	Width   int
	Height  int
	OffsetX int // draw offset relative to the frame anchor
	OffsetY int
	Pixels  []byte // RGBA, 4 bytes per pixel; nil for a null image

	Torso  *Image // optional overlay, settler frames only
	Shadow *Image // optional overlay, settler frames only
}

// NullImage returns the placeholder value used for absent or undecodable
// frames. It is a plain value, not a process-wide singleton.
func NullImage() *Image {
	return &Image{}
}

// IsNull reports whether the image is the absent-frame placeholder.
func (im *Image) IsNull() bool {
	return im == nil || im.Pixels == nil
}

// Sequence is an ordered list of decoded frames within one category.
type Sequence struct {
	frames []*Image
}

// NewSequence wraps a frame list. The sequence takes ownership of the slice.
func NewSequence(frames []*Image) *Sequence {
	return &Sequence{frames: frames}
}

var emptySequence = &Sequence{}

// Length returns the number of frames.
func (s *Sequence) Length() int {
	if s == nil {
		return 0
	}
	return len(s.frames)
}

// Frame returns frame i, or ErrIndexOutOfRange for a bad index.
func (s *Sequence) Frame(i int) (*Image, error) {
	if s == nil || i < 0 || i >= len(s.frames) {
		return nil, ErrIndexOutOfRange
	}
	return s.frames[i], nil
}

// FrameSafe returns frame i, or a null image for a bad index.
func (s *Sequence) FrameSafe(i int) *Image {
	if s == nil || i < 0 || i >= len(s.frames) {
		return NullImage()
	}
	return s.frames[i]
}
