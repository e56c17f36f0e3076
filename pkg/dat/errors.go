package dat

import "errors"

// DAT format errors.
var (
	ErrFormatMismatch   = errors.New("dat: fixed literal or structural constraint violated")
	ErrLengthMismatch   = errors.New("dat: header file size does not match real file length")
	ErrTruncated        = errors.New("dat: unexpected end of file")
	ErrIndexOutOfRange  = errors.New("dat: sequence or frame index out of range")
	ErrInvalidImageSize = errors.New("dat: invalid image dimensions")
	ErrMissingReference = errors.New("dat: animation record references a missing sequence or frame")
)
