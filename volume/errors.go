package volume

import "errors"

var (
	// ErrInvalidExtents is returned when an extent has a non-positive dimension.
	ErrInvalidExtents = errors.New("invalid extents")

	// ErrBufferTooSmall is returned when a texture holds fewer texels than the extents require.
	ErrBufferTooSmall = errors.New("texture buffer too small")

	// ErrNilBuffer is returned when a nil texture is passed for filling.
	ErrNilBuffer = errors.New("nil texture buffer")

	// ErrNilField is returned when a resampler is constructed without a field.
	ErrNilField = errors.New("nil field")
)
