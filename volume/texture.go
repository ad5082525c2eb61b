package volume

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/chewxy/math32"
	"github.com/x448/float16"
)

// Format is the texel encoding of a dense texture buffer.
type Format uint8

const (
	// FormatRFloat stores one 32-bit float per texel.
	FormatRFloat Format = iota

	// FormatRHalf stores one IEEE 754 binary16 float per texel.
	FormatRHalf

	// FormatR8 stores one unsigned normalized byte per texel.
	FormatR8

	// FormatRGBAFloat stores four 32-bit floats per texel with the value replicated
	// into every channel.
	FormatRGBAFloat
)

func (f Format) String() string {
	switch f {
	case FormatRFloat:
		return "rfloat"
	case FormatRHalf:
		return "rhalf"
	case FormatR8:
		return "r8"
	case FormatRGBAFloat:
		return "rgbafloat"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// BytesPerTexel returns the encoded size of one texel.
func (f Format) BytesPerTexel() int {
	switch f {
	case FormatRFloat:
		return 4
	case FormatRHalf:
		return 2
	case FormatR8:
		return 1
	case FormatRGBAFloat:
		return 16
	default:
		return 0
	}
}

// ParseFormat returns the Format for a name as printed by Format.String.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "rfloat", "float", "r32f":
		return FormatRFloat, nil
	case "rhalf", "half", "r16f":
		return FormatRHalf, nil
	case "r8", "unorm8", "byte":
		return FormatR8, nil
	case "rgbafloat", "color", "rgba32f":
		return FormatRGBAFloat, nil
	}
	return FormatRFloat, fmt.Errorf("unknown texture format %q", name)
}

// TextureData is a caller-allocated dense buffer that a Resampler fills.
// Set receives a normalized value in [0,1] and encodes it in the buffer's format.
type TextureData interface {
	Format() Format

	// Len returns the number of texels the buffer can hold.
	Len() int

	Set(i int, v float32)

	// At returns texel i decoded back to a float.
	At(i int) float32

	// Bytes returns the texels encoded little-endian.
	Bytes() []byte
}

// NewTexture allocates a texture of the given format holding n texels.
func NewTexture(format Format, n int) (TextureData, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative texture size %d", n)
	}
	switch format {
	case FormatRFloat:
		return make(FloatTexture, n), nil
	case FormatRHalf:
		return make(HalfTexture, n), nil
	case FormatR8:
		return make(UNorm8Texture, n), nil
	case FormatRGBAFloat:
		return make(ColorTexture, n), nil
	}
	return nil, fmt.Errorf("cannot allocate texture of unknown %s", format)
}

// TextureFromBytes decodes texels produced by TextureData.Bytes.
func TextureFromBytes(format Format, b []byte) (TextureData, error) {
	bpt := format.BytesPerTexel()
	if bpt == 0 {
		return nil, fmt.Errorf("cannot decode texture of unknown %s", format)
	}
	if len(b)%bpt != 0 {
		return nil, fmt.Errorf("%d bytes is not a whole number of %s texels", len(b), format)
	}
	n := len(b) / bpt
	switch format {
	case FormatRFloat:
		t := make(FloatTexture, n)
		for i := range t {
			t[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
		}
		return t, nil
	case FormatRHalf:
		t := make(HalfTexture, n)
		for i := range t {
			t[i] = float16.Frombits(binary.LittleEndian.Uint16(b[i*2:]))
		}
		return t, nil
	case FormatR8:
		t := make(UNorm8Texture, n)
		copy(t, b)
		return t, nil
	default:
		t := make(ColorTexture, n)
		for i := range t {
			off := i * 16
			t[i] = Color{
				R: math.Float32frombits(binary.LittleEndian.Uint32(b[off:])),
				G: math.Float32frombits(binary.LittleEndian.Uint32(b[off+4:])),
				B: math.Float32frombits(binary.LittleEndian.Uint32(b[off+8:])),
				A: math.Float32frombits(binary.LittleEndian.Uint32(b[off+12:])),
			}
		}
		return t, nil
	}
}

// FloatTexture is a single channel 32-bit float texture.
type FloatTexture []float32

func (t FloatTexture) Format() Format       { return FormatRFloat }
func (t FloatTexture) Len() int             { return len(t) }
func (t FloatTexture) Set(i int, v float32) { t[i] = v }
func (t FloatTexture) At(i int) float32     { return t[i] }

func (t FloatTexture) Bytes() []byte {
	b := make([]byte, len(t)*4)
	for i, v := range t {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

// HalfTexture is a single channel half-precision texture.
type HalfTexture []float16.Float16

func (t HalfTexture) Format() Format       { return FormatRHalf }
func (t HalfTexture) Len() int             { return len(t) }
func (t HalfTexture) Set(i int, v float32) { t[i] = float16.Fromfloat32(v) }
func (t HalfTexture) At(i int) float32     { return t[i].Float32() }

func (t HalfTexture) Bytes() []byte {
	b := make([]byte, len(t)*2)
	for i, v := range t {
		binary.LittleEndian.PutUint16(b[i*2:], v.Bits())
	}
	return b
}

// UNorm8Texture is a single channel texture of unsigned normalized bytes.  Values are
// clamped to [0,1] and rounded to the nearest of 256 levels.
type UNorm8Texture []uint8

func (t UNorm8Texture) Format() Format { return FormatR8 }
func (t UNorm8Texture) Len() int       { return len(t) }

func (t UNorm8Texture) Set(i int, v float32) {
	t[i] = uint8(math32.Floor(clamp01(v)*255 + 0.5))
}

func (t UNorm8Texture) At(i int) float32 { return float32(t[i]) / 255 }

func (t UNorm8Texture) Bytes() []byte {
	b := make([]byte, len(t))
	copy(b, t)
	return b
}

// Color is one RGBA float texel.
type Color struct {
	R, G, B, A float32
}

// ColorTexture is an RGBA float texture, the layout of a host Color array.
// Every channel receives the same value.
type ColorTexture []Color

func (t ColorTexture) Format() Format       { return FormatRGBAFloat }
func (t ColorTexture) Len() int             { return len(t) }
func (t ColorTexture) Set(i int, v float32) { t[i] = Color{v, v, v, v} }
func (t ColorTexture) At(i int) float32     { return t[i].R }

func (t ColorTexture) Bytes() []byte {
	b := make([]byte, len(t)*16)
	for i, c := range t {
		off := i * 16
		binary.LittleEndian.PutUint32(b[off:], math.Float32bits(c.R))
		binary.LittleEndian.PutUint32(b[off+4:], math.Float32bits(c.G))
		binary.LittleEndian.PutUint32(b[off+8:], math.Float32bits(c.B))
		binary.LittleEndian.PutUint32(b[off+12:], math.Float32bits(c.A))
	}
	return b
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
