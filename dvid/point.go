package dvid

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Point3d is an ordered list of three 32-bit signed integers.  It is used both for
// voxel coordinates and for extents (width, height, depth) of a dense volume.
type Point3d [3]int32

// Bytes returns a byte representation of the Point3d in little endian format.
func (p Point3d) Bytes() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, p[0])
	binary.Write(buf, binary.LittleEndian, p[1])
	binary.Write(buf, binary.LittleEndian, p[2])
	return buf.Bytes()
}

// Point3dFromBytes decodes a Point3d written by Bytes.
func Point3dFromBytes(b []byte) (readPt Point3d, err error) {
	buf := bytes.NewReader(b)
	if err = binary.Read(buf, binary.LittleEndian, &(readPt[0])); err != nil {
		return
	}
	if err = binary.Read(buf, binary.LittleEndian, &(readPt[1])); err != nil {
		return
	}
	if err = binary.Read(buf, binary.LittleEndian, &(readPt[2])); err != nil {
		return
	}
	return
}

// SetMinimum sets the point to the minimum elements of current and passed points.
func (p *Point3d) SetMinimum(p2 Point3d) {
	if p[0] > p2[0] {
		p[0] = p2[0]
	}
	if p[1] > p2[1] {
		p[1] = p2[1]
	}
	if p[2] > p2[2] {
		p[2] = p2[2]
	}
}

// SetMaximum sets the point to the maximum elements of current and passed points.
func (p *Point3d) SetMaximum(p2 Point3d) {
	if p[0] < p2[0] {
		p[0] = p2[0]
	}
	if p[1] < p2[1] {
		p[1] = p2[1]
	}
	if p[2] < p2[2] {
		p[2] = p2[2]
	}
}

// Value returns the point's value for the specified dimension without checking dim bounds.
func (p Point3d) Value(dim uint8) int32 {
	return p[dim]
}

// CheckedValue returns the point's value for the specified dimension and checks dim bounds.
func (p Point3d) CheckedValue(dim uint8) (int32, error) {
	if dim >= 3 {
		return 0, fmt.Errorf("cannot return dimension %d of 3d point", dim)
	}
	return p[dim], nil
}

// Add returns the addition of two points.
func (p Point3d) Add(p2 Point3d) Point3d {
	return Point3d{p[0] + p2[0], p[1] + p2[1], p[2] + p2[2]}
}

// Sub returns the subtraction of the passed point from the receiver.
func (p Point3d) Sub(p2 Point3d) Point3d {
	return Point3d{p[0] - p2[0], p[1] - p2[1], p[2] - p2[2]}
}

// DivScalar divides this point by a scalar value, never letting a component drop below 1.
// This is the sizing rule for down-sampled and coarse grids.
func (p Point3d) DivScalar(value int32) Point3d {
	var result Point3d
	for dim := 0; dim < 3; dim++ {
		result[dim] = p[dim] / value
		if result[dim] < 1 {
			result[dim] = 1
		}
	}
	return result
}

// MaxDim returns the largest component.
func (p Point3d) MaxDim() int32 {
	m := p[0]
	if p[1] > m {
		m = p[1]
	}
	if p[2] > m {
		m = p[2]
	}
	return m
}

// Positive returns true if every component is > 0, i.e., the point is a valid extent.
func (p Point3d) Positive() bool {
	return p[0] > 0 && p[1] > 0 && p[2] > 0
}

// Prod returns the product of the components, i.e., the number of voxels for an extent.
func (p Point3d) Prod() int64 {
	return int64(p[0]) * int64(p[1]) * int64(p[2])
}

// Index returns the flattened index of voxel (x, y, z) within an extent, x varying fastest.
func (p Point3d) Index(x, y, z int32) int {
	return int(x) + int(y)*int(p[0]) + int(z)*int(p[0])*int(p[1])
}

func (p Point3d) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p[0], p[1], p[2])
}
