// Package nanovdb provides a pure Go sparse volume modeled on the NanoVDB tree layout.
//
// NanoVDB is a lightweight, GPU-friendly sparse volume data structure. Voxels are
// grouped into 8³ leaf nodes, leaves into 16³ lower internal nodes, and lower nodes
// into 32³ upper internal nodes.  Only leaves that hold at least one active voxel
// are allocated; everything else reads as the grid's background value.
//
// The layout constants follow NanoVDB version 32.8.0 from the OpenVDB project:
// https://github.com/AcademySoftwareFoundation/openvdb/blob/master/nanovdb/nanovdb/NanoVDB.h
package nanovdb

import (
	"math"
	"math/bits"
)

// Node dimensions (log2)
const (
	LeafLog2Dim  = 3 // 8³ = 512 voxels per leaf
	LowerLog2Dim = 4 // 16³ = 4096 children per lower internal node
	UpperLog2Dim = 5 // 32³ = 32768 children per upper internal node

	LeafDim  = 1 << LeafLog2Dim  // 8
	LowerDim = 1 << LowerLog2Dim // 16
	UpperDim = 1 << UpperLog2Dim // 32

	// Total voxels spanned by each node type along one axis
	LeafTotalDim  = LeafDim                  // 8 voxels
	LowerTotalDim = LowerDim * LeafTotalDim  // 128 voxels
	UpperTotalDim = UpperDim * LowerTotalDim // 4096 voxels

	LeafValues = LeafDim * LeafDim * LeafDim // 512
)

// Coord represents a 3D integer coordinate (matches nanovdb::Coord)
type Coord struct {
	X, Y, Z int32
}

// CoordBBox represents an inclusive bounding box of coordinates
type CoordBBox struct {
	Min, Max Coord
}

// Vec3d represents a 3D double-precision vector
type Vec3d struct {
	X, Y, Z float64
}

// Mask512 represents a bitmask for 512 elements (8 x uint64 = 512 bits)
// Used for leaf nodes (8³ = 512 voxels)
type Mask512 [8]uint64

// SetBit sets the bit at position i in a Mask512
func (m *Mask512) SetBit(i int) {
	if i >= 0 && i < LeafValues {
		m[i>>6] |= 1 << (i & 63)
	}
}

// GetBit returns true if bit at position i is set
func (m *Mask512) GetBit(i int) bool {
	if i >= 0 && i < LeafValues {
		return (m[i>>6] & (1 << (i & 63))) != 0
	}
	return false
}

// CountOn returns the number of set bits
func (m *Mask512) CountOn() int {
	count := 0
	for _, v := range m {
		count += bits.OnesCount64(v)
	}
	return count
}

// coordToLeafOffset converts local coordinates within a leaf (0-7 each) to linear offset
func coordToLeafOffset(x, y, z int) int {
	return (z << (LeafLog2Dim + LeafLog2Dim)) | (y << LeafLog2Dim) | x
}

// leafOrigin returns the origin coordinate of the leaf containing the given voxel
func leafOrigin(x, y, z int32) Coord {
	mask := int32(^(LeafDim - 1))
	return Coord{x & mask, y & mask, z & mask}
}

// lowerOrigin returns the origin coordinate of the lower node containing the given voxel
func lowerOrigin(x, y, z int32) Coord {
	mask := int32(^(LowerTotalDim - 1))
	return Coord{x & mask, y & mask, z & mask}
}

// upperOrigin returns the origin coordinate of the upper node containing the given voxel
func upperOrigin(x, y, z int32) Coord {
	mask := int32(^(UpperTotalDim - 1))
	return Coord{x & mask, y & mask, z & mask}
}

// coordLess orders coordinates by Z, then Y, then X.
func coordLess(a, b Coord) bool {
	if a.Z != b.Z {
		return a.Z < b.Z
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

// NewEmptyBBox creates a bounding box initialized to "empty" state
func NewEmptyBBox() CoordBBox {
	return CoordBBox{
		Min: Coord{math.MaxInt32, math.MaxInt32, math.MaxInt32},
		Max: Coord{math.MinInt32, math.MinInt32, math.MinInt32},
	}
}

// ExpandBBox expands the bounding box to include the given coordinate
func (bbox *CoordBBox) ExpandBBox(c Coord) {
	if c.X < bbox.Min.X {
		bbox.Min.X = c.X
	}
	if c.Y < bbox.Min.Y {
		bbox.Min.Y = c.Y
	}
	if c.Z < bbox.Min.Z {
		bbox.Min.Z = c.Z
	}
	if c.X > bbox.Max.X {
		bbox.Max.X = c.X
	}
	if c.Y > bbox.Max.Y {
		bbox.Max.Y = c.Y
	}
	if c.Z > bbox.Max.Z {
		bbox.Max.Z = c.Z
	}
}

// IsEmpty returns true if the bounding box is empty
func (bbox CoordBBox) IsEmpty() bool {
	return bbox.Min.X > bbox.Max.X || bbox.Min.Y > bbox.Max.Y || bbox.Min.Z > bbox.Max.Z
}

// Dim returns the number of voxels spanned along each axis.  An empty box has zero dims.
func (bbox CoordBBox) Dim() Coord {
	if bbox.IsEmpty() {
		return Coord{}
	}
	return Coord{
		bbox.Max.X - bbox.Min.X + 1,
		bbox.Max.Y - bbox.Min.Y + 1,
		bbox.Max.Z - bbox.Min.Z + 1,
	}
}

// Contains returns true if the coordinate lies inside the box.
func (bbox CoordBBox) Contains(c Coord) bool {
	return c.X >= bbox.Min.X && c.X <= bbox.Max.X &&
		c.Y >= bbox.Min.Y && c.Y <= bbox.Max.Y &&
		c.Z >= bbox.Min.Z && c.Z <= bbox.Max.Z
}
