package volume

import "github.com/janelia-flyem/vdbtex/datatype/common/nanovdb"

// Field is a read-only sparse scalar field.  Value returns the scalar stored at an
// integer voxel coordinate, or the field's default value where nothing is stored.
// Implementations must be safe for concurrent calls to Value.
type Field interface {
	Value(c nanovdb.Coord) float32
}

// Bounded is implemented by fields that know the index-space bounding box of their
// stored voxels.  A resampler maps its extents onto these bounds.
type Bounded interface {
	Bounds() nanovdb.CoordBBox
}

// VoxelSized is implemented by fields that carry a world-space voxel size.
type VoxelSized interface {
	VoxelSize() nanovdb.Vec3d
}

// FieldFunc adapts an ordinary function to a Field.
type FieldFunc func(c nanovdb.Coord) float32

// Value calls f(c).
func (f FieldFunc) Value(c nanovdb.Coord) float32 {
	return f(c)
}

// ConstantField returns the same value at every coordinate.
type ConstantField float32

// Value returns the constant.
func (f ConstantField) Value(nanovdb.Coord) float32 {
	return float32(f)
}

var (
	_ Field      = (*nanovdb.FloatGrid)(nil)
	_ Bounded    = (*nanovdb.FloatGrid)(nil)
	_ VoxelSized = (*nanovdb.FloatGrid)(nil)
)
