package nanovdb

import (
	"math"
	"sort"

	"github.com/DmitriyVTitov/size"
)

// FloatLeafNode represents a leaf node for a float scalar grid.
// Leaf nodes are 8³ = 512 voxels. For float grids, we store:
// - Origin coordinate
// - Active state bitmask (which voxels are "on")
// - Values for all 512 voxel positions, background where inactive
// - Statistics over active voxels (min, max, average, stddev)
type FloatLeafNode struct {
	Origin    Coord        // Origin coordinate of this leaf
	ValueMask Mask512      // Which voxels are active
	Values    [512]float32 // Values for all voxel positions
	Minimum   float32      // Min of active values
	Maximum   float32      // Max of active values
	Average   float64      // Mean of active values
	StdDevi   float64      // Standard deviation of active values
	BBox      CoordBBox    // Bounding box of active voxels
}

// FloatGrid is a read-only sparse scalar field.  Voxels that were never added read
// as the background value.  A FloatGrid is safe for concurrent reads.
type FloatGrid struct {
	Name   string
	Origin Vec3d

	voxelSize  Vec3d
	background float32
	leaves     map[Coord]*FloatLeafNode

	// LeafNodes is sorted by origin for deterministic iteration.
	LeafNodes []*FloatLeafNode

	// Number of lower (16³) and upper (32³) internal nodes touched by the leaves.
	LowerCount int
	UpperCount int

	// Statistics
	ActiveVoxelCount uint64
	BBox             CoordBBox
	Minimum          float32
	Maximum          float32
}

// FloatGridBuilder constructs a FloatGrid from voxel coordinates and values.
type FloatGridBuilder struct {
	name       string
	voxelSize  Vec3d
	origin     Vec3d
	background float32

	leafMap map[Coord]*FloatLeafNode

	// Statistics tracked incrementally
	voxelCount uint64
	bbox       CoordBBox
}

// NewFloatGridBuilder creates a new builder for constructing a FloatGrid.
func NewFloatGridBuilder(name string) *FloatGridBuilder {
	return &FloatGridBuilder{
		name:      name,
		voxelSize: Vec3d{1.0, 1.0, 1.0},
		leafMap:   make(map[Coord]*FloatLeafNode),
		bbox:      NewEmptyBBox(),
	}
}

// SetVoxelSize sets the voxel dimensions in world units.
func (b *FloatGridBuilder) SetVoxelSize(size Vec3d) *FloatGridBuilder {
	b.voxelSize = size
	return b
}

// SetOrigin sets the world-space origin of the grid.
func (b *FloatGridBuilder) SetOrigin(origin Vec3d) *FloatGridBuilder {
	b.origin = origin
	return b
}

// SetBackground sets the value for inactive voxels.  It must be called before
// any voxel is added so allocated leaves are filled with it.
func (b *FloatGridBuilder) SetBackground(bg float32) *FloatGridBuilder {
	b.background = bg
	return b
}

// AddVoxel adds a single active voxel with the given value.  Adding the same
// coordinate twice keeps the last value.
func (b *FloatGridBuilder) AddVoxel(x, y, z int32, value float32) {
	v := Coord{X: x, Y: y, Z: z}
	origin := leafOrigin(v.X, v.Y, v.Z)

	leaf, exists := b.leafMap[origin]
	if !exists {
		leaf = &FloatLeafNode{
			Origin: origin,
			BBox:   NewEmptyBBox(),
		}
		for i := range leaf.Values {
			leaf.Values[i] = b.background
		}
		b.leafMap[origin] = leaf
	}

	offset := coordToLeafOffset(int(v.X-origin.X), int(v.Y-origin.Y), int(v.Z-origin.Z))
	leaf.Values[offset] = value

	// Only count if this is a new voxel (bit not already set)
	if !leaf.ValueMask.GetBit(offset) {
		leaf.ValueMask.SetBit(offset)
		b.voxelCount++
		b.bbox.ExpandBBox(v)
		leaf.BBox.ExpandBBox(v)
	}
}

// Build constructs the FloatGrid from all added voxels.  Returns nil if no voxels
// were added.
func (b *FloatGridBuilder) Build() *FloatGrid {
	if b.voxelCount == 0 {
		return nil
	}

	grid := &FloatGrid{
		Name:             b.name,
		Origin:           b.origin,
		voxelSize:        b.voxelSize,
		background:       b.background,
		leaves:           make(map[Coord]*FloatLeafNode, len(b.leafMap)),
		LeafNodes:        make([]*FloatLeafNode, 0, len(b.leafMap)),
		ActiveVoxelCount: b.voxelCount,
		BBox:             b.bbox,
		Minimum:          math.MaxFloat32,
		Maximum:          -math.MaxFloat32,
	}

	lowers := make(map[Coord]struct{})
	uppers := make(map[Coord]struct{})
	for origin, leaf := range b.leafMap {
		computeLeafStats(leaf)
		if leaf.Minimum < grid.Minimum {
			grid.Minimum = leaf.Minimum
		}
		if leaf.Maximum > grid.Maximum {
			grid.Maximum = leaf.Maximum
		}
		grid.leaves[origin] = leaf
		grid.LeafNodes = append(grid.LeafNodes, leaf)
		lowers[lowerOrigin(origin.X, origin.Y, origin.Z)] = struct{}{}
		uppers[upperOrigin(origin.X, origin.Y, origin.Z)] = struct{}{}
	}
	grid.LowerCount = len(lowers)
	grid.UpperCount = len(uppers)

	sort.Slice(grid.LeafNodes, func(i, j int) bool {
		return coordLess(grid.LeafNodes[i].Origin, grid.LeafNodes[j].Origin)
	})
	return grid
}

// computeLeafStats computes min, max, average and stddev over the active voxels of a leaf.
func computeLeafStats(leaf *FloatLeafNode) {
	leaf.Minimum = math.MaxFloat32
	leaf.Maximum = -math.MaxFloat32
	count := leaf.ValueMask.CountOn()
	if count == 0 {
		leaf.Minimum, leaf.Maximum = 0, 0
		return
	}

	var sum float64
	for i := 0; i < LeafValues; i++ {
		if !leaf.ValueMask.GetBit(i) {
			continue
		}
		v := leaf.Values[i]
		if v < leaf.Minimum {
			leaf.Minimum = v
		}
		if v > leaf.Maximum {
			leaf.Maximum = v
		}
		sum += float64(v)
	}
	leaf.Average = sum / float64(count)

	var variance float64
	for i := 0; i < LeafValues; i++ {
		if leaf.ValueMask.GetBit(i) {
			diff := float64(leaf.Values[i]) - leaf.Average
			variance += diff * diff
		}
	}
	leaf.StdDevi = math.Sqrt(variance / float64(count))
}

// Value returns the value at the given coordinate.
// Returns the background value if the voxel lies in no allocated leaf.
func (g *FloatGrid) Value(c Coord) float32 {
	origin := leafOrigin(c.X, c.Y, c.Z)
	leaf, found := g.leaves[origin]
	if !found {
		return g.background
	}
	return leaf.Values[coordToLeafOffset(int(c.X-origin.X), int(c.Y-origin.Y), int(c.Z-origin.Z))]
}

// IsActive returns true if the voxel at (x, y, z) is active
func (g *FloatGrid) IsActive(x, y, z int32) bool {
	origin := leafOrigin(x, y, z)
	leaf, found := g.leaves[origin]
	if !found {
		return false
	}
	return leaf.ValueMask.GetBit(coordToLeafOffset(int(x-origin.X), int(y-origin.Y), int(z-origin.Z)))
}

// Leaf returns the leaf node containing the voxel or nil if none is allocated.
func (g *FloatGrid) Leaf(x, y, z int32) *FloatLeafNode {
	return g.leaves[leafOrigin(x, y, z)]
}

// Bounds returns the index-space bounding box of the active voxels.
func (g *FloatGrid) Bounds() CoordBBox {
	return g.BBox
}

// VoxelSize returns the voxel dimensions in world units.
func (g *FloatGrid) VoxelSize() Vec3d {
	return g.voxelSize
}

// Background returns the value of inactive voxels.
func (g *FloatGrid) Background() float32 {
	return g.background
}

// MemoryUsage returns the approximate number of bytes held by the grid.
func (g *FloatGrid) MemoryUsage() int {
	return size.Of(g)
}
