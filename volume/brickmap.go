package volume

import (
	"fmt"

	"github.com/janelia-flyem/vdbtex/dvid"
)

// BrickMap packs the non-empty bricks of a dense volume into a compact atlas.
// Indirection maps every brick of the source grid to its atlas slot, or -1 when
// the brick holds no value above the threshold.
type BrickMap struct {
	Extents   dvid.Point3d
	GridSize  dvid.Point3d
	BrickSize int32

	// Bricks lists the grid coordinates of active bricks in slot order.
	Bricks []dvid.Point3d

	BricksPerRow int32
	Slices       int32
	AtlasSize    dvid.Point3d
	Atlas        []float32

	Indirection []int32
}

// ActiveBricks returns the number of bricks stored in the atlas.
func (m *BrickMap) ActiveBricks() int {
	return len(m.Bricks)
}

// SlotOrigin returns the atlas voxel coordinate of a slot's first voxel.
func (m *BrickMap) SlotOrigin(slot int32) dvid.Point3d {
	perSlice := m.BricksPerRow * m.BricksPerRow
	return dvid.Point3d{
		(slot % m.BricksPerRow) * m.BrickSize,
		((slot / m.BricksPerRow) % m.BricksPerRow) * m.BrickSize,
		(slot / perSlice) * m.BrickSize,
	}
}

// Value returns the source value at voxel (x,y,z) as reconstructed from the atlas.
// Voxels in inactive bricks or outside the extents read as zero.
func (m *BrickMap) Value(x, y, z int32) float32 {
	if x < 0 || y < 0 || z < 0 || x >= m.Extents[0] || y >= m.Extents[1] || z >= m.Extents[2] {
		return 0
	}
	b := dvid.Point3d{x / m.BrickSize, y / m.BrickSize, z / m.BrickSize}
	slot := m.Indirection[m.GridSize.Index(b[0], b[1], b[2])]
	if slot < 0 {
		return 0
	}
	o := m.SlotOrigin(slot)
	return m.Atlas[m.AtlasSize.Index(
		o[0]+x-b[0]*m.BrickSize,
		o[1]+y-b[1]*m.BrickSize,
		o[2]+z-b[2]*m.BrickSize)]
}

// cubeRootCeil returns the smallest r with r³ >= n.
func cubeRootCeil(n int32) int32 {
	r := int32(1)
	for int64(r)*int64(r)*int64(r) < int64(n) {
		r++
	}
	return r
}

// BuildBrickMap splits a dense volume into brickSize³ bricks, keeps those holding a
// value above threshold, and lays them out in an atlas of bricksPerRow² bricks per
// slice.  The grid has ceil(dim/brickSize) bricks per axis so every voxel is
// covered; reads past the volume edge are clamped to the last voxel.  An atlas
// always has room for at least one brick.
func BuildBrickMap(values []float32, extents dvid.Point3d, brickSize int32, threshold float32) (*BrickMap, error) {
	if err := checkDense(values, extents); err != nil {
		return nil, err
	}
	if brickSize < 1 {
		return nil, fmt.Errorf("brick size must be positive, got %d", brickSize)
	}
	timedLog := dvid.NewTimeLog()

	var grid dvid.Point3d
	for dim := 0; dim < 3; dim++ {
		grid[dim] = (extents[dim] + brickSize - 1) / brickSize
	}
	m := &BrickMap{
		Extents:     extents,
		GridSize:    grid,
		BrickSize:   brickSize,
		Indirection: make([]int32, grid.Prod()),
	}
	for bz := int32(0); bz < grid[2]; bz++ {
		for by := int32(0); by < grid[1]; by++ {
			for bx := int32(0); bx < grid[0]; bx++ {
				i := grid.Index(bx, by, bz)
				x0, y0, z0 := bx*brickSize, by*brickSize, bz*brickSize
				if anyAbove(values, extents,
					x0, min(x0+brickSize, extents[0]),
					y0, min(y0+brickSize, extents[1]),
					z0, min(z0+brickSize, extents[2]), threshold) {
					m.Indirection[i] = int32(len(m.Bricks))
					m.Bricks = append(m.Bricks, dvid.Point3d{bx, by, bz})
				} else {
					m.Indirection[i] = -1
				}
			}
		}
	}

	slots := max(int32(1), int32(len(m.Bricks)))
	m.BricksPerRow = cubeRootCeil(slots)
	perSlice := m.BricksPerRow * m.BricksPerRow
	m.Slices = (slots + perSlice - 1) / perSlice
	m.AtlasSize = dvid.Point3d{
		m.BricksPerRow * brickSize,
		m.BricksPerRow * brickSize,
		m.Slices * brickSize,
	}
	m.Atlas = make([]float32, m.AtlasSize.Prod())

	for slot, b := range m.Bricks {
		o := m.SlotOrigin(int32(slot))
		for dz := int32(0); dz < brickSize; dz++ {
			sz := min(b[2]*brickSize+dz, extents[2]-1)
			for dy := int32(0); dy < brickSize; dy++ {
				sy := min(b[1]*brickSize+dy, extents[1]-1)
				dst := m.AtlasSize.Index(o[0], o[1]+dy, o[2]+dz)
				for dx := int32(0); dx < brickSize; dx++ {
					sx := min(b[0]*brickSize+dx, extents[0]-1)
					m.Atlas[dst] = values[extents.Index(sx, sy, sz)]
					dst++
				}
			}
		}
	}
	timedLog.Debugf("Built brick map of %d/%d active bricks, atlas %s", len(m.Bricks), grid.Prod(), m.AtlasSize)
	return m, nil
}
