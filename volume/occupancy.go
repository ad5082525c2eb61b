package volume

import (
	"fmt"

	"github.com/janelia-flyem/vdbtex/dvid"
)

// Default parameters for occupancy grids and brick maps.
const (
	DefaultOccupancyDivisor = 8
	DefaultBrickSize        = 8
)

// OccupancyGrid is a coarse mask over a dense volume used for empty space skipping.
// Cells are 1 where any covered voxel is above the threshold and 0 elsewhere.
type OccupancyGrid struct {
	Size  dvid.Point3d
	Cells []uint8
}

// Occupied returns whether the cell at (x,y,z) holds data.
func (g OccupancyGrid) Occupied(x, y, z int32) bool {
	return g.Cells[g.Size.Index(x, y, z)] != 0
}

// CountOccupied returns the number of occupied cells.
func (g OccupancyGrid) CountOccupied() int {
	var n int
	for _, c := range g.Cells {
		if c != 0 {
			n++
		}
	}
	return n
}

// blockRange returns the voxels covered by coarse cell i when a dimension of size
// dim is partitioned into cells of the given size.  The last cell absorbs any
// remainder so no voxel goes uncovered.
func blockRange(i, cells, blockSize, dim int32) (lo, hi int32) {
	lo = i * blockSize
	hi = lo + blockSize
	if i == cells-1 || hi > dim {
		hi = dim
	}
	return
}

// BuildOccupancyGrid marks which divisor³ blocks of a dense volume hold a value
// above threshold.  The grid has max(1, dim/divisor) cells per axis.
func BuildOccupancyGrid(values []float32, extents dvid.Point3d, divisor int32, threshold float32) (OccupancyGrid, error) {
	if err := checkDense(values, extents); err != nil {
		return OccupancyGrid{}, err
	}
	if divisor < 1 {
		return OccupancyGrid{}, fmt.Errorf("occupancy divisor must be positive, got %d", divisor)
	}
	size := extents.DivScalar(divisor)
	grid := OccupancyGrid{
		Size:  size,
		Cells: make([]uint8, size.Prod()),
	}
	for cz := int32(0); cz < size[2]; cz++ {
		z0, z1 := blockRange(cz, size[2], divisor, extents[2])
		for cy := int32(0); cy < size[1]; cy++ {
			y0, y1 := blockRange(cy, size[1], divisor, extents[1])
			for cx := int32(0); cx < size[0]; cx++ {
				x0, x1 := blockRange(cx, size[0], divisor, extents[0])
				if anyAbove(values, extents, x0, x1, y0, y1, z0, z1, threshold) {
					grid.Cells[size.Index(cx, cy, cz)] = 1
				}
			}
		}
	}
	return grid, nil
}

func anyAbove(values []float32, extents dvid.Point3d, x0, x1, y0, y1, z0, z1 int32, threshold float32) bool {
	for z := z0; z < z1; z++ {
		for y := y0; y < y1; y++ {
			i := extents.Index(x0, y, z)
			for x := x0; x < x1; x++ {
				if values[i] > threshold {
					return true
				}
				i++
			}
		}
	}
	return false
}

// Mip returns the next coarser level of the grid, where a cell is occupied if any of
// its 2³ children is.  A grid that is already 1x1x1 is returned unchanged.
func (g OccupancyGrid) Mip() OccupancyGrid {
	if g.Size.MaxDim() <= 1 {
		return g
	}
	size := g.Size.DivScalar(2)
	mip := OccupancyGrid{
		Size:  size,
		Cells: make([]uint8, size.Prod()),
	}
	for cz := int32(0); cz < size[2]; cz++ {
		z0, z1 := blockRange(cz, size[2], 2, g.Size[2])
		for cy := int32(0); cy < size[1]; cy++ {
			y0, y1 := blockRange(cy, size[1], 2, g.Size[1])
			for cx := int32(0); cx < size[0]; cx++ {
				x0, x1 := blockRange(cx, size[0], 2, g.Size[0])
			children:
				for z := z0; z < z1; z++ {
					for y := y0; y < y1; y++ {
						for x := x0; x < x1; x++ {
							if g.Occupied(x, y, z) {
								mip.Cells[size.Index(cx, cy, cz)] = 1
								break children
							}
						}
					}
				}
			}
		}
	}
	return mip
}

// MipChain returns the grid followed by successively coarser levels down to 1x1x1.
func (g OccupancyGrid) MipChain() []OccupancyGrid {
	chain := []OccupancyGrid{g}
	for g.Size.MaxDim() > 1 {
		g = g.Mip()
		chain = append(chain, g)
	}
	return chain
}
