/*
Package downres computes lower resolution versions of dense volumes.  Each scale
level halves the resolution of the previous one by averaging blocks of voxels, with
scale 0 being the input volume.
*/
package downres

import (
	"fmt"

	"github.com/janelia-flyem/vdbtex/dvid"
)

// Level is one scale of a multi-resolution pyramid.
type Level struct {
	Scale   uint8
	Extents dvid.Point3d
	Values  []float32
}

// Downsample reduces a dense volume held in x-fastest order by an integer factor.
// Output dimensions are max(1, dim/factor).  Each output voxel is the mean of a
// factor³ block, with source indices clamped to the volume edge.
func Downsample(values []float32, extents dvid.Point3d, factor int32) ([]float32, dvid.Point3d, error) {
	if !extents.Positive() {
		return nil, dvid.Point3d{}, fmt.Errorf("cannot downsample volume with extents %s", extents)
	}
	if int64(len(values)) != extents.Prod() {
		return nil, dvid.Point3d{}, fmt.Errorf("volume %s needs %d values, got %d", extents, extents.Prod(), len(values))
	}
	if factor < 1 {
		return nil, dvid.Point3d{}, fmt.Errorf("downsample factor must be positive, got %d", factor)
	}
	lores := extents.DivScalar(factor)
	out := make([]float32, lores.Prod())
	count := float64(factor) * float64(factor) * float64(factor)
	for z := int32(0); z < lores[2]; z++ {
		for y := int32(0); y < lores[1]; y++ {
			for x := int32(0); x < lores[0]; x++ {
				var sum float64
				for dz := int32(0); dz < factor; dz++ {
					sz := min(z*factor+dz, extents[2]-1)
					for dy := int32(0); dy < factor; dy++ {
						sy := min(y*factor+dy, extents[1]-1)
						for dx := int32(0); dx < factor; dx++ {
							sx := min(x*factor+dx, extents[0]-1)
							sum += float64(values[extents.Index(sx, sy, sz)])
						}
					}
				}
				out[lores.Index(x, y, z)] = float32(sum / count)
			}
		}
	}
	return out, lores, nil
}

// Pyramid returns scale 0 (the given volume) followed by up to maxScale successive
// 2x reductions.  It stops early once every dimension is 1.
func Pyramid(values []float32, extents dvid.Point3d, maxScale uint8) ([]Level, error) {
	if int64(len(values)) != extents.Prod() || !extents.Positive() {
		return nil, fmt.Errorf("volume %s does not match %d values", extents, len(values))
	}
	timedLog := dvid.NewTimeLog()
	levels := []Level{{Scale: 0, Extents: extents, Values: values}}
	for scale := uint8(1); scale <= maxScale; scale++ {
		prev := levels[len(levels)-1]
		if prev.Extents.MaxDim() <= 1 {
			break
		}
		lores, loresExtents, err := Downsample(prev.Values, prev.Extents, 2)
		if err != nil {
			return nil, fmt.Errorf("scale %d: %w", scale, err)
		}
		levels = append(levels, Level{Scale: scale, Extents: loresExtents, Values: lores})
	}
	timedLog.Debugf("Computed %d scale levels from volume %s", len(levels), extents)
	return levels, nil
}
