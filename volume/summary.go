package volume

import "fmt"

// OccupancyThreshold is the normalized value above which a texel counts as occupied.
const OccupancyThreshold = 0.001

// Summary describes the most recent successful fill of a Resampler.  The zero
// value is the empty summary reported before any fill and after Reset.
type Summary struct {
	// Valid is false for the empty summary.
	Valid bool

	Width, Height, Depth int32
	Format               Format

	// WorldSize is the world-space size of the sampled source domain.
	WorldSize [3]float64

	// Min, Max and Mean are taken over the scaled samples before normalization.
	Min  float32
	Max  float32
	Mean float64

	// OutputMin and OutputMax are taken over the normalized texel values.
	OutputMin float32
	OutputMax float32

	TotalVoxels    int64
	OccupiedVoxels int64
	OccupancyRatio float64
}

func (s Summary) String() string {
	if !s.Valid {
		return "empty volume summary"
	}
	return fmt.Sprintf("%dx%dx%d %s texture: raw [%g, %g] mean %g, output [%g, %g], %d/%d occupied",
		s.Width, s.Height, s.Depth, s.Format, s.Min, s.Max, s.Mean,
		s.OutputMin, s.OutputMax, s.OccupiedVoxels, s.TotalVoxels)
}
