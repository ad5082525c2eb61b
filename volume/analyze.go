package volume

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/stat"

	"github.com/janelia-flyem/vdbtex/dvid"
)

// Stats describes a dense volume held in x-fastest order.
type Stats struct {
	Extents dvid.Point3d

	Min    float32
	Max    float32
	Mean   float64
	StdDev float64

	TotalVoxels    int64
	OccupiedVoxels int64
	OccupancyRatio float64
}

func checkDense(values []float32, extents dvid.Point3d) error {
	if !extents.Positive() {
		return fmt.Errorf("%w: %s", ErrInvalidExtents, extents)
	}
	if int64(len(values)) != extents.Prod() {
		return fmt.Errorf("volume %s needs %d values, got %d", extents, extents.Prod(), len(values))
	}
	return nil
}

// Analyze computes statistics over a dense volume.  A voxel above
// OccupancyThreshold counts as occupied.
func Analyze(values []float32, extents dvid.Point3d) (Stats, error) {
	if err := checkDense(values, extents); err != nil {
		return Stats{}, err
	}
	s := analyze(values)
	s.Extents = extents
	return s, nil
}

func analyze(values []float32) Stats {
	s := Stats{
		Min:         math.MaxFloat32,
		Max:         -math.MaxFloat32,
		TotalVoxels: int64(len(values)),
	}
	if len(values) == 0 {
		s.Min, s.Max = 0, 0
		return s
	}
	x := make([]float64, len(values))
	for i, v := range values {
		s.Min = math32.Min(s.Min, v)
		s.Max = math32.Max(s.Max, v)
		if v > OccupancyThreshold {
			s.OccupiedVoxels++
		}
		x[i] = float64(v)
	}
	s.Mean, s.StdDev = stat.PopMeanStdDev(x, nil)
	s.OccupancyRatio = float64(s.OccupiedVoxels) / float64(len(values))
	return s
}

// NormalizeInPlace maps values onto [0,1] by their minimum and maximum and returns
// the statistics of the input.  Flat volumes and volumes whose maximum is not
// positive are left unchanged.
func NormalizeInPlace(values []float32) Stats {
	s := analyze(values)
	if s.Max <= 0 || nearlyEqual(s.Min, s.Max) {
		return s
	}
	span := s.Max - s.Min
	for i, v := range values {
		values[i] = (v - s.Min) / span
	}
	return s
}

func nearlyEqual(a, b float32) bool {
	tol := math32.Max(1e-6*math32.Max(math32.Abs(a), math32.Abs(b)), 8*math.SmallestNonzeroFloat32)
	return math32.Abs(a-b) < tol
}

// QualityPreset holds ray marching parameters suited to a volume.
type QualityPreset struct {
	StepDistance          float32
	MaxSteps              int
	ShadowSteps           int
	EmptySpaceSkipping    bool
	TemporalJitter        bool
	AdaptiveStepping      bool
	HenyeyGreensteinPhase bool
	MultiScatterApprox    bool
	TemporalReprojection  bool
	OccupancyGridDivisor  int
}

// SuggestQuality picks ray marching parameters from the size and sparsity of a
// volume.  Larger volumes get coarser steps.
func SuggestQuality(s Stats, targetFPS float32) QualityPreset {
	maxDim := s.Extents.MaxDim()
	var p QualityPreset
	switch {
	case maxDim <= 64:
		p.StepDistance, p.MaxSteps, p.ShadowSteps = 0.005, 256, 8
	case maxDim <= 128:
		p.StepDistance, p.MaxSteps, p.ShadowSteps = 0.008, 200, 6
	case maxDim <= 256:
		p.StepDistance, p.MaxSteps, p.ShadowSteps = 0.012, 150, 4
	default:
		p.StepDistance, p.MaxSteps, p.ShadowSteps = 0.02, 100, 3
	}
	p.EmptySpaceSkipping = s.OccupancyRatio < 0.5
	p.TemporalJitter = true
	p.AdaptiveStepping = true
	p.HenyeyGreensteinPhase = maxDim <= 128
	p.TemporalReprojection = targetFPS <= 30
	if maxDim <= 128 {
		p.OccupancyGridDivisor = 4
	} else {
		p.OccupancyGridDivisor = 8
	}
	return p
}
