package volume

import (
	"fmt"
	"math"
	"runtime"
	"strings"

	"github.com/chewxy/math32"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/janelia-flyem/vdbtex/datatype/common/nanovdb"
	"github.com/janelia-flyem/vdbtex/dvid"
)

// Filter selects how a target cell is sampled from the source field.
type Filter uint8

const (
	// FilterNearest samples the source voxel nearest to the cell center.  Along an axis
	// with source size S and target size T, cell i reads voxel floor((i+0.5)*S/T).
	FilterNearest Filter = iota

	// FilterBox averages all source voxels whose centers fall inside the cell.
	// When upsampling, a cell covers no voxel center and falls back to nearest.
	FilterBox
)

func (f Filter) String() string {
	switch f {
	case FilterNearest:
		return "nearest"
	case FilterBox:
		return "box"
	default:
		return fmt.Sprintf("filter(%d)", uint8(f))
	}
}

// ParseFilter returns the Filter for a name as printed by Filter.String.
func ParseFilter(name string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "nearest", "point":
		return FilterNearest, nil
	case "box", "average":
		return FilterBox, nil
	}
	return FilterNearest, fmt.Errorf("unknown sampling filter %q", name)
}

// Resampler fills dense texture buffers from a sparse Field.
//
// The field is borrowed: the resampler only reads it and never releases it, so the
// caller must keep it alive for the resampler's lifetime.  A Resampler is not safe
// for concurrent use; FillTextureBuffer parallelizes internally.
type Resampler struct {
	field   Field
	extents dvid.Point3d

	// source domain sampled by the extents
	srcMin    nanovdb.Coord
	srcDim    nanovdb.Coord
	voxelSize nanovdb.Vec3d

	scaleFactor float32
	fixedMin    float32
	fixedMax    float32
	filter      Filter
	workers     int

	summary Summary

	// scaled samples of the last fill, reused between fills
	scratch []float32
}

// fitsInt reports whether the product of positive extents fits in an int.
func fitsInt(extents dvid.Point3d) bool {
	n := 1
	for _, d := range extents {
		if n > math.MaxInt/int(d) {
			return false
		}
		n *= int(d)
	}
	return true
}

// NewResampler binds a resampler to a field and a fixed target resolution.
// If the field is Bounded with a non-empty box, the extents span that box.
// Otherwise target cell (x,y,z) samples source voxel (x,y,z).
func NewResampler(field Field, extents dvid.Point3d) (*Resampler, error) {
	if field == nil {
		return nil, ErrNilField
	}
	if !extents.Positive() {
		return nil, fmt.Errorf("%w: %s must be positive in every dimension", ErrInvalidExtents, extents)
	}
	if !fitsInt(extents) {
		return nil, fmt.Errorf("%w: %s holds more texels than a buffer can index", ErrInvalidExtents, extents)
	}
	r := &Resampler{
		field:     field,
		extents:   extents,
		srcDim:    nanovdb.Coord{X: extents[0], Y: extents[1], Z: extents[2]},
		voxelSize: nanovdb.Vec3d{X: 1, Y: 1, Z: 1},
		workers:   runtime.GOMAXPROCS(0),
	}
	if b, ok := field.(Bounded); ok {
		if bbox := b.Bounds(); !bbox.IsEmpty() {
			r.srcMin = bbox.Min
			r.srcDim = bbox.Dim()
		}
	}
	if vs, ok := field.(VoxelSized); ok {
		r.voxelSize = vs.VoxelSize()
	}
	r.Reset()
	return r, nil
}

// Reset restores the scale factor to 1, unsets the normalization range, restores
// nearest sampling and invalidates the summary.  The field and extents are kept.
func (r *Resampler) Reset() {
	r.scaleFactor = 1
	r.fixedMin = 0
	r.fixedMax = 0
	r.filter = FilterNearest
	r.summary = Summary{}
}

// SetScaleFactor sets the multiplier applied to every sample before normalization.
// Negative and zero factors are allowed.
func (r *Resampler) SetScaleFactor(s float32) {
	r.scaleFactor = s
}

// SetNormalizationRange fixes the range that maps to [0,1].  If min >= max, every
// fill auto-normalizes using the minimum and maximum scaled sample it observes.
func (r *Resampler) SetNormalizationRange(min, max float32) {
	r.fixedMin = min
	r.fixedMax = max
}

// SetFilter selects the sampling filter for subsequent fills.
func (r *Resampler) SetFilter(f Filter) {
	r.filter = f
}

// SetWorkers bounds the goroutines used by a fill.  Values < 1 mean GOMAXPROCS.
func (r *Resampler) SetWorkers(n int) {
	if n < 1 {
		n = runtime.GOMAXPROCS(0)
	}
	r.workers = n
}

func (r *Resampler) Extents() dvid.Point3d {
	return r.extents
}

func (r *Resampler) ScaleFactor() float32 {
	return r.scaleFactor
}

// NormalizationRange returns the fixed range and whether it is in effect.
func (r *Resampler) NormalizationRange() (min, max float32, fixed bool) {
	return r.fixedMin, r.fixedMax, r.fixedMin < r.fixedMax
}

func (r *Resampler) Filter() Filter {
	return r.filter
}

// NumVoxels returns the number of texels a fill writes.
func (r *Resampler) NumVoxels() int {
	return int(r.extents.Prod())
}

// Summary returns the summary of the last successful fill.  The returned value is
// owned by the resampler and is replaced by the next FillTextureBuffer or Reset.
func (r *Resampler) Summary() *Summary {
	return &r.summary
}

// span is the half-open range of source voxels covered by one target cell on an axis.
type span struct {
	lo, hi int32
}

// ceilDiv returns ceil(a/b) for b > 0.
func ceilDiv(a, b int64) int64 {
	if a >= 0 {
		return (a + b - 1) / b
	}
	return -((-a) / b)
}

// axisSpans maps each of the target cells on an axis to the source voxels it reads.
func axisSpans(srcMin, srcSize, dstSize int32, filter Filter) []span {
	S, T := int64(srcSize), int64(dstSize)
	spans := make([]span, dstSize)
	for i := int64(0); i < T; i++ {
		nearest := (2*i + 1) * S / (2 * T)
		lo, hi := nearest, nearest+1
		if filter == FilterBox {
			blo := ceilDiv(2*i*S-T, 2*T)
			bhi := ceilDiv(2*(i+1)*S-T, 2*T)
			if blo < 0 {
				blo = 0
			}
			if bhi > S {
				bhi = S
			}
			if bhi > blo {
				lo, hi = blo, bhi
			}
		}
		spans[i] = span{int32(lo) + srcMin, int32(hi) + srcMin}
	}
	return spans
}

// sliceStats accumulates statistics for one z slice so that the merge order, and
// therefore the floating point result, does not depend on scheduling.
type sliceStats struct {
	min, max float32
	sum      float64
	occupied int64
}

func newSliceStats() sliceStats {
	return sliceStats{min: math32.Inf(1), max: math32.Inf(-1)}
}

func (s *sliceStats) add(v float32) {
	s.min = math32.Min(s.min, v)
	s.max = math32.Max(s.max, v)
	s.sum += float64(v)
}

// forEachSlice runs fn for every z slice, using at most r.workers goroutines.
func (r *Resampler) forEachSlice(fn func(z int32)) {
	var g errgroup.Group
	g.SetLimit(r.workers)
	for z := int32(0); z < r.extents[2]; z++ {
		z := z
		g.Go(func() error {
			fn(z)
			return nil
		})
	}
	g.Wait()
}

// FillTextureBuffer samples the field into buf and publishes a new Summary.
// buf must hold at least width*height*depth texels; otherwise ErrBufferTooSmall is
// returned and neither buf nor the summary is modified.
func (r *Resampler) FillTextureBuffer(buf TextureData) error {
	if buf == nil {
		return ErrNilBuffer
	}
	numVoxels := r.NumVoxels()
	if buf.Len() < numVoxels {
		return fmt.Errorf("%w: %s texture holds %d texels, extents %s need %d",
			ErrBufferTooSmall, buf.Format(), buf.Len(), r.extents, numVoxels)
	}
	timedLog := dvid.NewTimeLog()

	if cap(r.scratch) < numVoxels {
		r.scratch = make([]float32, numVoxels)
	}
	samples := r.scratch[:numVoxels]

	xs := axisSpans(r.srcMin.X, r.srcDim.X, r.extents[0], r.filter)
	ys := axisSpans(r.srcMin.Y, r.srcDim.Y, r.extents[1], r.filter)
	zs := axisSpans(r.srcMin.Z, r.srcDim.Z, r.extents[2], r.filter)

	// Pass 1: sample and scale.  Non-finite samples become 0.
	raw := make([]sliceStats, r.extents[2])
	r.forEachSlice(func(z int32) {
		st := newSliceStats()
		for y := int32(0); y < r.extents[1]; y++ {
			i := r.extents.Index(0, y, z)
			for x := int32(0); x < r.extents[0]; x++ {
				v := r.sample(xs[x], ys[y], zs[z]) * r.scaleFactor
				if math32.IsNaN(v) || math32.IsInf(v, 0) {
					v = 0
				}
				samples[i] = v
				st.add(v)
				i++
			}
		}
		raw[z] = st
	})
	rawStats := newSliceStats()
	for _, st := range raw {
		rawStats.min = math32.Min(rawStats.min, st.min)
		rawStats.max = math32.Max(rawStats.max, st.max)
		rawStats.sum += st.sum
	}

	// Pass 2: normalize and encode.
	lo, hi := r.fixedMin, r.fixedMax
	if lo >= hi {
		lo, hi = rawStats.min, rawStats.max
	}
	norm := normalization{lo: lo, span: hi - lo}
	out := make([]sliceStats, r.extents[2])
	sliceSize := int(r.extents[0]) * int(r.extents[1])
	r.forEachSlice(func(z int32) {
		st := newSliceStats()
		begin := int(z) * sliceSize
		for i := begin; i < begin+sliceSize; i++ {
			v := norm.apply(samples[i])
			buf.Set(i, v)
			st.add(v)
			if v > OccupancyThreshold {
				st.occupied++
			}
		}
		out[z] = st
	})

	summary := Summary{
		Valid:       true,
		Width:       r.extents[0],
		Height:      r.extents[1],
		Depth:       r.extents[2],
		Format:      buf.Format(),
		Min:         rawStats.min,
		Max:         rawStats.max,
		Mean:        rawStats.sum / float64(numVoxels),
		OutputMin:   math32.Inf(1),
		OutputMax:   math32.Inf(-1),
		TotalVoxels: int64(numVoxels),
		WorldSize: [3]float64{
			float64(r.srcDim.X) * r.voxelSize.X,
			float64(r.srcDim.Y) * r.voxelSize.Y,
			float64(r.srcDim.Z) * r.voxelSize.Z,
		},
	}
	for _, st := range out {
		summary.OutputMin = math32.Min(summary.OutputMin, st.min)
		summary.OutputMax = math32.Max(summary.OutputMax, st.max)
		summary.OccupiedVoxels += st.occupied
	}
	summary.OccupancyRatio = float64(summary.OccupiedVoxels) / float64(numVoxels)
	r.summary = summary

	timedLog.Debugf("Filled %s texture %s (%s) from source %v with filter %s",
		buf.Format(), r.extents, humanize.Bytes(uint64(numVoxels*buf.Format().BytesPerTexel())),
		r.srcDim, r.filter)
	return nil
}

// sample reads the field over the given source spans, averaging when a span covers
// more than one voxel.
func (r *Resampler) sample(xs, ys, zs span) float32 {
	if xs.hi-xs.lo == 1 && ys.hi-ys.lo == 1 && zs.hi-zs.lo == 1 {
		return r.field.Value(nanovdb.Coord{X: xs.lo, Y: ys.lo, Z: zs.lo})
	}
	var sum float64
	for z := zs.lo; z < zs.hi; z++ {
		for y := ys.lo; y < ys.hi; y++ {
			for x := xs.lo; x < xs.hi; x++ {
				sum += float64(r.field.Value(nanovdb.Coord{X: x, Y: y, Z: z}))
			}
		}
	}
	count := int64(xs.hi-xs.lo) * int64(ys.hi-ys.lo) * int64(zs.hi-zs.lo)
	return float32(sum / float64(count))
}

// normalization maps scaled samples into [0,1].  A zero span happens only when
// auto-normalizing a flat volume; such samples pass through, clamped.
type normalization struct {
	lo, span float32
}

func (n normalization) apply(v float32) float32 {
	if n.span > 0 {
		v = (v - n.lo) / n.span
	}
	return clamp01(v)
}
