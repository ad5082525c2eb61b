/*
Package importer turns sparse grids into renderable dense textures using settings
from a TOML configuration.
*/
package importer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/janelia-flyem/vdbtex/dvid"
	"github.com/janelia-flyem/vdbtex/volume"
)

// ErrUnboundedField is returned when loading a field that cannot report
// non-empty bounds, since its texture extents cannot be derived.
var ErrUnboundedField = errors.New("field has no bounds")

// memoryUser is implemented by fields that can estimate their footprint.
type memoryUser interface {
	MemoryUsage() int
}

// Context loads fields into Volumes with a shared configuration.  It is safe for
// concurrent use.
type Context struct {
	mu  sync.RWMutex
	cfg VolumeConfig
}

// NewContext returns a Context using cfg, or the defaults if cfg is nil.
func NewContext(cfg *Config) (*Context, error) {
	ctx := &Context{}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := ctx.SetConfig(cfg.Volume); err != nil {
		return nil, err
	}
	return ctx, nil
}

// SetConfig replaces the settings used by subsequent loads.
func (ctx *Context) SetConfig(cfg VolumeConfig) error {
	cfg.SetDefaults()
	if _, _, err := cfg.Validate(); err != nil {
		return err
	}
	ctx.mu.Lock()
	ctx.cfg = cfg
	ctx.mu.Unlock()
	return nil
}

// Config returns a copy of the current settings.
func (ctx *Context) Config() VolumeConfig {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.cfg
}

// FitExtents returns texture extents for a source of the given dimensions whose
// longest axis is at most maxSize, preserving aspect ratio.  Every axis is >= 1.
func FitExtents(dims dvid.Point3d, maxSize int32) dvid.Point3d {
	longest := dims.MaxDim()
	if longest <= maxSize {
		return dims
	}
	var fit dvid.Point3d
	for dim := 0; dim < 3; dim++ {
		n := (int64(dims[dim])*int64(maxSize) + int64(longest)/2) / int64(longest)
		if n < 1 {
			n = 1
		}
		fit[dim] = int32(n)
	}
	return fit
}

// Load binds a bounded field to a new Volume.  The field is borrowed and must
// outlive the Volume.
func (ctx *Context) Load(field volume.Field) (*Volume, error) {
	if field == nil {
		return nil, volume.ErrNilField
	}
	b, ok := field.(volume.Bounded)
	if !ok || b.Bounds().IsEmpty() {
		return nil, ErrUnboundedField
	}
	cfg := ctx.Config()
	format, filter, err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	dim := b.Bounds().Dim()
	source := dvid.Point3d{dim.X, dim.Y, dim.Z}
	extents := FitExtents(source, cfg.TextureMaxSize)

	r, err := volume.NewResampler(field, extents)
	if err != nil {
		return nil, fmt.Errorf("cannot load field of size %s: %w", source, err)
	}
	r.SetScaleFactor(cfg.ScaleFactor)
	r.SetNormalizationRange(cfg.NormalizeMin, cfg.NormalizeMax)
	r.SetFilter(filter)
	r.SetWorkers(cfg.Workers)

	texBytes := uint64(r.NumVoxels() * format.BytesPerTexel())
	if m, ok := field.(memoryUser); ok {
		dvid.Infof("Loaded grid %s (%s) into %s %s texture (%s)\n", source,
			humanize.Bytes(uint64(m.MemoryUsage())), extents, format, humanize.Bytes(texBytes))
	} else {
		dvid.Infof("Loaded field %s into %s %s texture (%s)\n", source, extents, format, humanize.Bytes(texBytes))
	}
	return &Volume{resampler: r, format: format}, nil
}

// Volume is a loaded field ready to be filled into textures.
type Volume struct {
	resampler *volume.Resampler
	format    volume.Format
}

// Resampler gives access to the runtime controls of the volume.
func (v *Volume) Resampler() *volume.Resampler {
	return v.resampler
}

func (v *Volume) Format() volume.Format {
	return v.format
}

// Fill allocates a texture in the configured format and fills it.
func (v *Volume) Fill() (volume.TextureData, *volume.Summary, error) {
	tex, err := volume.NewTexture(v.format, v.resampler.NumVoxels())
	if err != nil {
		return nil, nil, err
	}
	if err := v.resampler.FillTextureBuffer(tex); err != nil {
		return nil, nil, err
	}
	return tex, v.resampler.Summary(), nil
}
