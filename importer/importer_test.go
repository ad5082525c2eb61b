package importer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/janelia-flyem/vdbtex/datatype/common/nanovdb"
	"github.com/janelia-flyem/vdbtex/dvid"
	"github.com/janelia-flyem/vdbtex/volume"
)

const testConfig = `
[volume]
scale_factor = 2.5
texture_max_size = 64
format = "r8"
filter = "box"
normalize_min = 0.0
normalize_max = 10.0

[logging]
logfile = "logs/vdbtex.log"
max_log_size = 20
max_log_age = 7
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("could not write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, testConfig)
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	v := c.Volume
	if v.ScaleFactor != 2.5 || v.TextureMaxSize != 64 || v.Format != "r8" || v.Filter != "box" {
		t.Errorf("bad volume config: %+v", v)
	}
	if v.NormalizeMin != 0 || v.NormalizeMax != 10 {
		t.Errorf("bad normalization range: %f %f", v.NormalizeMin, v.NormalizeMax)
	}
	if v.Workers < 1 {
		t.Errorf("workers should default to GOMAXPROCS, got %d", v.Workers)
	}
	if c.Logging.MaxSize != 20 || c.Logging.MaxAge != 7 {
		t.Errorf("bad logging config: %+v", c.Logging)
	}
	if want := filepath.Join(filepath.Dir(path), "logs", "vdbtex.log"); c.Logging.Logfile != want {
		t.Errorf("expected logfile %s, got %s", want, c.Logging.Logfile)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	c, err := LoadConfig(writeConfig(t, "[volume]\nformat = \"half\"\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.Volume.ScaleFactor != 1 || c.Volume.TextureMaxSize != DefaultTextureMaxSize || c.Volume.Filter != DefaultFilter {
		t.Errorf("missing settings did not keep defaults: %+v", c.Volume)
	}
	if c.Logging.Logfile != "" {
		t.Errorf("expected no logfile, got %s", c.Logging.Logfile)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Error("expected error for empty filename")
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadConfig(writeConfig(t, "[volume]\nformat = \"bc7\"\n")); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := LoadConfig(writeConfig(t, "[volume]\ntexture_max_size = -4\n")); err == nil {
		t.Error("expected error for negative texture size")
	}
}

func TestFitExtents(t *testing.T) {
	tests := []struct {
		dims, want dvid.Point3d
		max        int32
	}{
		{dvid.Point3d{10, 20, 30}, dvid.Point3d{10, 20, 30}, 256},
		{dvid.Point3d{512, 256, 128}, dvid.Point3d{256, 128, 64}, 256},
		{dvid.Point3d{1000, 3, 100}, dvid.Point3d{100, 1, 10}, 100},
	}
	for _, tc := range tests {
		if got := FitExtents(tc.dims, tc.max); got != tc.want {
			t.Errorf("FitExtents(%s, %d) = %s, expected %s", tc.dims, tc.max, got, tc.want)
		}
	}
}

func testGrid() *nanovdb.FloatGrid {
	builder := nanovdb.NewFloatGridBuilder("density")
	for z := int32(0); z < 8; z++ {
		for y := int32(0); y < 4; y++ {
			for x := int32(0); x < 16; x++ {
				builder.AddVoxel(x, y, z, float32(x))
			}
		}
	}
	return builder.Build()
}

func TestContextLoad(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Volume.TextureMaxSize = 8
	cfg.Volume.Format = "r8"
	ctx, err := NewContext(cfg)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	vol, err := ctx.Load(testGrid())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := vol.Resampler().Extents(); got != (dvid.Point3d{8, 2, 4}) {
		t.Errorf("expected extents (8,2,4), got %s", got)
	}
	tex, summary, err := vol.Fill()
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if tex.Format() != volume.FormatR8 || tex.Len() != 64 {
		t.Errorf("bad texture %s with %d texels", tex.Format(), tex.Len())
	}
	if !summary.Valid || summary.Format != volume.FormatR8 {
		t.Errorf("bad summary %s", summary)
	}
	// Nearest sampling reads x = 1, 3, ..., 15 so the raw range is [1,15].
	if summary.Min != 1 || summary.Max != 15 {
		t.Errorf("expected raw range [1,15], got [%f,%f]", summary.Min, summary.Max)
	}
}

func TestContextLoadErrors(t *testing.T) {
	ctx, err := NewContext(nil)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	if _, err := ctx.Load(volume.ConstantField(1)); !errors.Is(err, ErrUnboundedField) {
		t.Errorf("expected ErrUnboundedField, got %v", err)
	}
	if _, err := ctx.Load(nil); !errors.Is(err, volume.ErrNilField) {
		t.Errorf("expected ErrNilField, got %v", err)
	}
	if err := ctx.SetConfig(VolumeConfig{Filter: "cubic"}); err == nil {
		t.Error("expected error for unknown filter")
	}
	if ctx.Config().Filter != DefaultFilter {
		t.Errorf("rejected config replaced settings: %+v", ctx.Config())
	}
}
