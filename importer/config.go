package importer

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/janelia-flyem/vdbtex/dvid"
	"github.com/janelia-flyem/vdbtex/volume"
)

const (
	// DefaultTextureMaxSize is the default bound on the longest texture axis.
	DefaultTextureMaxSize = 256

	DefaultFormat = "rfloat"
	DefaultFilter = "nearest"
)

// VolumeConfig holds the [volume] settings used to turn a grid into a texture.
// A normalization range with min >= max, including the default 0/0, selects
// auto-normalization.
type VolumeConfig struct {
	ScaleFactor    float32 `toml:"scale_factor"`
	TextureMaxSize int32   `toml:"texture_max_size"`
	Format         string
	Filter         string
	NormalizeMin   float32 `toml:"normalize_min"`
	NormalizeMax   float32 `toml:"normalize_max"`
	Workers        int
}

// Config is the parsed TOML configuration.
type Config struct {
	Volume  VolumeConfig
	Logging dvid.LogConfig
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Volume: VolumeConfig{
			ScaleFactor:    1,
			TextureMaxSize: DefaultTextureMaxSize,
			Format:         DefaultFormat,
			Filter:         DefaultFilter,
			Workers:        runtime.GOMAXPROCS(0),
		},
	}
}

// SetDefaults fills settings that have no usable zero value.  A zero scale factor
// is a valid setting and is kept.
func (c *VolumeConfig) SetDefaults() {
	if c.TextureMaxSize == 0 {
		c.TextureMaxSize = DefaultTextureMaxSize
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if c.Filter == "" {
		c.Filter = DefaultFilter
	}
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
}

// Validate checks the settings and returns the parsed texture format and filter.
func (c *VolumeConfig) Validate() (volume.Format, volume.Filter, error) {
	if c.TextureMaxSize < 1 {
		return 0, 0, fmt.Errorf("texture_max_size must be positive, got %d", c.TextureMaxSize)
	}
	if c.Workers < 0 {
		return 0, 0, fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	format, err := volume.ParseFormat(c.Format)
	if err != nil {
		return 0, 0, err
	}
	filter, err := volume.ParseFilter(c.Filter)
	if err != nil {
		return 0, 0, err
	}
	return format, filter, nil
}

// LoadConfig decodes a TOML file over the defaults, so settings missing from the
// file keep their default values.  A relative log file path is taken relative to
// the configuration file.
func LoadConfig(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("no TOML configuration file provided")
	}
	c := DefaultConfig()
	if _, err := toml.DecodeFile(filename, c); err != nil {
		return nil, fmt.Errorf("could not decode TOML config: %v", err)
	}
	c.Volume.SetDefaults()
	if _, _, err := c.Volume.Validate(); err != nil {
		return nil, fmt.Errorf("bad [volume] settings in %s: %v", filename, err)
	}
	if c.Logging.Logfile != "" && !filepath.IsAbs(c.Logging.Logfile) {
		abs, err := filepath.Abs(filepath.Join(filepath.Dir(filename), c.Logging.Logfile))
		if err != nil {
			return nil, fmt.Errorf("error converting logfile setting to absolute path: %v", err)
		}
		c.Logging.Logfile = abs
	}
	dvid.Infof("volume config from %s: %+v\n", filename, c.Volume)
	return c, nil
}
