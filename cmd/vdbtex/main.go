// Resample a synthetic fog volume into a dense texture and report its statistics.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/janelia-flyem/vdbtex/datatype/common/downres"
	"github.com/janelia-flyem/vdbtex/datatype/common/nanovdb"
	"github.com/janelia-flyem/vdbtex/dvid"
	"github.com/janelia-flyem/vdbtex/importer"
	"github.com/janelia-flyem/vdbtex/volume"
)

var (
	showHelp   = flag.Bool("help", false, "")
	configFile = flag.String("config", "", "")
	radius     = flag.Int("radius", 40, "")
	outFile    = flag.String("out", "", "")
	compress   = flag.String("compress", "zstd", "")
	debug      = flag.Bool("debug", false, "")
)

const helpMessage = `
vdbtex builds a fog sphere as a sparse grid, resamples it into a dense texture
and prints the texture summary, occupancy and brick statistics.

Usage: vdbtex [options]

      -config     =string   TOML configuration with [volume] and [logging] tables
      -radius     =number   Sphere radius in voxels (default 40)
      -out        =string   Write the serialized texture to this file
      -compress   =string   Compression of -out: none, snappy or zstd (default zstd)
      -debug      (flag)    Log at debug level
  -h, -help       (flag)    Show help message
`

var usage = func() {
	fmt.Print(helpMessage)
}

func fogSphere(r int32) *nanovdb.FloatGrid {
	builder := nanovdb.NewFloatGridBuilder("density")
	r2 := float32(r * r)
	for z := -r; z <= r; z++ {
		for y := -r; y <= r; y++ {
			for x := -r; x <= r; x++ {
				d2 := float32(x*x + y*y + z*z)
				if d2 <= r2 {
					builder.AddVoxel(x, y, z, 1-d2/r2)
				}
			}
		}
	}
	return builder.Build()
}

func parseCompression(name string) (dvid.Compression, error) {
	switch name {
	case "none":
		return dvid.Uncompressed, nil
	case "snappy":
		return dvid.Snappy, nil
	case "zstd":
		return dvid.Zstd, nil
	}
	return dvid.Uncompressed, fmt.Errorf("unknown compression %q", name)
}

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = usage
	flag.Parse()

	if *showHelp || flag.NArg() != 0 || *radius < 1 {
		flag.Usage()
		os.Exit(0)
	}
	if *debug {
		dvid.SetLogMode(dvid.DebugMode)
	}

	cfg := importer.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = importer.LoadConfig(*configFile); err != nil {
			fmt.Printf("error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Logging.SetLogger()
	err := run(cfg)
	dvid.Shutdown()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(cfg *importer.Config) error {
	ctx, err := importer.NewContext(cfg)
	if err != nil {
		return fmt.Errorf("bad configuration: %w", err)
	}
	grid := fogSphere(int32(*radius))
	fmt.Printf("Grid %q: %d active voxels in %d leaves, bounds %v to %v\n",
		grid.Name, grid.ActiveVoxelCount, len(grid.LeafNodes), grid.BBox.Min, grid.BBox.Max)

	vol, err := ctx.Load(grid)
	if err != nil {
		return fmt.Errorf("error loading grid: %w", err)
	}
	tex, summary, err := vol.Fill()
	if err != nil {
		return fmt.Errorf("error filling texture: %w", err)
	}
	fmt.Printf("Texture: %s\n", summary)

	extents := vol.Resampler().Extents()
	values := make([]float32, tex.Len())
	for i := range values {
		values[i] = tex.At(i)
	}
	stats, err := volume.Analyze(values, extents)
	if err != nil {
		return fmt.Errorf("error analyzing texture: %w", err)
	}
	preset := volume.SuggestQuality(stats, 60)
	fmt.Printf("Suggested quality: %+v\n", preset)

	occupancy, err := volume.BuildOccupancyGrid(values, extents, int32(preset.OccupancyGridDivisor), volume.OccupancyThreshold)
	if err != nil {
		return fmt.Errorf("error building occupancy grid: %w", err)
	}
	for level, g := range occupancy.MipChain() {
		fmt.Printf("Occupancy level %d: %s with %d occupied cells\n", level, g.Size, g.CountOccupied())
	}

	bricks, err := volume.BuildBrickMap(values, extents, volume.DefaultBrickSize, volume.OccupancyThreshold)
	if err != nil {
		return fmt.Errorf("error building brick map: %w", err)
	}
	fmt.Printf("Brick map: %d of %d bricks active, atlas %s\n", bricks.ActiveBricks(), bricks.GridSize.Prod(), bricks.AtlasSize)

	levels, err := downres.Pyramid(values, extents, 4)
	if err != nil {
		return fmt.Errorf("error computing scale levels: %w", err)
	}
	for _, level := range levels {
		fmt.Printf("Scale %d: %s\n", level.Scale, level.Extents)
	}

	if *outFile != "" {
		c, err := parseCompression(*compress)
		if err != nil {
			return err
		}
		data, err := dvid.SerializeData(tex.Bytes(), c, dvid.CRC32)
		if err != nil {
			return fmt.Errorf("error serializing texture: %w", err)
		}
		if err := os.WriteFile(*outFile, data, 0644); err != nil {
			return fmt.Errorf("error writing %s: %w", *outFile, err)
		}
		fmt.Printf("Wrote %d bytes to %s\n", len(data), *outFile)
	}
	return nil
}
