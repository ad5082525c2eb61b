package nanovdb

import (
	"math"
	"testing"
)

func TestMask512(t *testing.T) {
	var m Mask512

	// Test setting and getting bits
	m.SetBit(0)
	if !m.GetBit(0) {
		t.Error("Bit 0 should be set")
	}

	m.SetBit(63)
	if !m.GetBit(63) {
		t.Error("Bit 63 should be set")
	}

	m.SetBit(64)
	if !m.GetBit(64) {
		t.Error("Bit 64 should be set")
	}

	m.SetBit(511)
	if !m.GetBit(511) {
		t.Error("Bit 511 should be set")
	}

	if m.CountOn() != 4 {
		t.Errorf("Expected count 4, got %d", m.CountOn())
	}

	// Test out of range
	m.SetBit(-1)  // Should be no-op
	m.SetBit(512) // Should be no-op
	if m.CountOn() != 4 {
		t.Errorf("Out of range SetBit should be no-op, count is %d", m.CountOn())
	}
}

func TestCoordFunctions(t *testing.T) {
	origin := leafOrigin(10, 20, 30)
	expected := Coord{8, 16, 24} // 10 & ~7 = 8, 20 & ~7 = 16, 30 & ~7 = 24
	if origin != expected {
		t.Errorf("leafOrigin(10,20,30) = %v, expected %v", origin, expected)
	}

	// Test with negative coordinates
	origin = leafOrigin(-1, -1, -1)
	expected = Coord{-8, -8, -8}
	if origin != expected {
		t.Errorf("leafOrigin(-1,-1,-1) = %v, expected %v", origin, expected)
	}

	// LowerTotalDim = 128, so origin should be multiples of 128
	origin = lowerOrigin(100, 200, 300)
	expected = Coord{0, 128, 256}
	if origin != expected {
		t.Errorf("lowerOrigin(100,200,300) = %v, expected %v", origin, expected)
	}

	// UpperTotalDim = 4096, so origin should be multiples of 4096
	origin = upperOrigin(5000, 5000, 5000)
	expected = Coord{4096, 4096, 4096}
	if origin != expected {
		t.Errorf("upperOrigin(5000,5000,5000) = %v, expected %v", origin, expected)
	}
}

func TestLeafOffset(t *testing.T) {
	// Formula: z*64 + y*8 + x
	if offset := coordToLeafOffset(0, 0, 0); offset != 0 {
		t.Errorf("coordToLeafOffset(0,0,0) = %d, expected 0", offset)
	}
	if offset := coordToLeafOffset(7, 7, 7); offset != 511 {
		t.Errorf("coordToLeafOffset(7,7,7) = %d, expected 511", offset)
	}
	if offset := coordToLeafOffset(0, 1, 0); offset != 8 {
		t.Errorf("coordToLeafOffset(0,1,0) = %d, expected 8", offset)
	}
	if offset := coordToLeafOffset(0, 0, 1); offset != 64 {
		t.Errorf("coordToLeafOffset(0,0,1) = %d, expected 64", offset)
	}
}

func TestBoundingBox(t *testing.T) {
	bbox := NewEmptyBBox()

	if !bbox.IsEmpty() {
		t.Error("New bounding box should be empty")
	}
	if bbox.Dim() != (Coord{}) {
		t.Errorf("Empty bounding box should have zero dims, got %v", bbox.Dim())
	}

	bbox.ExpandBBox(Coord{10, 20, 30})
	if bbox.IsEmpty() {
		t.Error("Bounding box should not be empty after expansion")
	}
	if bbox.Dim() != (Coord{1, 1, 1}) {
		t.Errorf("Single voxel box should have unit dims, got %v", bbox.Dim())
	}

	bbox.ExpandBBox(Coord{5, 25, 35})
	if bbox.Min.X != 5 || bbox.Max.Y != 25 || bbox.Max.Z != 35 {
		t.Errorf("Bounding box expansion failed: %v to %v", bbox.Min, bbox.Max)
	}
	if bbox.Dim() != (Coord{6, 6, 6}) {
		t.Errorf("Expected dims (6,6,6), got %v", bbox.Dim())
	}
	if !bbox.Contains(Coord{7, 22, 31}) || bbox.Contains(Coord{4, 22, 31}) {
		t.Error("Contains gave wrong answer")
	}
}

func TestFloatGridBuilderSimple(t *testing.T) {
	builder := NewFloatGridBuilder("density")
	builder.SetVoxelSize(Vec3d{0.5, 0.5, 0.5})

	if grid := builder.Build(); grid != nil {
		t.Fatal("Build() with no voxels should return nil")
	}

	builder.AddVoxel(0, 0, 0, 2.5)
	grid := builder.Build()
	if grid == nil {
		t.Fatal("Build() returned nil")
	}
	if grid.ActiveVoxelCount != 1 {
		t.Errorf("Expected 1 active voxel, got %d", grid.ActiveVoxelCount)
	}
	if len(grid.LeafNodes) != 1 || grid.LowerCount != 1 || grid.UpperCount != 1 {
		t.Errorf("Expected 1 node per level, got %d leaves, %d lower, %d upper",
			len(grid.LeafNodes), grid.LowerCount, grid.UpperCount)
	}
	if !grid.IsActive(0, 0, 0) {
		t.Error("Voxel (0,0,0) should be active")
	}
	if grid.IsActive(1, 0, 0) {
		t.Error("Voxel (1,0,0) should not be active")
	}
	if v := grid.Value(Coord{0, 0, 0}); v != 2.5 {
		t.Errorf("Expected value 2.5, got %f", v)
	}
	if grid.VoxelSize() != (Vec3d{0.5, 0.5, 0.5}) {
		t.Errorf("Bad voxel size %v", grid.VoxelSize())
	}
	if grid.MemoryUsage() <= 0 {
		t.Errorf("Expected positive memory usage, got %d", grid.MemoryUsage())
	}
}

func TestFloatGridBackground(t *testing.T) {
	builder := NewFloatGridBuilder("fog").SetBackground(-1)
	builder.AddVoxel(3, 3, 3, 4)
	builder.AddVoxel(200, 0, 0, 8)
	grid := builder.Build()

	// Inactive voxel inside an allocated leaf.
	if v := grid.Value(Coord{4, 3, 3}); v != -1 {
		t.Errorf("Expected background -1 inside leaf, got %f", v)
	}
	// Voxel in no leaf at all.
	if v := grid.Value(Coord{-50, 60, 900}); v != -1 {
		t.Errorf("Expected background -1 outside leaves, got %f", v)
	}
	if grid.Background() != -1 {
		t.Errorf("Bad background %f", grid.Background())
	}
	if grid.Leaf(3, 3, 3) == nil || grid.Leaf(100, 100, 100) != nil {
		t.Error("Leaf lookup gave wrong answer")
	}
}

func TestFloatGridMultipleVoxels(t *testing.T) {
	builder := NewFloatGridBuilder("test_grid")

	voxels := []Coord{
		{0, 0, 0},
		{1, 1, 1},
		{7, 7, 7}, // Same leaf as above
		{8, 0, 0}, // Different leaf (X crosses 8 boundary)
		{100, 100, 100},
		{-3, 0, 5000}, // Different upper node
	}
	for i, v := range voxels {
		builder.AddVoxel(v.X, v.Y, v.Z, float32(i+1))
	}
	builder.AddVoxel(1, 1, 1, 20) // overwrite keeps the count

	grid := builder.Build()
	if grid.ActiveVoxelCount != uint64(len(voxels)) {
		t.Errorf("Expected %d active voxels, got %d", len(voxels), grid.ActiveVoxelCount)
	}
	if len(grid.LeafNodes) != 4 {
		t.Errorf("Expected 4 leaf nodes, got %d", len(grid.LeafNodes))
	}
	if grid.LowerCount != 2 || grid.UpperCount != 2 {
		t.Errorf("Expected 2 lower and 2 upper nodes, got %d and %d", grid.LowerCount, grid.UpperCount)
	}
	for i := 1; i < len(grid.LeafNodes); i++ {
		if !coordLess(grid.LeafNodes[i-1].Origin, grid.LeafNodes[i].Origin) {
			t.Errorf("Leaf nodes not sorted at %d", i)
		}
	}
	if v := grid.Value(Coord{1, 1, 1}); v != 20 {
		t.Errorf("Expected overwritten value 20, got %f", v)
	}
	if grid.Minimum != 1 || grid.Maximum != 20 {
		t.Errorf("Expected grid range [1,20], got [%f,%f]", grid.Minimum, grid.Maximum)
	}

	expected := CoordBBox{Min: Coord{-3, 0, 0}, Max: Coord{100, 100, 5000}}
	if grid.Bounds() != expected {
		t.Errorf("Expected bounds %v, got %v", expected, grid.Bounds())
	}

	// Leaf at origin holds values 1, 20, 3.
	leaf := grid.Leaf(0, 0, 0)
	if leaf.Minimum != 1 || leaf.Maximum != 20 {
		t.Errorf("Bad leaf range [%f,%f]", leaf.Minimum, leaf.Maximum)
	}
	if math.Abs(leaf.Average-8) > 1e-9 {
		t.Errorf("Expected leaf average 8, got %f", leaf.Average)
	}
	stddev := math.Sqrt((49.0 + 144.0 + 25.0) / 3.0)
	if math.Abs(leaf.StdDevi-stddev) > 1e-9 {
		t.Errorf("Expected leaf stddev %f, got %f", stddev, leaf.StdDevi)
	}
}
