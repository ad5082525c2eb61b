/*
Package volume converts a sparse scalar field into a dense, fixed-resolution texture
buffer suitable for upload by a renderer.

A Resampler is bound to a Field and a target extent.  Each call to FillTextureBuffer
samples the field at every target cell, multiplies by the scale factor, maps the
result into [0,1] with either a fixed normalization range or the range observed
during the fill, and encodes it into the caller's TextureData.  Texels are written
in row-major order with x varying fastest:

	index = x + y*width + z*width*height

A scaled sample that is NaN or infinite is written as 0, the background value of
a sparse field, and enters the statistics as 0.  One bad voxel therefore cannot
poison the observed range used for auto-normalization.

Statistics of the most recent successful fill are kept as a Summary.

The package also holds CPU helpers that operate on dense float buffers: Analyze
and NormalizeInPlace for statistics, BuildOccupancyGrid for empty-space skipping,
and BuildBrickMap for packing non-empty bricks into an atlas.
*/
package volume
