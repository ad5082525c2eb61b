/*
Package vdbtex converts sparse scalar volumes into dense texture buffers that a
renderer can upload directly.

A sparse field, such as a nanovdb.FloatGrid built from active voxels, is bound to a
volume.Resampler with fixed texture extents.  Each fill samples the field over the
extents, applies a scale factor, normalizes into [0,1] using either a fixed range or
the observed range, and encodes the result in the texture's format.  A Summary of
the last fill reports the raw and normalized ranges and occupancy.

Packages

	volume        resampling, texture formats, statistics, occupancy grids, brick maps
	datatype/common/nanovdb   sparse float grid of 8³ leaves
	datatype/common/downres   block-average scale pyramids
	importer      TOML configuration and loading of fields into volumes
	sequence      playback of frame sequences with a compressed frame cache
	dvid          logging, points and serialization shared by the other packages

The vdbtex command in cmd/vdbtex exercises the whole pipeline on a synthetic fog
sphere:

	% vdbtex -config=config.toml -radius=64 -out=sphere.tex
*/
package vdbtex
