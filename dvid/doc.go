/*
Package dvid provides types, constants, and functions that have no other dependencies
and can be used by all packages within vdbtex.  This includes voxel coordinates and
extents, logging, and serialization with optional compression.  Since these elements
are used at multiple layers, we separate them here.
*/
package dvid
