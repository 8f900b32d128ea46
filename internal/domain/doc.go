// Package domain defines the wire types shared by every stage of the pipeline.
//
// Contains the one-time Config record, the per-frame game state, grid cells
// and the error taxonomy. No I/O - just data and contracts.
package domain
