// Package lod maps viewer distance to a discrete level of detail.
//
// Levels run from LOD0 (finest) to LOD3 (coarsest). Selection is a pure
// function of the distance and four ascending thresholds:
//
//	d <= t[0]          -> LOD0
//	t[0] < d <= t[1]   -> LOD1
//	t[1] < d <= t[2]   -> LOD2
//	d > t[2]           -> LOD3 (clamped, never "no resource")
//
// Select has no hidden state and is safe for concurrent use.
package lod
