// Package geo converts pin coordinates into the bounding-box filter used by
// the photo search.
package geo
