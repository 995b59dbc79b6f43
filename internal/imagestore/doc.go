// Package imagestore persists downloaded photos as files in a single
// directory, keyed by filename.
package imagestore
