// Package archive moves the current pins database and downloaded images out
// of the way so the next run starts fresh.
package archive
