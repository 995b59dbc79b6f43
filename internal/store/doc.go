// Package store is the SQLite record store for pins and their photos.
package store
