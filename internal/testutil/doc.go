// Package testutil provides test helpers shared across packages: temporary
// directories, file assertions, JPEG fixtures and a fake Flickr server.
package testutil
