// Package processor carries out the virtualtourist commands. It wires the
// SQLite record store, the image store, the Flickr client, the batch fetcher
// and the album service from the configuration and prints the results.
package processor
