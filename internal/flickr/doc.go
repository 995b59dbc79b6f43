// Package flickr implements the photo search side of the pipeline.
//
// Client issues GET requests against the Flickr REST endpoint, encodes query
// parameters and classifies failures as TransportError or ParseError. It runs
// every request through a circuit breaker and rate limits searches.
//
// Resolver reads the total page count of a query and picks a random page
// within a bounded window, and ParsePage turns a result page into
// RemotePhotoRefs.
package flickr
