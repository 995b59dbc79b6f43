// Package fetcher runs photo batches.
//
// A batch resolves the page count of a search, picks a random page within
// a bounded window, fetches that page and downloads every photo on it into
// the image store. Progress is streamed as events on a Session:
//
//	BatchStarted{N}
//	ItemSucceeded(i, key) | ItemFailed(i, err)   for i = 0..N-1, in order
//	BatchCompleted
//
// or a single BatchFailed when the page count or page fetch fails. Photo
// failures never fail the batch. The fetcher does not write records; the
// caller owns that, because only it knows which pin the batch belongs to.
package fetcher
