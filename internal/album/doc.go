// Package album is the caller side of the photo pipeline. It drops pins,
// starts a batch per pin, records every stored photo against its pin at the
// photo's slot position and keeps a placeholder Collection up to date from
// the batch events.
package album
