// Package batch reads pin import files.
package batch
