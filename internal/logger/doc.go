// Package logger provides the leveled, component-prefixed logger shared by
// the pipeline packages.
package logger
