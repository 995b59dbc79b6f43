package internal

// Version is the current release, overridden at build time with
// -ldflags "-X codeberg.org/snonux/virtualtourist/internal.Version=..."
var Version = "0.1.0"
