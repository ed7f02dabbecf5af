package config

// Version is the pactor binary version.
// Set at build time via: -ldflags "-X github.com/pactorhq/pactor/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
