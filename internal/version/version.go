package version

// Version is overridden at build time with
// -ldflags "-X github.com/bnema/anicord/internal/version.Version=...".
var Version = "dev"
