package version

// Version is the release version, overridable at build time:
// go build -ldflags "-X github.com/standardbeagle/loctree/internal/version.Version=v1.2.3"
var Version = "0.3.0-dev"
