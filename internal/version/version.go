package version

// Version is set via ldflags at build time:
// go build -ldflags "-X github.com/teamcutter/aptcache/internal/version.Version=v0.1.0"
var Version = "dev"

// UserAgent is sent with every index request.
func UserAgent() string {
	return "aptcache/" + Version
}
