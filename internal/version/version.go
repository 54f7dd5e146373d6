// ABOUTME: Product and build identification
// ABOUTME: GitCommit and BuildDate are stamped at link time with -ldflags -X
package version

const (
	Version      = "0.3.0"
	Product      = "Sendspin Mixer"
	Manufacturer = "Sendspin"
)

var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// String returns a one-line description of the build
func String() string {
	return Product + " " + Version + " (" + GitCommit + ", built " + BuildDate + ")"
}
