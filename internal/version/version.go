// Package version carries the tool identity stamped into manifests.
package version

// Tool is the executable name recorded in every manifest.
const Tool = "apictx"

// Version is the tool version. Overridable at build time with
// -ldflags "-X github.com/apictx-dev/apictx/internal/version.Version=...".
var Version = "0.4.0"
