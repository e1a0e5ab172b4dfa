package observability

// Name is reported by /api/version and the CLI.
const Name = "tudp-network-logger"

// Build metadata, overwritten via -ldflags during release builds.
var (
	Version = "dev"
	Commit  = "none"
	Date    = ""
)

// BuildInfo is the serializable build metadata.
func BuildInfo() map[string]any {
	return map[string]any{"name": Name, "version": Version, "commit": Commit, "date": Date}
}
