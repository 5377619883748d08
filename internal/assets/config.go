package assets

// Mode selects production or development bundling.
type Mode string

const (
	ModeProduction  Mode = "production"
	ModeDevelopment Mode = "development"
)

type Config struct {
	// Build mode, production minifies and only emits source maps when the
	// build config asks for them
	Mode Mode
	// Name of the esbuild metafile written into the output directory
	MetafileName string
	// Remove the output directory before building
	Clean bool
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		Mode:         ModeProduction,
		MetafileName: "meta.json",
		Clean:        true,
	}
}
