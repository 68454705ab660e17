package cli

var (
	verbose bool

	// global connection flags
	backendURL string
	configPath string

	// all commands
	deviceSerial string

	// for screenshot command
	screenshotOutputPath string

	// for mirror command
	mirrorSurfaceWidth  float64
	mirrorSurfaceHeight float64
	mirrorInteractive   bool
)
