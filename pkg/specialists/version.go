package specialists

// Version information for the specialists module.
const (
	// Version is the current version of the specialists module.
	Version = "0.3.0"
)
