package config

const (
	// MaxSlugLength is the maximum length for section slugs.
	// Matches the VARCHAR(64) slug column.
	MaxSlugLength = 64

	// MaxBackupNameLength is the maximum length for backup names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxBackupNameLength = 255

	// MaxSections caps how many sections a site may hold.
	MaxSections = 200

	// MaxTreeDepth is the deepest nesting a layout may reach. Editors never
	// produce more than a handful of levels; deeper trees indicate a runaway
	// client loop.
	MaxTreeDepth = 32

	// MaxLogFiles is how many server log files SetupLogFile keeps.
	MaxLogFiles = 10
)
