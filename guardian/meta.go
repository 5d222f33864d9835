package guardian

// These variables will be linked in at build time
// and are to do with the build/source
var (
	BuildDate string
	Commit    string
	Version   string
)

// This is the version of the record schema we verify.
// Just in case the format changes along the way.
var (
	RecordSchemaVersion = "1.0"
)
