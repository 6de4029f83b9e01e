package version

// Current defines the application version.
// Update this single line to propagate version changes everywhere.
const Current = "v0.4.2"

// BuildMetadata can be injected via ldflags if needed, but for now we keep it simple.
const AppName = "relgate"
