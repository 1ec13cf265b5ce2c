package attr

// Version constants for the serialized attribute schema and the tool.
const (
	// SchemaVersion is the canonical JSON schema version.
	SchemaVersion = "1"

	// ToolVersion is the lowering tool version.
	ToolVersion = "0.1.0"
)
