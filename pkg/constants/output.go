package constants

// CLI Output Formatting
const (
	// SeparatorWidth is the character width of console separators/dividers.
	// Used for visual section breaks in push/pull summaries.
	SeparatorWidth = 60
)

// Configuration Redaction.
const (
	// RedactedValue is the placeholder for redacted credentials in logs/output.
	RedactedValue = "***REDACTED***"
)
