package errors

// Generic error code definitions used as sensible defaults across modules.
const (
	CodeSystemGeneric     = "SYS-000"
	CodeNetworkGeneric    = "NET-000"
	CodeConfigGeneric     = "CFG-000"
	CodeValidationGeneric = "VAL-000"
	CodeIntegrityGeneric  = "INT-000"
	CodeDependencyGeneric = "DEP-000"
	CodeDatabaseGeneric   = "DB-000"
)

// Specific codes the acquisition engine branches on.
const (
	// CodeNotFound marks a missing remote resource. It is the only code that
	// triggers a mirror to canonical fallback.
	CodeNotFound = "NET-404"
	// CodeMalformedSource marks a URL or coordinate that cannot be parsed.
	CodeMalformedSource = "VAL-400"
	// CodeIntegrity marks a post-download hash mismatch.
	CodeIntegrity = "INT-001"
	// CodeMirrorTampered marks a manifest hash mismatch served by a mirror.
	CodeMirrorTampered = "INT-002"
	// CodeRuntimeInstall marks a failed runtime precondition.
	CodeRuntimeInstall = "DEP-001"
	// CodeCancelled marks an acquisition stopped by its caller.
	CodeCancelled = "SYS-499"
)
