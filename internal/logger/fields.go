package logger

import "log/slog"

// Standard field keys for structured logging. Use these consistently so
// helper operation logs can be aggregated and queried.
const (
	// Operation identity
	KeyOpID      = "op_id"     // unique ID generated per helper invocation
	KeyOperation = "operation" // mount, unmount
	KeyTraceID   = "trace_id"  // OpenTelemetry trace ID
	KeySpanID    = "span_id"   // OpenTelemetry span ID

	// Request inputs
	KeyStoragePath = "storage_path" // storage-relative path as given
	KeyNamespace   = "namespace"    // leading path segment
	KeyStem        = "stem"         // sandbox subdirectory name
	KeyGroup       = "group"        // claimed access group

	// Invoking user
	KeyUsername = "username"
	KeyUID      = "uid"
	KeyGID      = "gid"

	// Filesystem
	KeyPath        = "path"
	KeySource      = "source"       // bind source path
	KeyTarget      = "target"       // bind target path
	KeyStagingMode = "staging_mode" // twoStage, direct

	// Resolution
	KeyReplica     = "replica"
	KeySite        = "site"
	KeyStorageArea = "storage_area"

	// Outcome
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
)

// OpID returns a slog.Attr for the per-invocation operation ID
func OpID(id string) slog.Attr {
	return slog.String(KeyOpID, id)
}

// Operation returns a slog.Attr for the operation kind
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// StoragePath returns a slog.Attr for the storage-relative path
func StoragePath(p string) slog.Attr {
	return slog.String(KeyStoragePath, p)
}

// Namespace returns a slog.Attr for the path namespace
func Namespace(ns string) slog.Attr {
	return slog.String(KeyNamespace, ns)
}

// Stem returns a slog.Attr for the sandbox stem
func Stem(s string) slog.Attr {
	return slog.String(KeyStem, s)
}

// Group returns a slog.Attr for the claimed access group
func Group(g string) slog.Attr {
	return slog.String(KeyGroup, g)
}

// Username returns a slog.Attr for the invoking user
func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

// UID returns a slog.Attr for the invoking user ID
func UID(uid uint32) slog.Attr {
	return slog.Any(KeyUID, uid)
}

// GID returns a slog.Attr for the invoking group ID
func GID(gid uint32) slog.Attr {
	return slog.Any(KeyGID, gid)
}

// Path returns a slog.Attr for a filesystem path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Source returns a slog.Attr for a bind source path
func Source(p string) slog.Attr {
	return slog.String(KeySource, p)
}

// Target returns a slog.Attr for a bind target path
func Target(p string) slog.Attr {
	return slog.String(KeyTarget, p)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error, or the empty attr for nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
