package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for spans. Keys follow OpenTelemetry naming where a
// semantic convention exists; domain-specific keys use the "mount." and
// "resolve." prefixes.
const (
	// Mount operation attributes
	AttrOperation   = "mount.operation"    // mount, unmount
	AttrStoragePath = "mount.storage_path" // storage-relative path
	AttrNamespace   = "mount.namespace"    // leading path segment
	AttrStem        = "mount.stem"         // sandbox subdirectory name
	AttrGroup       = "mount.group"        // claimed access group
	AttrStagingMode = "mount.staging_mode" // twoStage, direct
	AttrSource      = "mount.source"       // bind source path
	AttrTarget      = "mount.target"       // bind target path

	// Invoking user attributes
	AttrUsername = "user.name"
	AttrUID      = "user.uid"
	AttrGID      = "user.gid"

	// Resolution attributes
	AttrFileName    = "resolve.file_name"
	AttrReplica     = "resolve.replica"
	AttrStorageArea = "resolve.storage_area"
	AttrNode        = "resolve.node"
	AttrSite        = "resolve.site"

	// Remote API attributes
	AttrEndpoint = "api.endpoint"
)

// Span names.
// Format: <component>.<operation>
const (
	SpanHelperMount   = "helper.mount"
	SpanHelperUnmount = "helper.unmount"

	SpanBindfs = "bind.bindfs"
	SpanBind   = "bind.bind"
	SpanUmount = "bind.umount"

	SpanResolve   = "resolve.locate"
	SpanAuthLogin = "auth.login"
	SpanExchange  = "auth.exchange"
)

// Operation returns an attribute for the operation kind
func Operation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// StoragePath returns an attribute for the storage-relative path
func StoragePath(path string) attribute.KeyValue {
	return attribute.String(AttrStoragePath, path)
}

// Namespace returns an attribute for the path namespace
func Namespace(ns string) attribute.KeyValue {
	return attribute.String(AttrNamespace, ns)
}

// Stem returns an attribute for the sandbox stem
func Stem(stem string) attribute.KeyValue {
	return attribute.String(AttrStem, stem)
}

// Group returns an attribute for the claimed access group
func Group(group string) attribute.KeyValue {
	return attribute.String(AttrGroup, group)
}

// StagingMode returns an attribute for the staging mode
func StagingMode(mode string) attribute.KeyValue {
	return attribute.String(AttrStagingMode, mode)
}

// Source returns an attribute for a bind source path
func Source(path string) attribute.KeyValue {
	return attribute.String(AttrSource, path)
}

// Target returns an attribute for a bind target path
func Target(path string) attribute.KeyValue {
	return attribute.String(AttrTarget, path)
}

// Username returns an attribute for the invoking user
func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}

// UID returns an attribute for user ID
func UID(uid uint32) attribute.KeyValue {
	return attribute.Int64(AttrUID, int64(uid))
}

// GID returns an attribute for group ID
func GID(gid uint32) attribute.KeyValue {
	return attribute.Int64(AttrGID, int64(gid))
}

// FileName returns an attribute for the file being resolved
func FileName(name string) attribute.KeyValue {
	return attribute.String(AttrFileName, name)
}

// Replica returns an attribute for a replica URI
func Replica(uri string) attribute.KeyValue {
	return attribute.String(AttrReplica, uri)
}

// StorageArea returns an attribute for a storage area ID
func StorageArea(id string) attribute.KeyValue {
	return attribute.String(AttrStorageArea, id)
}

// Node returns an attribute for a federation node name
func Node(name string) attribute.KeyValue {
	return attribute.String(AttrNode, name)
}

// Site returns an attribute for a site name
func Site(name string) attribute.KeyValue {
	return attribute.String(AttrSite, name)
}

// Endpoint returns an attribute for a remote API endpoint
func Endpoint(url string) attribute.KeyValue {
	return attribute.String(AttrEndpoint, url)
}

// StartOperationSpan starts the root span for one helper operation
// (SpanHelperMount or SpanHelperUnmount).
func StartOperationSpan(ctx context.Context, name, storagePath string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		StoragePath(storagePath),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}

// StartBindSpan starts a span for one external mount-program invocation
// (SpanBindfs, SpanBind, or SpanUmount).
func StartBindSpan(ctx context.Context, name, source, target string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		Target(target),
	}
	if source != "" {
		allAttrs = append(allAttrs, Source(source))
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}

// StartResolveSpan starts a span for a file location lookup.
func StartResolveSpan(ctx context.Context, namespace, fileName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		Namespace(namespace),
		FileName(fileName),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanResolve, trace.WithAttributes(allAttrs...))
}
