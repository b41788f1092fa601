// Package resolver turns a (namespace, file name) pair into the storage
// path the mount helper operates on.
//
// The data management service returns replica URIs for the file; the
// storage path is the URI tail starting at the namespace segment. When
// replicas at different sites yield different paths, the site
// capabilities topology breaks the tie in favor of the replica on this
// host's local storage.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/starbind/starbind/internal/logger"
	"github.com/starbind/starbind/pkg/apiclient"
)

// ErrNotFound is returned when the service knows the namespace but has
// no locations for the file.
var ErrNotFound = errors.New("file not found in namespace")

// DataManagement is the subset of the data management API the resolver
// needs.
type DataManagement interface {
	ListNamespaces(ctx context.Context) ([]string, error)
	Locate(ctx context.Context, namespace, fileName string) ([]apiclient.DataLocation, error)
}

// SiteCapabilities is the subset of the site capabilities API the
// resolver needs.
type SiteCapabilities interface {
	ListNodes(ctx context.Context) ([]apiclient.Node, error)
}

// Resolver locates files through the data management and site
// capabilities services.
type Resolver struct {
	dm    DataManagement
	sc    SiteCapabilities
	local apiclient.NodeSite
	log   *slog.Logger
}

// New creates a Resolver. local names this host's node and site; leave
// it zero when the deployment has no local storage preference, in which
// case multi-site files cannot be disambiguated.
func New(dm DataManagement, sc SiteCapabilities, local apiclient.NodeSite, log *slog.Logger) *Resolver {
	if log == nil {
		log = logger.With()
	}
	return &Resolver{dm: dm, sc: sc, local: local, log: log}
}

// Result is a resolved storage path plus any warnings produced along
// the way (replica URIs that did not match the expected layout).
type Result struct {
	// StoragePath is relative to the storage root: "namespace/.../file".
	StoragePath string

	Warnings []string
}

// Resolve returns the storage path for fileName within namespace.
func (r *Resolver) Resolve(ctx context.Context, namespace, fileName string) (*Result, error) {
	namespaces, err := r.dm.ListNamespaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing namespaces: %w", err)
	}
	if !contains(namespaces, namespace) {
		return nil, fmt.Errorf("namespace %q not found, available namespaces: %s",
			namespace, strings.Join(namespaces, ", "))
	}

	locations, err := r.dm.Locate(ctx, namespace, fileName)
	if err != nil {
		return nil, fmt.Errorf("locating %s/%s: %w", namespace, fileName, err)
	}
	if len(locations) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, namespace, fileName)
	}

	candidates, warnings := matchReplicas(namespace, locations)
	for _, w := range warnings {
		r.log.Warn(w, slog.String(logger.KeyNamespace, namespace))
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no replica URI matched the expected /%s/ layout for %s/%s",
			namespace, namespace, fileName)
	}

	paths := uniquePaths(candidates)
	if len(paths) > 1 {
		path, err := r.resolveLocal(ctx, candidates)
		if err != nil {
			return nil, &AmbiguousError{
				Namespace: namespace,
				FileName:  fileName,
				Paths:     paths,
				Reason:    err,
			}
		}
		return &Result{StoragePath: path, Warnings: warnings}, nil
	}

	return &Result{StoragePath: paths[0], Warnings: warnings}, nil
}

// AmbiguousError reports replicas at multiple storage paths that the
// local site configuration could not narrow down to one. Callers with a
// terminal can recover by letting the operator pick from Paths.
type AmbiguousError struct {
	Namespace string
	FileName  string
	Paths     []string
	Reason    error
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("file %s/%s has replicas at multiple paths (%s): %v",
		e.Namespace, e.FileName, strings.Join(e.Paths, ", "), e.Reason)
}

func (e *AmbiguousError) Unwrap() error { return e.Reason }

// candidate pairs a matched storage path with the storage area its
// replica lives in.
type candidate struct {
	path          string
	storageAreaID string
}

// matchReplicas extracts the storage path from each replica URI. The
// path is everything from the namespace segment onward, with the
// leading slash trimmed so it composes with the storage root.
func matchReplicas(namespace string, locations []apiclient.DataLocation) ([]candidate, []string) {
	pattern := regexp.MustCompile("/" + regexp.QuoteMeta(namespace) + "/.*$")

	var candidates []candidate
	var warnings []string
	for _, location := range locations {
		for _, uri := range location.Replicas {
			match := pattern.FindString(uri)
			if match == "" {
				warnings = append(warnings, fmt.Sprintf(
					"replica URI %q does not contain a /%s/ segment, skipping", uri, namespace))
				continue
			}
			candidates = append(candidates, candidate{
				path:          strings.TrimPrefix(match, "/"),
				storageAreaID: location.AssociatedStorageAreaID,
			})
		}
	}
	return candidates, warnings
}

// resolveLocal picks the candidate whose storage area belongs to this
// host's node and site.
func (r *Resolver) resolveLocal(ctx context.Context, candidates []candidate) (string, error) {
	if r.local == (apiclient.NodeSite{}) {
		return "", errors.New("no local site configured to break the tie, set site.node and site.site")
	}

	nodes, err := r.sc.ListNodes(ctx)
	if err != nil {
		return "", fmt.Errorf("listing nodes: %w", err)
	}
	index := apiclient.StorageAreaIndex(nodes)

	var local []candidate
	for _, c := range candidates {
		if index[c.storageAreaID] == r.local {
			local = append(local, c)
		}
	}

	paths := uniquePaths(local)
	switch len(paths) {
	case 0:
		return "", fmt.Errorf("no replica on local site %s/%s", r.local.Node, r.local.Site)
	case 1:
		return paths[0], nil
	default:
		return "", fmt.Errorf("multiple replica paths on local site %s/%s: %s",
			r.local.Node, r.local.Site, strings.Join(paths, ", "))
	}
}

func uniquePaths(candidates []candidate) []string {
	seen := make(map[string]struct{})
	var paths []string
	for _, c := range candidates {
		if _, ok := seen[c.path]; !ok {
			seen[c.path] = struct{}{}
			paths = append(paths, c.path)
		}
	}
	sort.Strings(paths)
	return paths
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
