// Package rsepath decomposes storage-relative paths into the parts the
// mount orchestrator works with. Decomposition is pure string work: no
// filesystem access, no environment access.
package rsepath

import (
	"fmt"
	"strings"

	"github.com/starbind/starbind/pkg/mount/errors"
)

const (
	// Separator splits a storage-relative path into segments. Storage paths
	// always use forward slashes regardless of the local OS.
	Separator = "/"

	// ExtensionSeparator splits a file name into stem and extension.
	ExtensionSeparator = "."

	// MaxSegmentLength is the longest allowed path segment, in bytes.
	MaxSegmentLength = 255

	// MaxPathLength is the longest allowed storage-relative path, in bytes.
	MaxPathLength = 4096
)

// Decomposed holds the parts of a validated storage-relative path.
//
// For "astro/observations/2024/map.fits":
//
//	FileName:  "map.fits"
//	ParentDir: "astro/observations/2024"
//	Namespace: "astro"
//	Stem:      "map"
type Decomposed struct {
	// FileName is the final path segment.
	FileName string

	// ParentDir is the path with the file name removed.
	ParentDir string

	// Namespace is the first path segment. It names the group that owns
	// the data and must match the claimed group before anything is mounted.
	Namespace string

	// Stem is the file name truncated at its first extension separator.
	// It keys the staging directory and the advisory operation lock.
	Stem string
}

// Decompose breaks a storage-relative path into its parts, validating it
// along the way. All failures are MalformedPath errors.
func Decompose(storagePath string) (Decomposed, error) {
	if storagePath == "" {
		return Decomposed{}, errors.NewMalformedPathError(storagePath, "path is empty")
	}
	if len(storagePath) > MaxPathLength {
		return Decomposed{}, errors.NewMalformedPathError(storagePath, fmt.Sprintf("path exceeds %d bytes", MaxPathLength))
	}
	if strings.HasPrefix(storagePath, Separator) {
		return Decomposed{}, errors.NewMalformedPathError(storagePath, "path must be relative to the storage root")
	}

	segments := strings.Split(storagePath, Separator)
	if len(segments) < 2 {
		return Decomposed{}, errors.NewMalformedPathError(storagePath, "path must contain at least a namespace and a file name")
	}
	for _, segment := range segments {
		if err := validateSegment(storagePath, segment); err != nil {
			return Decomposed{}, err
		}
	}

	fileName := segments[len(segments)-1]
	sep := strings.Index(fileName, ExtensionSeparator)
	if sep < 0 {
		return Decomposed{}, errors.NewMalformedPathError(storagePath, "file name has no extension separator")
	}
	if sep == 0 {
		return Decomposed{}, errors.NewMalformedPathError(storagePath, "file name has an empty stem")
	}

	return Decomposed{
		FileName:  fileName,
		ParentDir: strings.Join(segments[:len(segments)-1], Separator),
		Namespace: segments[0],
		Stem:      fileName[:sep],
	}, nil
}

func validateSegment(storagePath, segment string) error {
	switch {
	case segment == "":
		return errors.NewMalformedPathError(storagePath, "path contains an empty segment")
	case segment == "." || segment == "..":
		return errors.NewMalformedPathError(storagePath, "path contains a dot segment")
	case len(segment) > MaxSegmentLength:
		return errors.NewMalformedPathError(storagePath, fmt.Sprintf("path segment exceeds %d bytes", MaxSegmentLength))
	}
	return nil
}
