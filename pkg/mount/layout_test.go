package mount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starbind/starbind/pkg/rsepath"
)

func TestNewLayoutTwoStage(t *testing.T) {
	dec, err := rsepath.Decompose("astro/observations/2024/map.fits")
	require.NoError(t, err)

	inv := Invocation{Username: "alice", HomeDir: "/home/alice"}
	opts := Options{
		StorageRoot: "/skadata",
		StagingMode: StagingTwoStage,
		BindsDir:    ".binds",
		ProjectsDir: "projects",
	}

	layout := NewLayout(inv, dec, opts)

	assert.Equal(t, "/skadata/astro/observations/2024", layout.SourceDir)
	assert.Equal(t, "/home/alice/.binds", layout.BindsRoot)
	assert.Equal(t, "/home/alice/.binds/map", layout.StagingDir)
	assert.Equal(t, "/home/alice/.binds/map/map.fits", layout.SourceFile)
	assert.Equal(t, "/home/alice/projects", layout.ProjectsDir)
	assert.Equal(t, "/home/alice/projects/map.fits", layout.ProjectPath)
	assert.Equal(t, []string{layout.StagingDir, layout.ProjectPath}, layout.MountTargets())
}

func TestNewLayoutDirect(t *testing.T) {
	dec, err := rsepath.Decompose("astro/observations/map.fits")
	require.NoError(t, err)

	inv := Invocation{Username: "alice", HomeDir: "/home/alice"}
	opts := Options{
		StorageRoot: "/skadata",
		StagingMode: StagingDirect,
		BindsDir:    ".binds",
		ProjectsDir: "projects",
	}

	layout := NewLayout(inv, dec, opts)

	assert.Equal(t, "/skadata/astro/observations", layout.SourceDir)
	assert.Empty(t, layout.StagingDir)
	assert.Empty(t, layout.SourceFile)
	assert.Equal(t, "/home/alice/projects/map", layout.ProjectPath)
	assert.Equal(t, []string{layout.ProjectPath}, layout.MountTargets())
}

func TestStagingModeValid(t *testing.T) {
	assert.True(t, StagingTwoStage.Valid())
	assert.True(t, StagingDirect.Valid())
	assert.False(t, StagingMode("overlay").Valid())
	assert.False(t, StagingMode("").Valid())
}
