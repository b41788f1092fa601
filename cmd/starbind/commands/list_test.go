package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnderAny(t *testing.T) {
	roots := []string{"/home/alice/projects", "/home/alice/.binds"}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"under projects", "/home/alice/projects/map.fits", true},
		{"under binds", "/home/alice/.binds/map/map.fits", true},
		{"the root itself", "/home/alice/projects", false},
		{"sibling with shared prefix", "/home/alice/projects-old/map.fits", false},
		{"unrelated", "/skadata/daac/obs/map.fits", false},
		{"other user", "/home/bob/projects/map.fits", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, underAny(tt.path, roots))
		})
	}
}
