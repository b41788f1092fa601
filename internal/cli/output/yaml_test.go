package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintYAML(t *testing.T) {
	data := locatedFile{Namespace: "daac", StoragePath: "daac/obs/2024/map.fits"}

	var buf bytes.Buffer
	err := PrintYAML(&buf, data)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "namespace: daac")
	assert.Contains(t, out, "storage_path: daac/obs/2024/map.fits")
}

func TestPrintYAMLArray(t *testing.T) {
	data := []locatedFile{
		{Namespace: "daac", StoragePath: "daac/au/map.fits"},
		{Namespace: "daac", StoragePath: "daac/ch/map.fits"},
	}

	var buf bytes.Buffer
	err := PrintYAML(&buf, data)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "- namespace: daac")
	assert.Contains(t, out, "storage_path: daac/ch/map.fits")
}
