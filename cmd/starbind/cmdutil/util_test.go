package cmdutil

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starbind/starbind/internal/cli/output"
	"github.com/starbind/starbind/pkg/apiclient"
	"github.com/starbind/starbind/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{
			AuthnURL:            "https://authn.example.org/api/v1",
			DataManagementURL:   "https://dm.example.org/api/v1",
			SiteCapabilitiesURL: "https://sc.example.org/api/v1",
			Timeout:             10 * time.Second,
		},
	}
}

func TestAPIBaseURL(t *testing.T) {
	cfg := testConfig()

	url, err := apiBaseURL(cfg, apiclient.APIDataManagement)
	require.NoError(t, err)
	assert.Equal(t, "https://dm.example.org/api/v1", url)

	url, err = apiBaseURL(cfg, apiclient.APISiteCapabilities)
	require.NoError(t, err)
	assert.Equal(t, "https://sc.example.org/api/v1", url)

	_, err = apiBaseURL(cfg, "unknown-api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown API")
}

func TestPrintOutputJSON(t *testing.T) {
	orig := Flags.Output
	Flags.Output = "json"
	defer func() { Flags.Output = orig }()

	var buf bytes.Buffer
	err := PrintOutput(&buf, map[string]string{"key": "value"}, false, "", nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"key": "value"`)
}

func TestPrintOutputTableEmpty(t *testing.T) {
	orig := Flags.Output
	Flags.Output = "table"
	defer func() { Flags.Output = orig }()

	var buf bytes.Buffer
	err := PrintOutput(&buf, nil, true, "No active mounts.", nil)
	require.NoError(t, err)
	assert.Equal(t, "No active mounts.\n", buf.String())
}

func TestPrintOutputTable(t *testing.T) {
	orig := Flags.Output
	Flags.Output = "table"
	defer func() { Flags.Output = orig }()

	table := output.NewTableData("PATH", "TYPE")
	table.AddRow("/home/alice/projects/map.fits", "none")

	var buf bytes.Buffer
	err := PrintOutput(&buf, nil, false, "", table)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "map.fits")
}

func TestPrintOutputInvalidFormat(t *testing.T) {
	orig := Flags.Output
	Flags.Output = "xml"
	defer func() { Flags.Output = orig }()

	var buf bytes.Buffer
	err := PrintOutput(&buf, nil, false, "", nil)
	require.Error(t, err)
}
