package apiclient

import (
	"context"
	"net/url"
)

// DataLocation describes where the data management service holds copies
// of one file. Replicas are full storage URIs; the storage area ID ties
// each location back to the site capabilities topology.
type DataLocation struct {
	Identifier              string   `json:"identifier"`
	AssociatedStorageAreaID string   `json:"associated_storage_area_id"`
	Replicas                []string `json:"replicas"`
}

// ListNamespaces returns all namespaces visible to the caller.
func (c *Client) ListNamespaces(ctx context.Context) ([]string, error) {
	return listResources[string](ctx, c, "/data/list")
}

// Locate returns the known locations of fileName within namespace. An
// empty slice means the service knows the namespace but not the file.
func (c *Client) Locate(ctx context.Context, namespace, fileName string) ([]DataLocation, error) {
	path := "/data/locate/" + url.PathEscape(namespace) + "/" + url.PathEscape(fileName)
	return listResources[DataLocation](ctx, c, path)
}
