package apiclient

import "context"

// listResources performs a GET request to the given path and decodes the
// response body into a slice of type T.
func listResources[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var results []T
	if err := c.get(ctx, path, nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}
