package apiclient

import (
	"context"
)

// StorageArea is one addressable storage area within a storage system.
type StorageArea struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	RelativePath string `json:"relative_path"`
	Tier         *int   `json:"tier"`
}

// Storage is one storage system at a site.
type Storage struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Areas []StorageArea `json:"areas"`
}

// Site is one physical site within a node.
type Site struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Country  string    `json:"country"`
	Storages []Storage `json:"storages"`
}

// StorageAreas collates all storage areas from all storages at the site.
func (s *Site) StorageAreas() []StorageArea {
	var areas []StorageArea
	for _, storage := range s.Storages {
		areas = append(areas, storage.Areas...)
	}
	return areas
}

// Node is one federation node, grouping sites.
type Node struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Sites       []Site `json:"sites"`
}

// NodeSite names the node and site a storage area belongs to.
type NodeSite struct {
	Node string
	Site string
}

// ListNodes returns the full node topology.
func (c *Client) ListNodes(ctx context.Context) ([]Node, error) {
	return listResources[Node](ctx, c, "/nodes")
}

// StorageAreaIndex maps every storage area ID in the topology to the
// node and site it belongs to. The resolver uses it to tell which
// replica of a file lives on local storage.
func StorageAreaIndex(nodes []Node) map[string]NodeSite {
	index := make(map[string]NodeSite)
	for _, node := range nodes {
		for _, site := range node.Sites {
			for _, area := range site.StorageAreas() {
				index[area.ID] = NodeSite{Node: node.Name, Site: site.Name}
			}
		}
	}
	return index
}
