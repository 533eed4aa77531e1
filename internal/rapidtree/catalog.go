package rapidtree

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// CatalogNode holds the static data of a node, never persisted with progress.
type CatalogNode struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Level string `yaml:"level"`
	Icon  string `yaml:"icon"`
}

type CatalogCategory struct {
	Name  string        `yaml:"name"`
	Nodes []CatalogNode `yaml:"nodes"`
}

type Catalog struct {
	Categories []CatalogCategory `yaml:"categories"`
}

var (
	defaultCatalog     *Catalog
	defaultCatalogErr  error
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = ParseCatalog(defaultCatalogYAML)
	})
	return defaultCatalog, defaultCatalogErr
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &catalog, nil
}

func (c *Catalog) Validate() error {
	if len(c.Categories) == 0 {
		return errors.New("no categories")
	}

	var err error
	seenCategories := make(map[string]bool, len(c.Categories))
	for i, category := range c.Categories {
		if category.Name == "" {
			err = multierr.Append(err, fmt.Errorf("category %d: empty name", i))
			continue
		}
		if seenCategories[category.Name] {
			err = multierr.Append(err, fmt.Errorf("category %s: duplicate name", category.Name))
		}
		seenCategories[category.Name] = true

		if len(category.Nodes) == 0 {
			err = multierr.Append(err, fmt.Errorf("category %s: no nodes", category.Name))
		}
		seenNodes := make(map[string]bool, len(category.Nodes))
		for j, node := range category.Nodes {
			if node.ID == "" {
				err = multierr.Append(err, fmt.Errorf("category %s, node %d: empty id", category.Name, j))
				continue
			}
			if seenNodes[node.ID] {
				err = multierr.Append(err, fmt.Errorf("category %s, node %s: duplicate id", category.Name, node.ID))
			}
			seenNodes[node.ID] = true
		}
	}
	return err
}

func (c *Catalog) NodesCount() int {
	count := 0
	for _, category := range c.Categories {
		count += len(category.Nodes)
	}
	return count
}
