package resource

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bloops-games/biasbingo/internal/database/gamestate/model"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var ErrInvalidCatalog = fmt.Errorf("invalid catalog")

type Bias struct {
	ID          int    `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Example     string `yaml:"example" json:"example"`
}

// Catalog is the read-only game configuration: the grid and who may play.
type Catalog struct {
	Biases        []Bias   `yaml:"biases" json:"biases"`
	Organizations []string `yaml:"organizations" json:"organizations"`
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog file, an empty path selects the embedded one.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	return ParseCatalog(b)
}

func ParseCatalog(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	sort.Slice(c.Biases, func(i, j int) bool {
		return c.Biases[i].ID < c.Biases[j].ID
	})

	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Biases) != model.GridSize {
		return fmt.Errorf("%w: expected %d biases, got %d", ErrInvalidCatalog, model.GridSize, len(c.Biases))
	}

	var seen [model.GridSize]bool
	for _, b := range c.Biases {
		if b.ID < 0 || b.ID >= model.GridSize {
			return fmt.Errorf("%w: bias id %d out of range", ErrInvalidCatalog, b.ID)
		}
		if seen[b.ID] {
			return fmt.Errorf("%w: duplicate bias id %d", ErrInvalidCatalog, b.ID)
		}
		if strings.TrimSpace(b.Name) == "" {
			return fmt.Errorf("%w: bias %d has no name", ErrInvalidCatalog, b.ID)
		}
		seen[b.ID] = true
	}

	if len(c.Organizations) == 0 {
		return fmt.Errorf("%w: no organizations", ErrInvalidCatalog)
	}

	for _, org := range c.Organizations {
		if strings.TrimSpace(org) == "" {
			return fmt.Errorf("%w: empty organization name", ErrInvalidCatalog)
		}
	}

	return nil
}

func (c *Catalog) Bias(id int) (Bias, bool) {
	if id < 0 || id >= len(c.Biases) {
		return Bias{}, false
	}
	return c.Biases[id], true
}

func (c *Catalog) HasOrganization(name string) bool {
	for _, org := range c.Organizations {
		if org == name {
			return true
		}
	}
	return false
}
