package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var ErrDuplicateLayer = errors.New("duplicate layer name")

// Layer satu layer index. urutan di Catalog.Layers = ordinal, dari paling umum (country) ke paling
// detail (address).
type Layer struct {
	Name string `yaml:"name" validate:"required,alphanum"`
	// Zoom zoom tile tempat feature layer ini di index.
	Zoom    int  `yaml:"zoom" validate:"gte=0,lte=16"`
	Address bool `yaml:"address"`

	IgnoreOrder  bool   `yaml:"ignore_order"`
	InheritScore bool   `yaml:"inherit_score"`
	GrantScore   *bool  `yaml:"grant_score"`
	AddressOrder string `yaml:"address_order" validate:"omitempty,oneof=ascending descending"`

	Replacer map[string]string `yaml:"token_replacer"`
	Stemming bool              `yaml:"stemming"`

	// mapping object OSM ke layer ini
	AdminLevels []int    `yaml:"admin_levels" validate:"dive,gte=2,lte=11"`
	PlaceTags   []string `yaml:"place_tags"`
	Postcode    bool     `yaml:"postcode"`
}

// Grants default true.
func (l Layer) Grants() bool {
	return l.GrantScore == nil || *l.GrantScore
}

type Catalog struct {
	Layers []Layer `yaml:"layers" validate:"required,min=1,dive"`
}

// Ordinal posisi layer name di catalog, -1 kalau tidak ada.
func (c *Catalog) Ordinal(name string) int {
	for i, l := range c.Layers {
		if l.Name == name {
			return i
		}
	}
	return -1
}

func (c *Catalog) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid layer catalog: %w", err)
	}
	seen := make(map[string]struct{}, len(c.Layers))
	for _, l := range c.Layers {
		if _, ok := seen[l.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateLayer, l.Name)
		}
		seen[l.Name] = struct{}{}
	}
	return nil
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode layer catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layer catalog: %w", err)
	}
	return ParseCatalog(data)
}
