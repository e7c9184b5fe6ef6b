package loader

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/napolitain/village-sim/internal/models"
)

//go:embed data/buildings.yaml
var defaultCatalogYAML []byte

//go:embed data/catalog.schema.json
var catalogSchemaJSON string

var catalogSchema = jsonschema.MustCompileString("catalog.schema.json", catalogSchemaJSON)

// catalogFile represents the YAML structure of a catalog document
type catalogFile struct {
	Buildings []models.BuildingDefinition `yaml:"buildings"`
}

// DefaultCatalog returns the embedded village catalog
func DefaultCatalog() (*models.Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

// LoadCatalog loads a catalog from a YAML file. An empty path returns the
// embedded catalog.
func LoadCatalog(path string) (*models.Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog validates a YAML catalog document against the catalog schema
// and builds the registry.
func ParseCatalog(data []byte) (*models.Catalog, error) {
	if err := validateCatalog(data); err != nil {
		return nil, err
	}

	var raw catalogFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	catalog, err := models.NewCatalog(raw.Buildings)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return catalog, nil
}

// validateCatalog re-encodes the YAML tree as JSON so the schema sees the
// same numbers and strings a JSON document would carry.
func validateCatalog(data []byte) error {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("failed to parse catalog: %w", err)
	}
	if tree == nil {
		return fmt.Errorf("invalid catalog: empty document")
	}

	encoded, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}
	var doc any
	if err := json.NewDecoder(bytes.NewReader(encoded)).Decode(&doc); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}
	if err := catalogSchema.Validate(doc); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}
	return nil
}
