package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/JonMunkholm/IncidentUpload/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"
)

//go:embed products.yaml
var defaultProducts []byte

// Source names reported by Load.
const (
	SourceDatabase = "database"
	SourceFile     = "file"
	SourceEmbedded = "embedded"
)

// productFile is the on-disk format. JSON files parse too since YAML is a
// superset of JSON.
//
//	products:
//	  AUDIT PRO: 101
//	  "Risk Monitor": "RM-7"
type productFile struct {
	Products map[string]any `yaml:"products"`
}

// Load builds the product map from the configured source: the database when
// a URL is set, otherwise the file, otherwise the embedded default catalog.
// It returns the map and the name of the source it came from.
func Load(ctx context.Context, cfg config.CatalogConfig) (*ProductMap, string, error) {
	switch {
	case cfg.DatabaseURL != "":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, "", fmt.Errorf("connect to catalog database: %w", err)
		}
		defer pool.Close()

		m, err := LoadPostgres(ctx, pool, cfg.Query)
		return m, SourceDatabase, err

	case cfg.File != "":
		m, err := LoadFile(cfg.File)
		return m, SourceFile, err

	default:
		m, err := Default()
		return m, SourceEmbedded, err
	}
}

// Default returns the catalog compiled into the binary.
func Default() (*ProductMap, error) {
	m, err := Parse(defaultProducts)
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	return m, nil
}

// LoadFile reads a YAML or JSON product map from path.
func LoadFile(path string) (*ProductMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read product map: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("product map %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a product map document. Ids must be scalars.
func Parse(data []byte) (*ProductMap, error) {
	var doc productFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse product map: %w", err)
	}
	if len(doc.Products) == 0 {
		return nil, fmt.Errorf("product map has no products")
	}

	entries := make(map[string]json.RawMessage, len(doc.Products))
	for name, id := range doc.Products {
		raw, err := scalarID(id)
		if err != nil {
			return nil, fmt.Errorf("product %q: %w", name, err)
		}
		entries[name] = raw
	}
	return New(entries)
}

// scalarID encodes a decoded id value as JSON, rejecting nulls and
// nested structures.
func scalarID(v any) (json.RawMessage, error) {
	switch v.(type) {
	case nil:
		return nil, fmt.Errorf("missing id")
	case map[string]any, []any:
		return nil, fmt.Errorf("id must be a string or number")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode id: %w", err)
	}
	return raw, nil
}
