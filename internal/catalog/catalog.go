package catalog

import (
	"context"
	"fmt"
	"os"
	"sync"

	"bronlock/internal/domain"
	"bronlock/internal/models"

	"gopkg.in/yaml.v2"
)

// Catalog is a read-only provider lookup backed by a YAML file.
// Consumed only to validate requests and populate appointment fields;
// a miss here is a validation error, never a lock error.
type Catalog struct {
	mu        sync.RWMutex
	providers map[string]*models.Provider
}

// Load reads the provider catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var catalogFile struct {
		Providers []models.Provider `yaml:"providers"`
	}
	if err := yaml.Unmarshal(data, &catalogFile); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	return FromProviders(catalogFile.Providers)
}

// FromProviders builds a catalog from an in-memory provider list.
func FromProviders(providers []models.Provider) (*Catalog, error) {
	byID := make(map[string]*models.Provider, len(providers))
	for i := range providers {
		p := providers[i]
		if p.ID == "" {
			return nil, fmt.Errorf("provider '%s' has empty id", p.Name)
		}
		if _, ok := byID[p.ID]; ok {
			return nil, fmt.Errorf("duplicate provider id: %s", p.ID)
		}
		byID[p.ID] = &p
	}
	return &Catalog{providers: byID}, nil
}

func (c *Catalog) GetProvider(ctx context.Context, id string) (*models.Provider, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.providers[id]
	if !ok || !p.IsActive {
		return nil, domain.ErrProviderNotFound
	}
	return p, nil
}

// SetProviders replaces the catalog contents, used on config reload.
func (c *Catalog) SetProviders(providers []models.Provider) error {
	replacement, err := FromProviders(providers)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.providers = replacement.providers
	c.mu.Unlock()
	return nil
}
