package models

// Provider is a catalog entry for a bookable service provider.
type Provider struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Category string   `json:"category" yaml:"category"`
	Staff    []Staff  `json:"staff" yaml:"staff"`
	Services []string `json:"services,omitempty" yaml:"services"`
	Price    float64  `json:"price" yaml:"price"`
	IsActive bool     `json:"is_active" yaml:"is_active"`
}

// Staff is a bookable unit under a provider. Providers without an
// individual staff concept (wedding teams and the like) get synthetic
// per-slot resource ids instead, see slotkey.
type Staff struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// HasStaff reports whether id belongs to the provider's staff list.
func (p *Provider) HasStaff(id string) bool {
	for _, s := range p.Staff {
		if s.ID == id {
			return true
		}
	}
	return false
}

// ProviderSnapshot is the read-only provider view returned with a
// reservation so the checkout UI does not need a second catalog fetch.
type ProviderSnapshot struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"`
	Price    float64 `json:"price"`
}
