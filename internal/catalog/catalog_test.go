package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"bronlock/internal/domain"
	"bronlock/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	content := `
providers:
  - id: v1
    name: "Shine Beauty Salon"
    category: salon
    price: 45.0
    is_active: true
    staff:
      - id: staff-01
        name: "Anna"
  - id: v3
    name: "Golden Ring Weddings"
    category: wedding
    price: 1200.0
    is_active: true
    staff: []
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cat, err := Load(path)
	require.NoError(t, err)

	p, err := cat.GetProvider(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, "Shine Beauty Salon", p.Name)
	assert.True(t, p.HasStaff("staff-01"))
	assert.False(t, p.HasStaff("staff-99"))

	wedding, err := cat.GetProvider(context.Background(), "v3")
	require.NoError(t, err)
	assert.Empty(t, wedding.Staff)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestFromProviders(t *testing.T) {
	ctx := context.Background()

	t.Run("DuplicateID", func(t *testing.T) {
		_, err := FromProviders([]models.Provider{
			{ID: "v1", Name: "A", IsActive: true},
			{ID: "v1", Name: "B", IsActive: true},
		})
		assert.ErrorContains(t, err, "duplicate provider id")
	})

	t.Run("EmptyID", func(t *testing.T) {
		_, err := FromProviders([]models.Provider{{Name: "Nameless"}})
		assert.ErrorContains(t, err, "empty id")
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		cat, err := FromProviders([]models.Provider{{ID: "v1", IsActive: true}})
		require.NoError(t, err)

		_, err = cat.GetProvider(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrProviderNotFound)
	})

	t.Run("InactiveProviderHidden", func(t *testing.T) {
		cat, err := FromProviders([]models.Provider{{ID: "v1", IsActive: false}})
		require.NoError(t, err)

		_, err = cat.GetProvider(ctx, "v1")
		assert.ErrorIs(t, err, domain.ErrProviderNotFound)
	})
}

func TestSetProviders(t *testing.T) {
	ctx := context.Background()

	cat, err := FromProviders([]models.Provider{{ID: "v1", Name: "Old", IsActive: true}})
	require.NoError(t, err)

	require.NoError(t, cat.SetProviders([]models.Provider{{ID: "v2", Name: "New", IsActive: true}}))

	_, err = cat.GetProvider(ctx, "v1")
	assert.ErrorIs(t, err, domain.ErrProviderNotFound)

	p, err := cat.GetProvider(ctx, "v2")
	require.NoError(t, err)
	assert.Equal(t, "New", p.Name)

	// A bad replacement leaves the current catalog untouched.
	require.Error(t, cat.SetProviders([]models.Provider{{Name: "broken"}}))
	_, err = cat.GetProvider(ctx, "v2")
	assert.NoError(t, err)
}
