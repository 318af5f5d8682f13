package export

import (
	"context"
	"path/filepath"
	"testing"

	"bronlock/internal/catalog"
	"bronlock/internal/config"
	"bronlock/internal/database"
	"bronlock/internal/lockmanager"
	"bronlock/internal/models"
	"bronlock/internal/payment"
	"bronlock/internal/repository"
	"bronlock/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportRange(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "export.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	locks := lockmanager.New(repository.NewMemoryLeaseStore(), &logger, 0)
	cat, err := catalog.FromProviders([]models.Provider{
		{ID: "v1", Name: "Shine Beauty Salon", Price: 45, IsActive: true,
			Staff: []models.Staff{{ID: "staff-01", Name: "Anna"}}},
	})
	require.NoError(t, err)

	bookings := service.NewBookingService(locks, db, payment.NewStaticVerifier(), cat, nil, config.BookingConfig{}, &logger)

	res, err := bookings.Reserve(ctx, &models.ReservationRequest{
		ProviderID:  "v1",
		ResourceIDs: []string{"staff-01"},
		Date:        "2024-06-01",
		StartTime:   "09:00",
		EndTime:     "10:00",
	})
	require.NoError(t, err)
	_, err = bookings.Confirm(ctx, &models.ConfirmRequest{
		LockToken:   res.LockToken,
		ProviderID:  "v1",
		ResourceIDs: []string{"staff-01"},
		Date:        "2024-06-01",
		StartTime:   "09:00",
		EndTime:     "10:00",
		Payment:     models.PaymentEvidence{TransactionID: "tx-1", Method: "card", Amount: 45, Success: true},
	})
	require.NoError(t, err)

	exporter := NewExcelExporter(bookings, filepath.Join(t.TempDir(), "exports"), &logger)
	filePath, err := exporter.ExportRange(ctx, "2024-06-01", "2024-06-30")
	require.NoError(t, err)
	assert.FileExists(t, filePath)

	f, err := excelize.OpenFile(filePath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Schedule")
	require.NoError(t, err)
	// Title, header, one appointment row.
	require.Len(t, rows, 3)
	assert.Equal(t, "v1", rows[2][1])
	assert.Equal(t, "staff-01", rows[2][2])
	assert.Equal(t, "2024-06-01", rows[2][3])
}
