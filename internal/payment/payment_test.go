package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bronlock/internal/config"
	"bronlock/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayClient_Verify(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	evidence := models.PaymentEvidence{
		TransactionID: "tx-42",
		Method:        "card",
		Amount:        45,
		Success:       true,
	}

	t.Run("Verified", func(t *testing.T) {
		gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/verify", r.URL.Path)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

			var got models.PaymentEvidence
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.Equal(t, "tx-42", got.TransactionID)

			_ = json.NewEncoder(w).Encode(models.PaymentVerification{
				Success:         true,
				Method:          got.Method,
				AmountConfirmed: got.Amount,
				Reference:       got.TransactionID,
			})
		}))
		defer gw.Close()

		client := NewGatewayClient(config.PaymentConfig{GatewayURL: gw.URL, APIKey: "secret", TimeoutMillis: 900}, &logger)
		v, err := client.Verify(ctx, evidence)
		require.NoError(t, err)
		assert.True(t, v.Success)
		assert.Equal(t, 45.0, v.AmountConfirmed)
		assert.Equal(t, "tx-42", v.Reference)
	})

	t.Run("GatewayRejects", func(t *testing.T) {
		gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))
		defer gw.Close()

		client := NewGatewayClient(config.PaymentConfig{GatewayURL: gw.URL, TimeoutMillis: 900}, &logger)
		v, err := client.Verify(ctx, evidence)
		require.NoError(t, err)
		assert.False(t, v.Success)
	})

	t.Run("GatewayDown", func(t *testing.T) {
		gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		gw.Close()

		client := NewGatewayClient(config.PaymentConfig{GatewayURL: gw.URL, TimeoutMillis: 200}, &logger)
		_, err := client.Verify(ctx, evidence)
		assert.Error(t, err)
	})
}

func TestStaticVerifier(t *testing.T) {
	v := NewStaticVerifier()

	ok, err := v.Verify(context.Background(), models.PaymentEvidence{Success: true, Method: "cash", Amount: 10})
	require.NoError(t, err)
	assert.True(t, ok.Success)
	assert.Equal(t, "cash", ok.Method)

	bad, err := v.Verify(context.Background(), models.PaymentEvidence{Success: false})
	require.NoError(t, err)
	assert.False(t, bad.Success)
}
