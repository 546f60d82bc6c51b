package payment

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayment_Transition(t *testing.T) {
	t.Run("pending to completed", func(t *testing.T) {
		p := NewPayment(1, "10293847", decimal.NewFromInt(50000), 500, nil)
		require.Equal(t, StatusPending, p.Status)

		err := p.Transition(StatusCompleted, "00")
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, p.Status)
		assert.Equal(t, "00", p.GatewayCode)
		require.NotNil(t, p.CompletedAt)
	})

	t.Run("pending to failed", func(t *testing.T) {
		p := NewPayment(1, "10293847", decimal.NewFromInt(50000), 500, nil)
		require.NoError(t, p.Transition(StatusFailed, "24"))
		assert.Equal(t, StatusFailed, p.Status)
		assert.Nil(t, p.CompletedAt)
	})

	t.Run("terminal payments reject further transitions", func(t *testing.T) {
		p := NewPayment(1, "10293847", decimal.NewFromInt(50000), 500, nil)
		require.NoError(t, p.Transition(StatusCompleted, "00"))

		err := p.Transition(StatusFailed, "24")
		assert.ErrorIs(t, err, ErrAlreadyReconciled{})

		var reconciled ErrAlreadyReconciled
		require.True(t, errors.As(err, &reconciled))
		assert.Equal(t, StatusCompleted, reconciled.Status)
	})

	t.Run("rejects non-terminal target", func(t *testing.T) {
		p := NewPayment(1, "10293847", decimal.NewFromInt(50000), 500, nil)
		assert.Error(t, p.Transition(StatusPending, ""))
	})
}

func TestCoinsForAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		coins  int64
	}{
		{"top tier", 2000000, 24000},
		{"above top tier", 3500000, 24000},
		{"second tier", 1000000, 11500},
		{"mid tier boundary", 500000, 5500},
		{"between tiers rounds down to lower tier", 450000, 2150},
		{"lowest tier", 50000, 500},
		{"below all tiers uses base rate", 20000, 200},
		{"base rate truncates", 20050, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.coins, CoinsForAmount(decimal.NewFromInt(tt.amount)))
		})
	}
}
