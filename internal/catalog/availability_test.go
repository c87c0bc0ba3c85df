package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/boxofficeapp/boxoffice-server/internal/domain"
)

func sized(n int64) *int64 { return &n }

func TestResolveQuotas_MinimumWins(t *testing.T) {
	quotas := []domain.Quota{
		{Size: sized(100), Consumed: 10},
		{Size: sized(20), Consumed: 15},
		{Size: sized(50)},
	}

	stock := ResolveQuotas(quotas)
	assert.False(t, stock.Unlimited)
	assert.Equal(t, int64(5), stock.Remaining)
}

func TestResolveQuotas_UnlimitedContributesNoConstraint(t *testing.T) {
	quotas := []domain.Quota{
		{Size: nil},
		{Size: sized(7), Consumed: 3},
	}

	stock := ResolveQuotas(quotas)
	assert.False(t, stock.Unlimited)
	assert.Equal(t, int64(4), stock.Remaining)
}

func TestResolveQuotas_AllUnlimited(t *testing.T) {
	stock := ResolveQuotas([]domain.Quota{{Size: nil}, {Size: nil}})
	assert.True(t, stock.Unlimited)
}

func TestResolveQuotas_OversoldClampsToZero(t *testing.T) {
	stock := ResolveQuotas([]domain.Quota{{Size: sized(5), Consumed: 9}})
	assert.Equal(t, int64(0), stock.Remaining)
}

func TestResolveQuotas_NoQuotas(t *testing.T) {
	// Entities without quotas never reach the resolver in normal
	// operation; a caller bug resolves to zero stock.
	stock := ResolveQuotas(nil)
	assert.False(t, stock.Unlimited)
	assert.Equal(t, int64(0), stock.Remaining)
}

func TestCap_AppliesOrderLimitAfterResolution(t *testing.T) {
	tests := []struct {
		name      string
		stock     Stock
		cap       int64
		wantState Status
		wantCount int64
	}{
		{"quota above cap", Stock{Remaining: 5}, 3, StatusInStock, 3},
		{"quota below cap", Stock{Remaining: 2}, 3, StatusInStock, 2},
		{"sold out", Stock{Remaining: 0}, 3, StatusSoldOut, 0},
		{"unlimited shows the cap", Stock{Unlimited: true}, 3, StatusInStock, 3},
		{"exact match", Stock{Remaining: 3}, 3, StatusInStock, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cap(tt.stock, tt.cap)
			assert.Equal(t, tt.wantState, got.Status)
			assert.Equal(t, tt.wantCount, got.DisplayCount)
		})
	}
}
