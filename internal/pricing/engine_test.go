package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptoagg/orderbookd/internal/domain"
)

func s1Book() domain.Book {
	return domain.Book{
		Asks: []domain.Order{
			{Price: 100.0, Amount: 1.0, Exchange: domain.Coinbase},
			{Price: 101.0, Amount: 2.0, Exchange: domain.Kraken},
			{Price: 102.0, Amount: 5.0, Exchange: domain.Gemini},
		},
	}
}

func TestVWAP_S1_Buy(t *testing.T) {
	price, err := VWAP(s1Book(), domain.Buy, 2.0)
	require.NoError(t, err)
	assert.InDelta(t, 100.5, price, 1e-9)
}

func TestVWAP_S2_Sell(t *testing.T) {
	b := domain.Book{
		Bids: []domain.Order{
			{Price: 99.0, Amount: 3.0, Exchange: domain.Gemini},
			{Price: 98.0, Amount: 2.0, Exchange: domain.Coinbase},
		},
	}
	price, err := VWAP(b, domain.Sell, 4.0)
	require.NoError(t, err)
	assert.InDelta(t, 98.75, price, 1e-9)
}

func TestVWAP_ZeroQuantity_Rejected(t *testing.T) {
	_, err := VWAP(s1Book(), domain.Buy, 0)
	assert.Error(t, err)
}

func TestVWAP_NegativeQuantity_Rejected(t *testing.T) {
	_, err := VWAP(s1Book(), domain.Buy, -1)
	assert.Error(t, err)
}

func TestVWAP_EmptySide_ReturnsZero(t *testing.T) {
	price, err := VWAP(domain.Book{}, domain.Sell, 10)
	require.NoError(t, err)
	assert.Equal(t, float64(0), price)
}

func TestVWAP_QuantityEqualsTotalDepth(t *testing.T) {
	b := s1Book()
	price, err := VWAP(b, domain.Buy, 8.0)
	require.NoError(t, err)

	totalCost := 1.0*100.0 + 2.0*101.0 + 5.0*102.0
	assert.InDelta(t, totalCost/8.0, price, 1e-9)
}

func TestVWAP_QuantityExceedsDepth_UsesAvailableDepthOnly(t *testing.T) {
	b := s1Book()
	price, err := VWAP(b, domain.Buy, 100.0)
	require.NoError(t, err)

	totalCost := 1.0*100.0 + 2.0*101.0 + 5.0*102.0
	assert.InDelta(t, totalCost/8.0, price, 1e-9)
}

func TestBestSplit_S3(t *testing.T) {
	orders, err := BestSplit(s1Book(), domain.Buy, 2.5)
	require.NoError(t, err)

	require.Len(t, orders, 2)
	assert.Equal(t, domain.Order{Price: 100.0, Amount: 1.0, Exchange: domain.Coinbase}, orders[0])
	assert.Equal(t, domain.Order{Price: 101.0, Amount: 1.5, Exchange: domain.Kraken}, orders[1])
}

func TestBestSplit_SumEqualsMinQuantityTotalDepth(t *testing.T) {
	b := s1Book()

	orders, err := BestSplit(b, domain.Buy, 3.0)
	require.NoError(t, err)
	var sum float64
	for _, o := range orders {
		sum += o.Amount
	}
	assert.InDelta(t, 3.0, sum, 1e-9)

	orders, err = BestSplit(b, domain.Buy, 1000.0)
	require.NoError(t, err)
	sum = 0
	for _, o := range orders {
		sum += o.Amount
	}
	assert.InDelta(t, 8.0, sum, 1e-9) // total depth across all three levels
}

func TestBestSplit_InsertionOrder(t *testing.T) {
	b := domain.Book{
		Asks: []domain.Order{
			{Price: 10, Amount: 1, Exchange: domain.Gemini},
			{Price: 11, Amount: 1, Exchange: domain.Coinbase},
			{Price: 12, Amount: 1, Exchange: domain.Gemini},
		},
	}
	orders, err := BestSplit(b, domain.Buy, 3)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, domain.Gemini, orders[0].Exchange)
	assert.Equal(t, domain.Coinbase, orders[1].Exchange)
	assert.InDelta(t, 2.0, orders[0].Amount, 1e-9)
}
