package book

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cryptoagg/orderbookd/internal/domain"
)

func TestMerge_SingleVenue_ReturnsSameOrdersSorted(t *testing.T) {
	sides := []domain.Sides{
		{
			Bids: []domain.Order{
				{Price: 98, Amount: 1, Exchange: domain.Coinbase},
				{Price: 99, Amount: 1, Exchange: domain.Coinbase},
			},
			Asks: []domain.Order{
				{Price: 102, Amount: 1, Exchange: domain.Coinbase},
				{Price: 101, Amount: 1, Exchange: domain.Coinbase},
			},
		},
	}

	got := Merge(sides)

	assert.Equal(t, []domain.Order{
		{Price: 99, Amount: 1, Exchange: domain.Coinbase},
		{Price: 98, Amount: 1, Exchange: domain.Coinbase},
	}, got.Bids)
	assert.Equal(t, []domain.Order{
		{Price: 101, Amount: 1, Exchange: domain.Coinbase},
		{Price: 102, Amount: 1, Exchange: domain.Coinbase},
	}, got.Asks)
}

func TestMerge_MultiVenue_SortsDescendingBidsAscendingAsks(t *testing.T) {
	sides := []domain.Sides{
		{Bids: []domain.Order{{Price: 99, Amount: 3, Exchange: domain.Gemini}}},
		{Bids: []domain.Order{{Price: 98, Amount: 2, Exchange: domain.Coinbase}}},
	}

	got := Merge(sides)

	assert.Equal(t, float64(99), got.Bids[0].Price)
	assert.Equal(t, float64(98), got.Bids[1].Price)
}

func TestMerge_StableTies_PreserveInputOrder(t *testing.T) {
	sides := []domain.Sides{
		{Asks: []domain.Order{{Price: 100, Amount: 1, Exchange: domain.Coinbase}}},
		{Asks: []domain.Order{{Price: 100, Amount: 2, Exchange: domain.Kraken}}},
	}

	got := Merge(sides)

	assert.Equal(t, domain.Coinbase, got.Asks[0].Exchange)
	assert.Equal(t, domain.Kraken, got.Asks[1].Exchange)
}

func TestMerge_SplitAndReMerge_Idempotent(t *testing.T) {
	sides := []domain.Sides{
		{
			Bids: []domain.Order{{Price: 99, Amount: 3, Exchange: domain.Gemini}},
			Asks: []domain.Order{{Price: 100, Amount: 1, Exchange: domain.Gemini}},
		},
		{
			Bids: []domain.Order{{Price: 98, Amount: 2, Exchange: domain.Coinbase}},
			Asks: []domain.Order{{Price: 101, Amount: 2, Exchange: domain.Coinbase}},
		},
	}

	merged := Merge(sides)
	reSplit := SplitByExchange(merged)
	reMerged := Merge(reSplit)

	assert.Equal(t, merged, reMerged)
}
