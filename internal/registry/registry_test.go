package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cryptoagg/orderbookd/internal/domain"
)

func TestRegistry_GetAbsentInitially(t *testing.T) {
	r := New()
	_, ok := r.Get(domain.BTCUSD)
	assert.False(t, ok)
}

func TestRegistry_PutThenGet(t *testing.T) {
	r := New()
	b := domain.Book{Bids: []domain.Order{{Price: 1, Amount: 1, Exchange: domain.Coinbase}}}
	r.Put(domain.BTCUSD, b)

	got, ok := r.Get(domain.BTCUSD)
	assert.True(t, ok)
	assert.Equal(t, b, got)
}

func TestRegistry_FlushClearsAll(t *testing.T) {
	r := New()
	r.Put(domain.BTCUSD, domain.Book{})
	r.Flush()

	_, ok := r.Get(domain.BTCUSD)
	assert.False(t, ok)
}

func TestRegistry_ConcurrentReadWrite_NeverPanics(t *testing.T) {
	r := New()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			r.Put(domain.BTCUSD, domain.Book{
				Bids: []domain.Order{{Price: float64(n), Amount: 1, Exchange: domain.Kraken}},
			})
		}(i)
		go func() {
			defer wg.Done()
			r.Get(domain.BTCUSD)
		}()
	}
	wg.Wait()

	_, ok := r.Get(domain.BTCUSD)
	assert.True(t, ok)
}
