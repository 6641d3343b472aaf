package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptoagg/orderbookd/internal/domain"
	"github.com/cryptoagg/orderbookd/internal/exchange"
	"github.com/cryptoagg/orderbookd/internal/registry"
)

type fakeAdapter struct {
	ex     domain.Exchange
	sides  domain.Sides
	err    error
	calls  int
}

func (f *fakeAdapter) Exchange() domain.Exchange { return f.ex }
func (f *fakeAdapter) FetchSides(ctx context.Context, sym string) (domain.Sides, error) {
	f.calls++
	return f.sides, f.err
}

var _ exchange.Adapter = (*fakeAdapter)(nil)

func TestPermutationZip_ProducesOneTaskPerPairPerPermutationSlot(t *testing.T) {
	tasks := permutationZip([]float64{1, 2, 3}, []domain.Pair{domain.BTCUSD, domain.ETHUSD})
	assert.NotEmpty(t, tasks)
	for _, tk := range tasks {
		assert.Contains(t, []float64{1, 2, 3}, tk.interval)
		assert.True(t, tk.pair == domain.BTCUSD || tk.pair == domain.ETHUSD)
	}
}

func TestRefreshOnce_AllSucceed_PublishesToRegistry(t *testing.T) {
	reg := registry.New()
	s := New(reg, AdapterSet{
		Coinbase: &fakeAdapter{ex: domain.Coinbase, sides: domain.Sides{Bids: []domain.Order{{Price: 1, Amount: 1, Exchange: domain.Coinbase}}}},
		Kraken:   &fakeAdapter{ex: domain.Kraken},
		Gemini:   &fakeAdapter{ex: domain.Gemini},
	}, []float64{1}, []domain.Pair{domain.BTCUSD})

	s.refreshOnce(context.Background(), domain.BTCUSD)

	b, ok := reg.Get(domain.BTCUSD)
	require.True(t, ok)
	assert.Len(t, b.Bids, 1)
}

func TestRefreshOnce_OneAdapterFails_RegistryUnchanged(t *testing.T) {
	reg := registry.New()
	seed := domain.Book{Bids: []domain.Order{{Price: 42, Amount: 1, Exchange: domain.Gemini}}}
	reg.Put(domain.BTCUSD, seed)

	s := New(reg, AdapterSet{
		Coinbase: &fakeAdapter{ex: domain.Coinbase},
		Kraken:   &fakeAdapter{ex: domain.Kraken, err: errors.New("timeout")},
		Gemini:   &fakeAdapter{ex: domain.Gemini},
	}, []float64{1}, []domain.Pair{domain.BTCUSD})

	s.refreshOnce(context.Background(), domain.BTCUSD)

	b, ok := reg.Get(domain.BTCUSD)
	require.True(t, ok)
	assert.Equal(t, seed, b, "registry must be left unchanged when any adapter fails")
}

func TestStart_CancelledContext_ReturnsPromptly(t *testing.T) {
	reg := registry.New()
	s := New(reg, AdapterSet{
		Coinbase: &fakeAdapter{ex: domain.Coinbase},
		Kraken:   &fakeAdapter{ex: domain.Kraken},
		Gemini:   &fakeAdapter{ex: domain.Gemini},
	}, []float64{3600}, []domain.Pair{domain.BTCUSD})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop promptly after cancellation")
	}
}
