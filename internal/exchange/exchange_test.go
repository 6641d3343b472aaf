package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptoagg/orderbookd/internal/domain"
)

func TestCoinbase_ExtractSides_AndDecodeRows_PositionalTriple(t *testing.T) {
	raw := []byte(`{"bids":[["100.0","1.5",123456]],"asks":[["101.0","2.0",123457]]}`)

	bidsRaw, asksRaw, err := coinbaseFetcher{}.extractSides(raw, "BTC-USD")
	require.NoError(t, err)

	bids, err := decodeRows(bidsRaw, domain.Coinbase)
	require.NoError(t, err)
	require.Len(t, bids, 1)
	assert.Equal(t, 100.0, bids[0].Price)
	assert.Equal(t, 1.5, bids[0].Amount)
	assert.Equal(t, int64(123456), bids[0].Timestamp)

	asks, err := decodeRows(asksRaw, domain.Coinbase)
	require.NoError(t, err)
	require.Len(t, asks, 1)
	assert.Equal(t, 101.0, asks[0].Price)
}

func TestGemini_ExtractSides_ObjectRows(t *testing.T) {
	raw := []byte(`{"bids":[{"price":"99.5","amount":"0.3","timestamp":"111"}],"asks":[]}`)

	bidsRaw, asksRaw, err := geminiFetcher{}.extractSides(raw, "BTCUSD")
	require.NoError(t, err)

	bids, err := decodeRows(bidsRaw, domain.Gemini)
	require.NoError(t, err)
	require.Len(t, bids, 1)
	assert.Equal(t, 99.5, bids[0].Price)
	assert.Equal(t, int64(111), bids[0].Timestamp)
	assert.Empty(t, asksRaw)
}

func TestKraken_ResultKeySelection_S6(t *testing.T) {
	assert.Equal(t, "XXBTZUSD", resultKey("XBTUSD"))
	assert.Equal(t, "XETHZUSD", resultKey("ETHUSD"))
	assert.Equal(t, "", resultKey("unknown"))
}

func TestKraken_ExtractSides_UsesResultKey(t *testing.T) {
	raw := []byte(`{"error":[],"result":{"XXBTZUSD":{"bids":[["50000.0","0.1",1]],"asks":[["50010.0","0.2",2]]}}}`)

	bidsRaw, asksRaw, err := krakenFetcher{}.extractSides(raw, "XBTUSD")
	require.NoError(t, err)
	require.Len(t, bidsRaw, 1)
	require.Len(t, asksRaw, 1)
}

func TestKraken_ExtractSides_WrongKey_BadResponseShape(t *testing.T) {
	raw := []byte(`{"result":{"XETHZUSD":{"bids":[],"asks":[]}}}`)

	_, _, err := krakenFetcher{}.extractSides(raw, "XBTUSD")
	assert.Error(t, err)
}

func TestDecodeRow_UnsupportedShape_BadResponseShape(t *testing.T) {
	raw := []byte(`"not-a-row"`)
	_, err := decodeRow(raw, domain.Kraken)
	assert.Error(t, err)
}
