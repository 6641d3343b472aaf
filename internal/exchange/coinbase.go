package exchange

import (
	"encoding/json"
	"fmt"

	"github.com/cryptoagg/orderbookd/internal/apierr"
	"github.com/cryptoagg/orderbookd/internal/domain"
)

type coinbaseFetcher struct{}

// NewCoinbase returns the guarded Coinbase depth-of-book adapter.
func NewCoinbase() Adapter {
	return newGuarded(coinbaseFetcher{})
}

func (coinbaseFetcher) exchange() domain.Exchange { return domain.Coinbase }

func (coinbaseFetcher) buildURL(sym string) string {
	return fmt.Sprintf("https://api.pro.coinbase.com/products/%s/book?level=2", sym)
}

func (coinbaseFetcher) extractSides(raw []byte, sym string) ([]json.RawMessage, []json.RawMessage, error) {
	var body struct {
		Bids []json.RawMessage `json:"bids"`
		Asks []json.RawMessage `json:"asks"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, nil, apierr.WrapExchange(apierr.BadResponseShape, "COINBASE", "missing bids/asks keys", err)
	}
	return body.Bids, body.Asks, nil
}
