package exchange

import (
	"encoding/json"
	"fmt"

	"github.com/cryptoagg/orderbookd/internal/apierr"
	"github.com/cryptoagg/orderbookd/internal/domain"
)

type krakenFetcher struct{}

// NewKraken returns the guarded Kraken depth-of-book adapter.
func NewKraken() Adapter {
	return newGuarded(krakenFetcher{})
}

func (krakenFetcher) exchange() domain.Exchange { return domain.Kraken }

func (krakenFetcher) buildURL(sym string) string {
	return fmt.Sprintf("https://api.kraken.com/0/public/Depth?pair=%s", sym)
}

// resultKey returns the venue-specific ticker Kraken nests its result
// under for the given request symbol.
func resultKey(sym string) string {
	switch sym {
	case "XBTUSD":
		return "XXBTZUSD"
	case "ETHUSD":
		return "XETHZUSD"
	default:
		return ""
	}
}

func (krakenFetcher) extractSides(raw []byte, sym string) ([]json.RawMessage, []json.RawMessage, error) {
	var body struct {
		Result map[string]struct {
			Bids []json.RawMessage `json:"bids"`
			Asks []json.RawMessage `json:"asks"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, nil, apierr.WrapExchange(apierr.BadResponseShape, "KRAKEN", "missing result object", err)
	}

	key := resultKey(sym)
	entry, ok := body.Result[key]
	if !ok {
		return nil, nil, apierr.WrapExchange(apierr.BadResponseShape, "KRAKEN",
			fmt.Sprintf("result key %q not present for symbol %q", key, sym), nil)
	}
	return entry.Bids, entry.Asks, nil
}
