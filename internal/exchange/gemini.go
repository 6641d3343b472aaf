package exchange

import (
	"encoding/json"
	"fmt"

	"github.com/cryptoagg/orderbookd/internal/apierr"
	"github.com/cryptoagg/orderbookd/internal/domain"
)

type geminiFetcher struct{}

// NewGemini returns the guarded Gemini depth-of-book adapter.
func NewGemini() Adapter {
	return newGuarded(geminiFetcher{})
}

func (geminiFetcher) exchange() domain.Exchange { return domain.Gemini }

func (geminiFetcher) buildURL(sym string) string {
	return fmt.Sprintf("https://api.gemini.com/v1/book/%s", sym)
}

func (geminiFetcher) extractSides(raw []byte, sym string) ([]json.RawMessage, []json.RawMessage, error) {
	var body struct {
		Bids []json.RawMessage `json:"bids"`
		Asks []json.RawMessage `json:"asks"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, nil, apierr.WrapExchange(apierr.BadResponseShape, "GEMINI", "missing bids/asks keys", err)
	}
	return body.Bids, body.Asks, nil
}
