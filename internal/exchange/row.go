package exchange

import (
	"encoding/json"

	"github.com/cryptoagg/orderbookd/internal/apierr"
	"github.com/cryptoagg/orderbookd/internal/domain"
)

// decodeRows turns a list of raw JSON rows into Orders for the given
// exchange. Each row is either a positional triple [price, amount,
// timestamp] or an object {price, amount, timestamp}; any other shape
// fails with BadResponseShape.
func decodeRows(raw []json.RawMessage, ex domain.Exchange) ([]domain.Order, error) {
	orders := make([]domain.Order, 0, len(raw))
	for _, r := range raw {
		o, err := decodeRow(r, ex)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func decodeRow(raw json.RawMessage, ex domain.Exchange) (domain.Order, error) {
	var asTuple []json.Number
	if err := json.Unmarshal(raw, &asTuple); err == nil {
		if len(asTuple) < 3 {
			return domain.Order{}, apierr.WrapExchange(apierr.BadResponseShape, string(ex),
				"row tuple has fewer than 3 fields", nil)
		}
		price, err := asTuple[0].Float64()
		if err != nil {
			return domain.Order{}, apierr.WrapExchange(apierr.BadResponseShape, string(ex), "non-numeric price", err)
		}
		amount, err := asTuple[1].Float64()
		if err != nil {
			return domain.Order{}, apierr.WrapExchange(apierr.BadResponseShape, string(ex), "non-numeric amount", err)
		}
		ts, err := asTuple[2].Int64()
		if err != nil {
			// Some venues emit fractional epoch timestamps; fall back to float truncation.
			f, ferr := asTuple[2].Float64()
			if ferr != nil {
				return domain.Order{}, apierr.WrapExchange(apierr.BadResponseShape, string(ex), "non-numeric timestamp", err)
			}
			ts = int64(f)
		}
		return domain.Order{Price: price, Amount: amount, Timestamp: ts, Exchange: ex}, nil
	}

	var asObj struct {
		Price     json.Number `json:"price"`
		Amount    json.Number `json:"amount"`
		Timestamp json.Number `json:"timestamp"`
	}
	if err := json.Unmarshal(raw, &asObj); err == nil && asObj.Price != "" && asObj.Amount != "" {
		price, err := asObj.Price.Float64()
		if err != nil {
			return domain.Order{}, apierr.WrapExchange(apierr.BadResponseShape, string(ex), "non-numeric price", err)
		}
		amount, err := asObj.Amount.Float64()
		if err != nil {
			return domain.Order{}, apierr.WrapExchange(apierr.BadResponseShape, string(ex), "non-numeric amount", err)
		}
		var ts int64
		if asObj.Timestamp != "" {
			if v, err := asObj.Timestamp.Int64(); err == nil {
				ts = v
			}
		}
		return domain.Order{Price: price, Amount: amount, Timestamp: ts, Exchange: ex}, nil
	}

	return domain.Order{}, apierr.WrapExchange(apierr.BadResponseShape, string(ex),
		"row is neither a positional triple nor a {price,amount,timestamp} object", nil)
}
