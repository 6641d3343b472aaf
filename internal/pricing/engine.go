// Package pricing implements the VWAP and best-limit-order-split
// traversals over a merged order book, ported from utils.PriceCalculator
// and utils.ExchangeLimitOrderCalculator.
package pricing

import (
	"github.com/cryptoagg/orderbookd/internal/apierr"
	"github.com/cryptoagg/orderbookd/internal/domain"
)

func sideFor(book domain.Book, op domain.Operation) []domain.Order {
	if op == domain.Buy {
		return book.Asks
	}
	return book.Bids
}

// VWAP returns the volume-weighted average unit price for filling qty on
// the given side of book. It returns 0 if the side is empty; a qty <= 0
// or an unknown op is rejected with BadRequest. Requesting more than the
// available depth fills over the available depth only, per spec.
func VWAP(book domain.Book, op domain.Operation, qty float64) (float64, error) {
	if qty <= 0 {
		return 0, apierr.New(apierr.BadRequest, "quantity must be positive")
	}
	if !op.Valid() {
		return 0, apierr.New(apierr.BadRequest, "unknown operation")
	}

	var filled, cost float64
	for _, o := range sideFor(book, op) {
		if filled+o.Amount <= qty {
			filled += o.Amount
			cost += o.Amount * o.Price
		} else {
			remaining := qty - filled
			filled += remaining
			cost += remaining * o.Price
			break
		}
	}

	if filled == 0 {
		return 0, nil
	}
	return cost / filled, nil
}

// BestSplit returns, for each exchange touched while filling qty on the
// requested side, one Order carrying the total amount taken from that
// exchange and the price of the last level touched there. Order of the
// result follows the order in which each exchange first appeared during
// the traversal.
func BestSplit(book domain.Book, op domain.Operation, qty float64) ([]domain.Order, error) {
	if qty <= 0 {
		return nil, apierr.New(apierr.BadRequest, "quantity must be positive")
	}
	if !op.Valid() {
		return nil, apierr.New(apierr.BadRequest, "unknown operation")
	}

	type accum struct {
		amount float64
		price  float64
	}

	totals := map[domain.Exchange]*accum{}
	order := []domain.Exchange{}

	var filled float64
	for _, o := range sideFor(book, op) {
		a, ok := totals[o.Exchange]
		if !ok {
			a = &accum{}
			totals[o.Exchange] = a
			order = append(order, o.Exchange)
		}

		if filled+o.Amount <= qty {
			filled += o.Amount
			a.amount += o.Amount
			a.price = o.Price
		} else {
			remaining := qty - filled
			filled += remaining
			a.amount += remaining
			a.price = o.Price
			break
		}
	}

	out := make([]domain.Order, 0, len(order))
	for _, ex := range order {
		a := totals[ex]
		out = append(out, domain.Order{
			Price:     a.price,
			Amount:    a.amount,
			Timestamp: 0,
			Exchange:  ex,
		})
	}
	return out, nil
}
