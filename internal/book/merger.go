// Package book merges per-venue order-book sides into a single sorted
// Book, the way utils.OrderBookMerger does in the reference system.
package book

import (
	"sort"

	"github.com/cryptoagg/orderbookd/internal/domain"
)

// Merge concatenates bids and asks from every venue's Sides and returns a
// Book with bids sorted descending by price and asks ascending, ties
// broken by input order (stable sort).
func Merge(sides []domain.Sides) domain.Book {
	var bids, asks []domain.Order
	for _, s := range sides {
		bids = append(bids, s.Bids...)
		asks = append(asks, s.Asks...)
	}

	sort.SliceStable(bids, func(i, j int) bool {
		return bids[i].Price > bids[j].Price
	})
	sort.SliceStable(asks, func(i, j int) bool {
		return asks[i].Price < asks[j].Price
	})

	return domain.Book{Bids: bids, Asks: asks}
}

// SplitByExchange regroups a merged Book's orders back into per-exchange
// Sides, used by property tests asserting that merge(split(merge(x))) ==
// merge(x).
func SplitByExchange(b domain.Book) []domain.Sides {
	byExchange := map[domain.Exchange]*domain.Sides{}
	order := []domain.Exchange{}

	ensure := func(ex domain.Exchange) *domain.Sides {
		s, ok := byExchange[ex]
		if !ok {
			s = &domain.Sides{}
			byExchange[ex] = s
			order = append(order, ex)
		}
		return s
	}

	for _, o := range b.Bids {
		s := ensure(o.Exchange)
		s.Bids = append(s.Bids, o)
	}
	for _, o := range b.Asks {
		s := ensure(o.Exchange)
		s.Asks = append(s.Asks, o)
	}

	out := make([]domain.Sides, 0, len(order))
	for _, ex := range order {
		out = append(out, *byExchange[ex])
	}
	return out
}
