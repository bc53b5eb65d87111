package behavior

import (
	"fmt"
	"sort"
)

type MineState uint8

const (
	Mining MineState = iota
	Trading
)

func (s MineState) String() string {
	switch s {
	case Mining:
		return "MINING"
	case Trading:
		return "TRADING"
	}
	return fmt.Sprintf("MINE_STATE(%d)", uint8(s))
}

// NextMineState applies the auto-miner flip rule: a full hold turns mining
// into trading, an empty one (for the mined item) turns trading back into mining.
func NextMineState(cur MineState, held, free int) MineState {
	switch cur {
	case Mining:
		if free <= 0 {
			return Trading
		}
	case Trading:
		if held <= 0 {
			return Mining
		}
	}
	return cur
}

// Offer is one station's quote for one item.
// Buy is what the station pays the ship, Sell what it charges.
type Offer struct {
	Station string
	Item    string
	Buy     int
	Sell    int
	Stock   int
	Room    int
	Hops    int
}

// Plan is a buy leg at From followed by a sell leg at To.
type Plan struct {
	Item   string
	From   string
	To     string
	Amount int
	Profit int
}

// BestTrade picks the most profitable buy/sell pair the ship can afford and
// carry. Ties break on fewer hops, then station and item names.
func BestTrade(offers []Offer, credits, free int) (Plan, bool) {
	byItem := map[string][]Offer{}
	for _, o := range offers {
		byItem[o.Item] = append(byItem[o.Item], o)
	}
	items := make([]string, 0, len(byItem))
	for it := range byItem {
		items = append(items, it)
	}
	sort.Strings(items)

	var best Plan
	bestHops := 0
	found := false
	for _, it := range items {
		for _, src := range byItem[it] {
			if src.Stock <= 0 || src.Sell <= 0 {
				continue
			}
			for _, dst := range byItem[it] {
				if dst.Station == src.Station || dst.Buy <= src.Sell || dst.Room <= 0 {
					continue
				}
				amount := min(free, src.Stock, dst.Room, credits/src.Sell)
				if amount <= 0 {
					continue
				}
				p := Plan{Item: it, From: src.Station, To: dst.Station, Amount: amount, Profit: amount * (dst.Buy - src.Sell)}
				hops := src.Hops + dst.Hops
				if !found || better(p, hops, best, bestHops) {
					best, bestHops, found = p, hops, true
				}
			}
		}
	}
	return best, found
}

func better(p Plan, hops int, cur Plan, curHops int) bool {
	if p.Profit != cur.Profit {
		return p.Profit > cur.Profit
	}
	if hops != curHops {
		return hops < curHops
	}
	if p.From != cur.From {
		return p.From < cur.From
	}
	return p.To < cur.To
}

// BestBuyer picks the station paying most for item with room to store at
// least one unit.
func BestBuyer(offers []Offer, item string) (Offer, bool) {
	var best Offer
	found := false
	for _, o := range offers {
		if o.Item != item || o.Buy <= 0 || o.Room <= 0 {
			continue
		}
		if !found || o.Buy > best.Buy || (o.Buy == best.Buy && (o.Hops < best.Hops || (o.Hops == best.Hops && o.Station < best.Station))) {
			best, found = o, true
		}
	}
	return best, found
}
