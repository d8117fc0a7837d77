// Package settlement derives per-player nets, session variance, and a
// minimal payment list from a session's event log. Every function here is a
// pure, deterministic read: identical input yields identical output, except
// for the CalculatedAt stamp on a snapshot.
package settlement

import (
	"sort"

	"github.com/codeasch/poker-cashout/internal/models"
	"github.com/codeasch/poker-cashout/internal/money"
)

// Algorithm tags the netting strategy stored on every snapshot, so a future
// strategy change is distinguishable in persisted sessions.
const Algorithm = "greedy-max-flow-v1"

// ComputePlayerNets sums live buy-ins and live cash-outs per player. Every
// player appears, in display order, including inactive ones and players with
// zero activity.
func ComputePlayerNets(s *models.Session) []models.PlayerNet {
	nets := make([]models.PlayerNet, 0, len(s.Players))
	for _, p := range s.PlayersInOrder() {
		var buyIns, cashOuts int64
		for _, b := range s.BuyIns {
			if b.PlayerID == p.ID && b.Live() {
				buyIns += b.AmountCents
			}
		}
		for _, c := range s.CashOuts {
			if c.PlayerID == p.ID && c.Live() {
				cashOuts += c.AmountCents
			}
		}
		nets = append(nets, models.PlayerNet{
			PlayerID:     p.ID,
			BuyInsCents:  buyIns,
			CashOutCents: cashOuts,
			NetCents:     cashOuts - buyIns,
		})
	}
	return nets
}

// ComputeVariance returns total live cash-outs minus total live buy-ins for
// the whole session. Zero means every cent put in came back out; anything
// else is a counting error.
func ComputeVariance(s *models.Session) int64 {
	var buyIns, cashOuts int64
	for _, b := range s.BuyIns {
		if b.Live() {
			buyIns += b.AmountCents
		}
	}
	for _, c := range s.CashOuts {
		if c.Live() {
			cashOuts += c.AmountCents
		}
	}
	return cashOuts - buyIns
}

// party is one side of the netting loop: a creditor or debtor with the
// amount still to match. idx preserves the input (player display) order for
// deterministic tie-breaking.
type party struct {
	playerID string
	amount   int64
	idx      int
}

func sortParties(ps []party) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].amount != ps[j].amount {
			return ps[i].amount > ps[j].amount
		}
		return ps[i].idx < ps[j].idx
	})
}

// MinimizeCashFlow nets the given positions into a payment list by repeatedly
// matching the largest creditor with the largest debtor. Players with net
// zero never appear. The result is deterministic for identical input but is
// not guaranteed to be the theoretical minimum number of payments; that
// trade-off buys an explainable, reproducible settlement. When credits and
// debits do not balance the residual is left unmatched — it surfaces as
// variance, never as a transaction.
func MinimizeCashFlow(nets []models.PlayerNet) []models.SettlementTx {
	var creditors, debtors []party
	for i, n := range nets {
		switch {
		case n.NetCents > 0:
			creditors = append(creditors, party{playerID: n.PlayerID, amount: n.NetCents, idx: i})
		case n.NetCents < 0:
			debtors = append(debtors, party{playerID: n.PlayerID, amount: -n.NetCents, idx: i})
		}
	}
	sortParties(creditors)
	sortParties(debtors)

	transactions := []models.SettlementTx{}
	for len(creditors) > 0 && len(debtors) > 0 {
		creditor := &creditors[0]
		debtor := &debtors[0]

		payment := creditor.amount
		if debtor.amount < payment {
			payment = debtor.amount
		}
		if payment > 0 {
			transactions = append(transactions, models.SettlementTx{
				FromPlayerID: debtor.playerID,
				ToPlayerID:   creditor.playerID,
				AmountCents:  payment,
			})
		}

		creditor.amount -= payment
		debtor.amount -= payment
		if creditor.amount == 0 {
			creditors = creditors[1:]
		}
		if debtor.amount == 0 {
			debtors = debtors[1:]
		}
		// Lists are short; re-sorting keeps the next-largest at the head
		// after a partial match.
		sortParties(creditors)
		sortParties(debtors)
	}

	return transactions
}

// Calculate composes nets, variance, and the payment list into a snapshot,
// stamping the calculation time and the algorithm tag.
func Calculate(s *models.Session, now func() int64) *models.SettlementSnapshot {
	nets := ComputePlayerNets(s)
	return &models.SettlementSnapshot{
		Nets:          nets,
		Transactions:  MinimizeCashFlow(nets),
		VarianceCents: ComputeVariance(s),
		CalculatedAt:  now(),
		Algorithm:     Algorithm,
	}
}

// Validate reports whether the nets balance to within the tolerance. Callers
// decide whether a failed check blocks or merely warns.
func Validate(nets []models.PlayerNet, toleranceCents int64) bool {
	var total int64
	for _, n := range nets {
		total += n.NetCents
	}
	return money.WithinTolerance(total, toleranceCents)
}
