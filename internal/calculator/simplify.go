package calculator

import (
	"log/slog"

	"github.com/ferd/tripsplit/internal/models"
)

// party is one side of the matching: a member with an outstanding amount and
// their creation-order position for tie-breaking.
type party struct {
	id     string
	amount int64
	order  int
}

// SimplifyDebts reduces net balances to a minimal set of settling transfers
// in the given currency.
//
// Members with a resolved settled-by target first have their balance merged
// into that target and drop out of the matching, so no transfer references
// them. Remaining members split into creditors and debtors; each round pairs
// the largest creditor with the largest debtor (ties broken by member
// creation order) and transfers the smaller of the two outstanding amounts.
// The pairing emits at most n-1 transfers for n unsettled members and is
// fully deterministic: identical inputs yield the identical transfer list.
//
// A nonzero balance total is an internal invariant violation. It is logged
// and the best-effort transfer set is still returned; the residual simply
// stays unmatched.
func SimplifyDebts(net map[string]int64, settledBy map[string]string, members []models.Member, currency string) []models.Transfer {
	order := make(map[string]int, len(members))
	for i, m := range members {
		order[m.ID] = i
	}

	merged := make(map[string]int64, len(net))
	for id, balance := range net {
		target, ok := settledBy[id]
		if !ok {
			target = id
		}
		merged[target] += balance
	}

	var total int64
	var creditors, debtors []party
	for id, balance := range merged {
		total += balance
		switch {
		case balance > 0:
			creditors = append(creditors, party{id: id, amount: balance, order: order[id]})
		case balance < 0:
			debtors = append(debtors, party{id: id, amount: -balance, order: order[id]})
		}
	}
	if total != 0 {
		slog.Error("balance invariant violated, returning best-effort transfers",
			"error", ErrBalanceMismatch, "residual", total, "currency", currency)
	}

	transfers := []models.Transfer{}
	for len(creditors) > 0 && len(debtors) > 0 {
		ci := largest(creditors)
		di := largest(debtors)
		amount := min(creditors[ci].amount, debtors[di].amount)

		transfers = append(transfers, models.Transfer{
			From:     debtors[di].id,
			To:       creditors[ci].id,
			Amount:   amount,
			Currency: currency,
		})

		creditors[ci].amount -= amount
		debtors[di].amount -= amount
		if creditors[ci].amount == 0 {
			creditors = append(creditors[:ci], creditors[ci+1:]...)
		}
		if debtors[di].amount == 0 {
			debtors = append(debtors[:di], debtors[di+1:]...)
		}
	}
	return transfers
}

// largest returns the index of the party with the biggest outstanding amount,
// earliest-created member first on equal amounts.
func largest(parties []party) int {
	best := 0
	for i := 1; i < len(parties); i++ {
		p, b := parties[i], parties[best]
		if p.amount > b.amount || (p.amount == b.amount && p.order < b.order) {
			best = i
		}
	}
	return best
}
