package models

import (
	"sort"
	"time"
)

// User represents an account that owns sessions
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Password  string    `db:"password" json:"-"` // Password hash, not returned in JSON
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Session status values
const (
	SessionOpen   = "open"
	SessionClosed = "closed"
)

// Cash-out reasons
const (
	CashOutLeave = "leave"
	CashOutFinal = "final"
)

// SchemaVersion is stamped on every session document for forward compatibility
const SchemaVersion = 1

// Session is the full event-sourced record of one cash game. All monetary
// amounts are integer cents; all timestamps are epoch milliseconds. Once
// Status is "closed" the event sequences and the settlement snapshot are
// immutable.
type Session struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Currency   string              `json:"currency"` // display symbol, e.g. "$"
	CreatedBy  string              `json:"createdBy,omitempty"`
	CreatedAt  int64               `json:"createdAt"`
	ClosedAt   int64               `json:"closedAt,omitempty"`
	Players    map[string]Player   `json:"players"`
	BuyIns     []BuyIn             `json:"buyIns"`   // chronological
	CashOuts   []CashOut           `json:"cashOuts"` // mid-game and final
	Reentries  []ReentryEvent      `json:"reentries"`
	Settings   SessionSettings     `json:"settings"`
	Status     string              `json:"status"`
	Settlement *SettlementSnapshot `json:"settlement,omitempty"`
	// NextPlayerOrder only grows, so display orders are never reused even
	// after the highest-ordered player is removed.
	NextPlayerOrder int `json:"nextPlayerOrder,omitempty"`
	Version         int `json:"version"`
}

// Player is a participant in a session. Players with financial history are
// never deleted; leaving and rejoining toggles Active.
type Player struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	CreatedAt   int64  `json:"createdAt"`
	Active      bool   `json:"active"`
	Order       int    `json:"order"` // stable display ordering, never reused
	RejoinCount int    `json:"rejoinCount"`
}

// BuyIn records a chip purchase. Buy-ins are never hard-deleted; undo sets
// Deleted to preserve the audit trail.
type BuyIn struct {
	ID          string `json:"id"`
	SessionID   string `json:"sessionId"`
	PlayerID    string `json:"playerId"`
	AmountCents int64  `json:"amountCents"`
	Ts          int64  `json:"ts"`
	Deleted     bool   `json:"deleted,omitempty"`
}

// Live reports whether the buy-in counts toward aggregations.
func (b BuyIn) Live() bool {
	return !b.Deleted
}

// CashOut records value a player removed from the game. Edits never mutate a
// cash-out; the corrected one is appended and the original is linked to it
// via SupersededBy.
type CashOut struct {
	ID           string `json:"id"`
	SessionID    string `json:"sessionId"`
	PlayerID     string `json:"playerId"`
	AmountCents  int64  `json:"amountCents"`
	Ts           int64  `json:"ts"`
	Reason       string `json:"reason"` // "leave" or "final"
	SupersededBy string `json:"supersededBy,omitempty"`
}

// Live reports whether the cash-out counts toward aggregations.
func (c CashOut) Live() bool {
	return c.SupersededBy == ""
}

// ReentryEvent is the audit record of a rejoin; it carries no money.
type ReentryEvent struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
	PlayerID  string `json:"playerId"`
	Ts        int64  `json:"ts"`
}

// SessionSettings holds per-session policy knobs.
type SessionSettings struct {
	VarianceToleranceCents int64   `json:"varianceToleranceCents"`
	QuickBuyInOptions      []int64 `json:"quickBuyInOptions"`
	AllowInactiveBuyIns    bool    `json:"allowInactiveBuyIns,omitempty"`
}

// SettlementSnapshot is computed once at finalize time and never recomputed.
type SettlementSnapshot struct {
	Nets          []PlayerNet    `json:"nets"`
	Transactions  []SettlementTx `json:"transactions"`
	VarianceCents int64          `json:"varianceCents"`
	CalculatedAt  int64          `json:"calculatedAt"`
	Algorithm     string         `json:"algorithm"`
}

// PlayerNet is one player's aggregate position.
type PlayerNet struct {
	PlayerID     string `json:"playerId"`
	BuyInsCents  int64  `json:"buyInsCents"`
	CashOutCents int64  `json:"cashOutCents"`
	NetCents     int64  `json:"netCents"`
}

// SettlementTx is a directed payment from a net-debtor to a net-creditor.
// Paid is UI bookkeeping only and never feeds back into any computation.
type SettlementTx struct {
	FromPlayerID string `json:"fromPlayerId"`
	ToPlayerID   string `json:"toPlayerId"`
	AmountCents  int64  `json:"amountCents"`
	Paid         bool   `json:"paid,omitempty"`
}

// Clone returns a deep copy of the session. Ledger operations validate
// against the original and mutate only the copy, so a failed command can
// never leave a session partially changed.
func (s *Session) Clone() *Session {
	out := *s

	out.Players = make(map[string]Player, len(s.Players))
	for id, p := range s.Players {
		out.Players[id] = p
	}

	out.BuyIns = append([]BuyIn(nil), s.BuyIns...)
	out.CashOuts = append([]CashOut(nil), s.CashOuts...)
	out.Reentries = append([]ReentryEvent(nil), s.Reentries...)
	out.Settings.QuickBuyInOptions = append([]int64(nil), s.Settings.QuickBuyInOptions...)

	if s.Settlement != nil {
		snap := *s.Settlement
		snap.Nets = append([]PlayerNet(nil), s.Settlement.Nets...)
		snap.Transactions = append([]SettlementTx(nil), s.Settlement.Transactions...)
		out.Settlement = &snap
	}

	return &out
}

// PlayersInOrder returns the players sorted by display order, ties broken by
// id, so iteration over the player map is deterministic.
func (s *Session) PlayersInOrder() []Player {
	players := make([]Player, 0, len(s.Players))
	for _, p := range s.Players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Order != players[j].Order {
			return players[i].Order < players[j].Order
		}
		return players[i].ID < players[j].ID
	})
	return players
}

// ActivePlayerCount returns the number of players currently in the game.
func (s *Session) ActivePlayerCount() int {
	n := 0
	for _, p := range s.Players {
		if p.Active {
			n++
		}
	}
	return n
}
