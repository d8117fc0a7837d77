// Package ledger applies validated mutations to a session and maintains the
// entity invariants: buy-ins are soft-deleted rather than removed, cash-outs
// are superseded rather than edited, and a closed session accepts no further
// ledger mutation. Every operation validates first and then works on a deep
// copy, so a failing command never leaves a session partially changed.
package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codeasch/poker-cashout/internal/models"
	"github.com/codeasch/poker-cashout/internal/settlement"
)

// Engine applies ledger commands. NewID and Now are supplied capabilities so
// tests can pin ids and timestamps; the defaults use random UUIDs and wall
// clock epoch milliseconds.
type Engine struct {
	NewID func() string
	Now   func() int64
}

// NewEngine returns an engine with the default id and clock sources.
func NewEngine() *Engine {
	return &Engine{
		NewID: func() string { return uuid.New().String() },
		Now:   func() int64 { return time.Now().UnixMilli() },
	}
}

// Session defaults when a create request carries no settings, matching the
// app's stock configuration ($1.00 tolerance, $20/$40/$100 quick buy-ins).
var defaultSettings = models.SessionSettings{
	VarianceToleranceCents: 100,
	QuickBuyInOptions:      []int64{2000, 4000, 10000},
}

// DefaultSettings returns a copy of the stock session settings.
func DefaultSettings() models.SessionSettings {
	s := defaultSettings
	s.QuickBuyInOptions = append([]int64(nil), defaultSettings.QuickBuyInOptions...)
	return s
}

// NewSession creates an open session with no players or events.
func (e *Engine) NewSession(name, currency string, settings *models.SessionSettings) (*models.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("session name must not be empty")
	}

	st := DefaultSettings()
	if settings != nil {
		st = *settings
		st.QuickBuyInOptions = append([]int64(nil), settings.QuickBuyInOptions...)
	}

	return &models.Session{
		ID:        e.NewID(),
		Name:      name,
		Currency:  currency,
		CreatedAt: e.Now(),
		Players:   map[string]models.Player{},
		BuyIns:    []models.BuyIn{},
		CashOuts:  []models.CashOut{},
		Reentries: []models.ReentryEvent{},
		Settings:  st,
		Status:    models.SessionOpen,
		Version:   models.SchemaVersion,
	}, nil
}

func requireOpen(s *models.Session) error {
	if s.Status != models.SessionOpen {
		return invalidOpf("session %s is closed", s.ID)
	}
	return nil
}

// AddPlayer adds an active player and returns the new session and player id.
func (e *Engine) AddPlayer(s *models.Session, name, color string) (*models.Session, string, error) {
	if err := requireOpen(s); err != nil {
		return nil, "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", validationf("player name must not be empty")
	}

	// Orders come from a counter that survives removals, so an order is
	// never reused. Imported documents without the counter fall back to one
	// past the highest order still present.
	next := s.NextPlayerOrder
	for _, p := range s.Players {
		if p.Order >= next {
			next = p.Order + 1
		}
	}

	out := s.Clone()
	out.NextPlayerOrder = next + 1
	player := models.Player{
		ID:        e.NewID(),
		Name:      name,
		Color:     color,
		CreatedAt: e.Now(),
		Active:    true,
		Order:     next,
	}
	out.Players[player.ID] = player
	return out, player.ID, nil
}

// UpdatePlayer renames or recolors a player; financial fields are untouched.
func (e *Engine) UpdatePlayer(s *models.Session, playerID, name, color string) (*models.Session, error) {
	if err := requireOpen(s); err != nil {
		return nil, err
	}
	p, ok := s.Players[playerID]
	if !ok {
		return nil, notFoundf("player %s not found", playerID)
	}
	if name != "" {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, validationf("player name must not be empty")
		}
		p.Name = name
	}
	if color != "" {
		p.Color = color
	}

	out := s.Clone()
	out.Players[playerID] = p
	return out, nil
}

// RemovePlayer deletes a player that has no financial history. A player with
// any live buy-in or cash-out can only be closed out via cash-out.
func (e *Engine) RemovePlayer(s *models.Session, playerID string) (*models.Session, error) {
	if err := requireOpen(s); err != nil {
		return nil, err
	}
	if _, ok := s.Players[playerID]; !ok {
		return nil, notFoundf("player %s not found", playerID)
	}
	for _, b := range s.BuyIns {
		if b.PlayerID == playerID && b.Live() {
			return nil, invalidOpf("player %s has buy-ins; cash out instead of removing", playerID)
		}
	}
	for _, c := range s.CashOuts {
		if c.PlayerID == playerID && c.Live() {
			return nil, invalidOpf("player %s has cash-outs; financial history cannot be erased", playerID)
		}
	}

	out := s.Clone()
	delete(out.Players, playerID)
	return out, nil
}

// RecordBuyIn appends a buy-in for the player. Existing buy-ins are never
// mutated. Unless the session allows inactive buy-ins, the player must be
// active.
func (e *Engine) RecordBuyIn(s *models.Session, playerID string, amountCents int64) (*models.Session, error) {
	if err := requireOpen(s); err != nil {
		return nil, err
	}
	if amountCents <= 0 {
		return nil, validationf("buy-in amount must be positive, got %d", amountCents)
	}
	p, ok := s.Players[playerID]
	if !ok {
		return nil, notFoundf("player %s not found", playerID)
	}
	if !p.Active && !s.Settings.AllowInactiveBuyIns {
		return nil, validationf("player %s is not active; rejoin before buying in", playerID)
	}

	out := s.Clone()
	out.BuyIns = append(out.BuyIns, models.BuyIn{
		ID:          e.NewID(),
		SessionID:   s.ID,
		PlayerID:    playerID,
		AmountCents: amountCents,
		Ts:          e.Now(),
	})
	return out, nil
}

// UndoLastBuyIn soft-deletes the most recent live buy-in in the session.
// It is a no-op, not an error, when no live buy-in exists.
func (e *Engine) UndoLastBuyIn(s *models.Session) (*models.Session, error) {
	return e.undoBuyIn(s, "")
}

// UndoLastBuyInForPlayer soft-deletes the player's most recent live buy-in.
// It is a no-op, not an error, when the player has none.
func (e *Engine) UndoLastBuyInForPlayer(s *models.Session, playerID string) (*models.Session, error) {
	if _, ok := s.Players[playerID]; !ok {
		return nil, notFoundf("player %s not found", playerID)
	}
	return e.undoBuyIn(s, playerID)
}

func (e *Engine) undoBuyIn(s *models.Session, playerID string) (*models.Session, error) {
	if err := requireOpen(s); err != nil {
		return nil, err
	}

	// Latest by timestamp; equal timestamps fall to the later insertion.
	target := -1
	for i, b := range s.BuyIns {
		if !b.Live() {
			continue
		}
		if playerID != "" && b.PlayerID != playerID {
			continue
		}
		if target == -1 || b.Ts >= s.BuyIns[target].Ts {
			target = i
		}
	}
	if target == -1 {
		return s, nil
	}

	out := s.Clone()
	out.BuyIns[target].Deleted = true
	return out, nil
}

// CashOutPlayer appends a cash-out and marks the player inactive.
func (e *Engine) CashOutPlayer(s *models.Session, playerID string, amountCents int64, reason string) (*models.Session, error) {
	if err := requireOpen(s); err != nil {
		return nil, err
	}
	if amountCents < 0 {
		return nil, validationf("cash-out amount must not be negative, got %d", amountCents)
	}
	if reason != models.CashOutLeave && reason != models.CashOutFinal {
		return nil, validationf("unknown cash-out reason %q", reason)
	}
	p, ok := s.Players[playerID]
	if !ok {
		return nil, notFoundf("player %s not found", playerID)
	}

	out := s.Clone()
	out.CashOuts = append(out.CashOuts, models.CashOut{
		ID:          e.NewID(),
		SessionID:   s.ID,
		PlayerID:    playerID,
		AmountCents: amountCents,
		Ts:          e.Now(),
		Reason:      reason,
	})
	p.Active = false
	out.Players[playerID] = p
	return out, nil
}

// EditCashOut corrects a cash-out by appending a replacement with the same
// player and reason and linking the original to it. The original stays in
// the log for audit but drops out of every aggregation. The player's active
// flag is not touched.
func (e *Engine) EditCashOut(s *models.Session, cashOutID string, newAmountCents int64) (*models.Session, error) {
	if err := requireOpen(s); err != nil {
		return nil, err
	}
	if newAmountCents < 0 {
		return nil, validationf("cash-out amount must not be negative, got %d", newAmountCents)
	}

	target := -1
	for i, c := range s.CashOuts {
		if c.ID == cashOutID {
			if !c.Live() {
				return nil, notFoundf("cash-out %s was already superseded", cashOutID)
			}
			target = i
			break
		}
	}
	if target == -1 {
		return nil, notFoundf("cash-out %s not found", cashOutID)
	}

	out := s.Clone()
	old := out.CashOuts[target]
	replacement := models.CashOut{
		ID:          e.NewID(),
		SessionID:   s.ID,
		PlayerID:    old.PlayerID,
		AmountCents: newAmountCents,
		Ts:          e.Now(),
		Reason:      old.Reason,
	}
	out.CashOuts[target].SupersededBy = replacement.ID
	out.CashOuts = append(out.CashOuts, replacement)
	return out, nil
}

// RejoinPlayer brings an inactive player back into the game and records the
// re-entry. Rejoining an already-active player is rejected so the rejoin
// count cannot be inflated.
func (e *Engine) RejoinPlayer(s *models.Session, playerID string) (*models.Session, error) {
	if err := requireOpen(s); err != nil {
		return nil, err
	}
	p, ok := s.Players[playerID]
	if !ok {
		return nil, notFoundf("player %s not found", playerID)
	}
	if p.Active {
		return nil, invalidOpf("player %s is already active", playerID)
	}

	out := s.Clone()
	out.Reentries = append(out.Reentries, models.ReentryEvent{
		ID:        e.NewID(),
		SessionID: s.ID,
		PlayerID:  playerID,
		Ts:        e.Now(),
	})
	p.Active = true
	p.RejoinCount++
	out.Players[playerID] = p
	return out, nil
}

// FinalizeSession records a final cash-out for every active player from the
// counted stacks, computes the settlement snapshot over the resulting event
// log, and closes the session. The whole operation commits atomically; any
// validation failure leaves the session untouched and open.
func (e *Engine) FinalizeSession(s *models.Session, finalStacksCents map[string]int64) (*models.Session, error) {
	if err := requireOpen(s); err != nil {
		return nil, err
	}
	if s.ActivePlayerCount() < 2 {
		return nil, invalidOpf("need at least 2 active players to finalize, have %d", s.ActivePlayerCount())
	}
	for _, p := range s.PlayersInOrder() {
		if !p.Active {
			continue
		}
		if _, ok := finalStacksCents[p.ID]; !ok {
			return nil, invalidOpf("missing final stack for active player %s", p.ID)
		}
	}
	for playerID, amount := range finalStacksCents {
		if _, ok := s.Players[playerID]; !ok {
			return nil, notFoundf("player %s not found", playerID)
		}
		if amount < 0 {
			return nil, validationf("final stack for player %s must not be negative, got %d", playerID, amount)
		}
	}

	out := s.Clone()
	ts := e.Now()
	for _, p := range out.PlayersInOrder() {
		amount, ok := finalStacksCents[p.ID]
		if !ok {
			continue
		}
		out.CashOuts = append(out.CashOuts, models.CashOut{
			ID:          e.NewID(),
			SessionID:   s.ID,
			PlayerID:    p.ID,
			AmountCents: amount,
			Ts:          ts,
			Reason:      models.CashOutFinal,
		})
		p.Active = false
		out.Players[p.ID] = p
	}

	out.Settlement = settlement.Calculate(out, e.Now)
	out.Status = models.SessionClosed
	out.ClosedAt = e.Now()
	return out, nil
}

// MarkTransactionPaid flips the paid flag on one settlement transaction. This
// is pure bookkeeping for the payout view and is the only mutation accepted
// on a closed session; the snapshot amounts are never recomputed from it.
func (e *Engine) MarkTransactionPaid(s *models.Session, index int, paid bool) (*models.Session, error) {
	if s.Settlement == nil {
		return nil, invalidOpf("session %s has no settlement", s.ID)
	}
	if index < 0 || index >= len(s.Settlement.Transactions) {
		return nil, notFoundf("settlement transaction %d not found", index)
	}

	out := s.Clone()
	out.Settlement.Transactions[index].Paid = paid
	return out, nil
}
