package models

// Request models
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateSessionRequest struct {
	Name     string                  `json:"name" binding:"required"`
	Currency string                  `json:"currency" binding:"required"`
	Settings *SessionSettingsRequest `json:"settings"`
}

// SessionSettingsRequest carries optional overrides for the session defaults.
type SessionSettingsRequest struct {
	VarianceToleranceCents *int64  `json:"varianceToleranceCents"`
	QuickBuyInOptions      []int64 `json:"quickBuyInOptions"`
	AllowInactiveBuyIns    *bool   `json:"allowInactiveBuyIns"`
}

type AddPlayerRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

type UpdatePlayerRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type BuyInRequest struct {
	PlayerID    string `json:"playerId" binding:"required"`
	AmountCents int64  `json:"amountCents" binding:"required"`
}

type UndoBuyInRequest struct {
	PlayerID string `json:"playerId"` // empty undoes the latest buy-in overall
}

type CashOutRequest struct {
	PlayerID    string `json:"playerId" binding:"required"`
	AmountCents int64  `json:"amountCents"`
	Reason      string `json:"reason" binding:"required,oneof=leave final"`
}

type EditCashOutRequest struct {
	AmountCents int64 `json:"amountCents"`
}

type FinalizeSessionRequest struct {
	FinalStacksCents map[string]int64 `json:"finalStacksCents" binding:"required"`
}

type MarkPaidRequest struct {
	Paid bool `json:"paid"`
}

// Response models
type AuthResponse struct {
	Status    string `json:"status"`
	UserID    string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

type SessionResponse struct {
	Status  string   `json:"status"`
	Session *Session `json:"session,omitempty"`
}

type SessionListResponse struct {
	Status   string    `json:"status"`
	Sessions []Session `json:"sessions"`
}

type PlayerResponse struct {
	Status   string   `json:"status"`
	PlayerID string   `json:"playerId,omitempty"`
	Session  *Session `json:"session,omitempty"`
}

type NetsResponse struct {
	Status string      `json:"status"`
	Nets   []PlayerNet `json:"nets"`
}

type VarianceResponse struct {
	Status          string `json:"status"`
	VarianceCents   int64  `json:"varianceCents"`
	WithinTolerance bool   `json:"withinTolerance"`
}

type SettlementResponse struct {
	Status     string              `json:"status"`
	Settlement *SettlementSnapshot `json:"settlement,omitempty"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
