package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/codeasch/poker-cashout/internal/ledger"
	"github.com/codeasch/poker-cashout/internal/models"
	"github.com/codeasch/poker-cashout/internal/service"
)

// Handler holds the API handlers and their dependencies
type Handler struct {
	svc       service.Service
	jwtSecret []byte
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service, jwtSecret []byte) *Handler {
	return &Handler{svc: svc, jwtSecret: jwtSecret}
}

// SetupRoutes registers all API routes on the router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/signup", h.SignUp)
		auth.POST("/login", h.Login)
	}

	sessions := api.Group("/sessions")
	sessions.Use(AuthMiddleware(h.jwtSecret))
	{
		sessions.POST("", h.CreateSession)
		sessions.GET("", h.ListSessions)
		sessions.POST("/import", h.ImportSession)
		sessions.GET("/:id", h.GetSession)
		sessions.DELETE("/:id", h.DeleteSession)
		sessions.GET("/:id/export", h.ExportSession)

		sessions.POST("/:id/players", h.AddPlayer)
		sessions.PATCH("/:id/players/:playerId", h.UpdatePlayer)
		sessions.DELETE("/:id/players/:playerId", h.RemovePlayer)
		sessions.POST("/:id/players/:playerId/rejoin", h.RejoinPlayer)

		sessions.POST("/:id/buyins", h.RecordBuyIn)
		sessions.POST("/:id/buyins/undo", h.UndoBuyIn)

		sessions.POST("/:id/cashouts", h.CashOutPlayer)
		sessions.PUT("/:id/cashouts/:cashOutId", h.EditCashOut)

		sessions.POST("/:id/finalize", h.FinalizeSession)
		sessions.GET("/:id/settlement", h.GetSettlement)
		sessions.GET("/:id/nets", h.GetNets)
		sessions.GET("/:id/variance", h.GetVariance)
		sessions.PATCH("/:id/transactions/:index/paid", h.MarkTransactionPaid)
	}
}

// Authentication handlers
func (h *Handler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	resp, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// userID returns the authenticated user id placed by AuthMiddleware.
func userID(c *gin.Context) string {
	return c.MustGet("userId").(string)
}

func writeBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Status:  "error",
		Code:    "VALIDATION_ERROR",
		Message: err.Error(),
	})
}

// writeError maps service and ledger failures to HTTP statuses: validation
// 400, missing entities 404, state-machine violations 409, ownership 403.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, models.ErrorResponse{Status: "error", Code: "EMAIL_TAKEN", Message: err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Status: "error", Code: "INVALID_CREDENTIALS", Message: err.Error()})
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Status: "error", Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, models.ErrorResponse{Status: "error", Code: "FORBIDDEN", Message: err.Error()})
	case errors.Is(err, service.ErrNotFinalized):
		c.JSON(http.StatusConflict, models.ErrorResponse{Status: "error", Code: "INVALID_OPERATION", Message: err.Error()})
	case errors.Is(err, service.ErrInvalidImport):
		writeBadRequest(c, err)
	default:
		switch ledger.KindOf(err) {
		case ledger.KindValidation:
			writeBadRequest(c, err)
		case ledger.KindNotFound:
			c.JSON(http.StatusNotFound, models.ErrorResponse{Status: "error", Code: "NOT_FOUND", Message: err.Error()})
		case ledger.KindInvalidOperation:
			c.JSON(http.StatusConflict, models.ErrorResponse{Status: "error", Code: "INVALID_OPERATION", Message: err.Error()})
		default:
			log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Status:  "error",
				Code:    "INTERNAL_ERROR",
				Message: "An internal error occurred",
			})
		}
	}
}
