package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codeasch/poker-cashout/internal/models"
)

// Session management handlers
func (h *Handler) CreateSession(c *gin.Context) {
	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	session, err := h.svc.CreateSession(c.Request.Context(), userID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.SessionResponse{Status: "success", Session: session})
}

func (h *Handler) ListSessions(c *gin.Context) {
	sessions, err := h.svc.ListSessions(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SessionListResponse{Status: "success", Sessions: sessions})
}

func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.svc.GetSession(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SessionResponse{Status: "success", Session: session})
}

func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.svc.DeleteSession(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Player handlers
func (h *Handler) AddPlayer(c *gin.Context) {
	var req models.AddPlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	session, playerID, err := h.svc.AddPlayer(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.PlayerResponse{Status: "success", PlayerID: playerID, Session: session})
}

func (h *Handler) UpdatePlayer(c *gin.Context) {
	var req models.UpdatePlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	session, err := h.svc.UpdatePlayer(c.Request.Context(), userID(c), c.Param("id"), c.Param("playerId"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SessionResponse{Status: "success", Session: session})
}

func (h *Handler) RemovePlayer(c *gin.Context) {
	session, err := h.svc.RemovePlayer(c.Request.Context(), userID(c), c.Param("id"), c.Param("playerId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SessionResponse{Status: "success", Session: session})
}

func (h *Handler) RejoinPlayer(c *gin.Context) {
	session, err := h.svc.RejoinPlayer(c.Request.Context(), userID(c), c.Param("id"), c.Param("playerId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SessionResponse{Status: "success", Session: session})
}

// Buy-in handlers
func (h *Handler) RecordBuyIn(c *gin.Context) {
	var req models.BuyInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	session, err := h.svc.RecordBuyIn(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.SessionResponse{Status: "success", Session: session})
}

func (h *Handler) UndoBuyIn(c *gin.Context) {
	// Body is optional; an empty body undoes the latest buy-in overall.
	var req models.UndoBuyInRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBadRequest(c, err)
			return
		}
	}

	session, err := h.svc.UndoLastBuyIn(c.Request.Context(), userID(c), c.Param("id"), req.PlayerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SessionResponse{Status: "success", Session: session})
}

// Cash-out handlers
func (h *Handler) CashOutPlayer(c *gin.Context) {
	var req models.CashOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	session, err := h.svc.CashOutPlayer(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.SessionResponse{Status: "success", Session: session})
}

func (h *Handler) EditCashOut(c *gin.Context) {
	var req models.EditCashOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	session, err := h.svc.EditCashOut(c.Request.Context(), userID(c), c.Param("id"), c.Param("cashOutId"), req.AmountCents)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SessionResponse{Status: "success", Session: session})
}

// Settlement handlers
func (h *Handler) FinalizeSession(c *gin.Context) {
	var req models.FinalizeSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	session, err := h.svc.FinalizeSession(c.Request.Context(), userID(c), c.Param("id"), req.FinalStacksCents)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SessionResponse{Status: "success", Session: session})
}

func (h *Handler) GetSettlement(c *gin.Context) {
	settlement, err := h.svc.GetSettlement(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SettlementResponse{Status: "success", Settlement: settlement})
}

func (h *Handler) GetNets(c *gin.Context) {
	nets, err := h.svc.ComputeNets(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NetsResponse{Status: "success", Nets: nets})
}

func (h *Handler) GetVariance(c *gin.Context) {
	variance, within, err := h.svc.ComputeVariance(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.VarianceResponse{
		Status:          "success",
		VarianceCents:   variance,
		WithinTolerance: within,
	})
}

func (h *Handler) MarkTransactionPaid(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	var req models.MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	session, err := h.svc.MarkTransactionPaid(c.Request.Context(), userID(c), c.Param("id"), index, req.Paid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SessionResponse{Status: "success", Session: session})
}

// Import/export handlers
func (h *Handler) ExportSession(c *gin.Context) {
	data, err := h.svc.ExportSession(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

func (h *Handler) ImportSession(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	session, err := h.svc.ImportSession(c.Request.Context(), userID(c), raw)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.SessionResponse{Status: "success", Session: session})
}
