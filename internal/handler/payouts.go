package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"rumble/internal/payout"
)

type PayoutHandler struct {
	Reconciler *payout.Reconciler
}

func (h *PayoutHandler) Register(r *gin.Engine) {
	p := r.Group("/api/v1/payouts")
	p.GET("/:wallet", h.snapshot)
}

// @Summary Wallet payout snapshot
// @Tags payouts
// @Param wallet path string true "base58 wallet address"
// @Param limit query int false "candidate match window"
// @Success 200 {object} payout.WalletPayoutSnapshot
// @Router /api/v1/payouts/{wallet} [get]
func (h *PayoutHandler) snapshot(c *gin.Context) {
	if h.Reconciler == nil {
		Error(c, http.StatusInternalServerError, "reconciler unavailable", nil)
		return
	}

	wallet := strings.TrimSpace(c.Param("wallet"))
	if wallet == "" {
		Error(c, http.StatusBadRequest, "wallet required", nil)
		return
	}

	limit := -1
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			Error(c, http.StatusBadRequest, "invalid limit", nil)
			return
		}
		limit = v
	}

	snap, err := h.Reconciler.Snapshot(c.Request.Context(), wallet, limit)
	if err != nil {
		var systemic *payout.SystemicError
		switch {
		case errors.Is(err, payout.ErrInvalidWallet):
			Error(c, http.StatusBadRequest, "invalid wallet address", nil)
		case errors.As(err, &systemic):
			Error(c, http.StatusServiceUnavailable, "snapshot temporarily unavailable", retryMeta())
		default:
			Error(c, http.StatusBadGateway, err.Error(), nil)
		}
		return
	}
	Ok(c, snap, nil)
}
