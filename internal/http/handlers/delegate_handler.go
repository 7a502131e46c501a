// README: Delegate availability, device token, and loyalty rate handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gswash/internal/http/middleware"
	"gswash/internal/modules/delegate"
	"gswash/internal/modules/loyalty"
	"gswash/internal/notify"
)

type DelegateHandler struct {
	delegate *delegate.Service
	notify   *notify.Service // nil when FCM is not configured
	loyalty  *loyalty.Store
}

func NewDelegateHandler(d *delegate.Service, n *notify.Service, l *loyalty.Store) *DelegateHandler {
	return &DelegateHandler{delegate: d, notify: n, loyalty: l}
}

func (h *DelegateHandler) Heartbeat(c *gin.Context) {
	ident := middleware.CallerIdentity(c)
	if err := h.delegate.Heartbeat(c.Request.Context(), ident.CustomerID); err != nil {
		writeError(c, http.StatusInternalServerError, "internal", "heartbeat failed")
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"available": true})
}

func (h *DelegateHandler) Withdraw(c *gin.Context) {
	ident := middleware.CallerIdentity(c)
	if err := h.delegate.Withdraw(c.Request.Context(), ident.CustomerID); err != nil {
		writeError(c, http.StatusInternalServerError, "internal", "withdraw failed")
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"available": false})
}

func (h *DelegateHandler) ListAvailable(c *gin.Context) {
	ids, err := h.delegate.ListAvailable(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal", "list failed")
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"delegates": ids})
}

type deviceTokenReq struct {
	Token string `json:"token"`
}

// RegisterDevice stores the caller's FCM token for status-change pushes.
func (h *DelegateHandler) RegisterDevice(c *gin.Context) {
	if h.notify == nil {
		writeError(c, http.StatusNotImplemented, "unavailable", "push not configured")
		return
	}
	var req deviceTokenReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		writeError(c, http.StatusBadRequest, "validation", "token required")
		return
	}
	ident := middleware.CallerIdentity(c)
	if err := h.notify.RegisterToken(c.Request.Context(), ident.CustomerID, req.Token); err != nil {
		writeError(c, http.StatusInternalServerError, "internal", "register failed")
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"registered": true})
}

type loyaltyRateReq struct {
	Rate int `json:"rate"`
}

// SetLoyaltyRate hot-reloads points-per-currency-unit; superAdmin only.
func (h *DelegateHandler) SetLoyaltyRate(c *gin.Context) {
	if !middleware.CallerIdentity(c).SuperAdmin {
		writeError(c, http.StatusForbidden, "forbidden", "superAdmin capability required")
		return
	}
	var req loyaltyRateReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Rate <= 0 {
		writeError(c, http.StatusBadRequest, "validation", "positive rate required")
		return
	}
	if err := h.loyalty.SetRate(c.Request.Context(), req.Rate); err != nil {
		writeError(c, http.StatusInternalServerError, "internal", "rate update failed")
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"rate": req.Rate})
}
