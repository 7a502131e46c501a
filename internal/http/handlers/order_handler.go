// README: Order handlers for booking, queries, and status transitions.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gswash/internal/geocode"
	"gswash/internal/http/middleware"
	"gswash/internal/modules/order"
	"gswash/internal/modules/pricing"
	"gswash/internal/types"
)

type OrderHandler struct {
	order   *order.Service
	pricing *pricing.Service // nil when no catalog database is configured
	geocode *geocode.Service // nil when the collaborator is not configured
}

func NewOrderHandler(svc *order.Service, catalog *pricing.Service, geo *geocode.Service) *OrderHandler {
	return &OrderHandler{order: svc, pricing: catalog, geocode: geo}
}

type createOrderReq struct {
	ServiceType      string  `json:"service_type"`
	ServicePackageID string  `json:"service_package_id"`
	VehicleMake      string  `json:"vehicle_make"`
	VehicleModel     string  `json:"vehicle_model"`
	VehiclePlateLast string  `json:"vehicle_plate_last"`
	VehicleColor     string  `json:"vehicle_color"`
	Area             string  `json:"area"`
	Block            string  `json:"block"`
	Street           string  `json:"street"`
	Notes            string  `json:"notes"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	OriginalPrice    float64 `json:"original_price"`
	DiscountApplied  float64 `json:"discount_applied"`
	PaymentMethod    string  `json:"payment_method"`
	Source           string  `json:"source"`
	ReferralCode     string  `json:"referral_code"`
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "validation", "invalid json")
		return
	}

	serviceType := req.ServiceType
	if req.ServicePackageID != "" && req.OriginalPrice == 0 && h.pricing != nil {
		q, err := h.pricing.QuoteFor(c.Request.Context(), req.ServicePackageID)
		if err != nil {
			writeError(c, http.StatusBadRequest, "validation", "unknown service package")
			return
		}
		req.OriginalPrice = q.OriginalPrice
		req.DiscountApplied = q.DiscountApplied
		if serviceType == "" {
			serviceType = q.ServiceType
		}
	}

	notes := req.Notes
	if notes == "" && h.geocode != nil && (req.Lat != 0 || req.Lng != 0) {
		// Best-effort: a failed lookup never blocks a booking.
		if addr, err := h.geocode.ReverseGeocode(c.Request.Context(), req.Lat, req.Lng); err == nil {
			notes = addr
		}
	}

	o, err := h.order.Create(c.Request.Context(), order.CreateCommand{
		CustomerID:       middleware.CallerIdentity(c).CustomerID,
		ServiceType:      serviceType,
		ServicePackageID: req.ServicePackageID,
		Vehicle: order.VehicleInfo{
			Make:      req.VehicleMake,
			Model:     req.VehicleModel,
			PlateLast: req.VehiclePlateLast,
			Color:     req.VehicleColor,
		},
		Address: order.Address{
			Area:   req.Area,
			Block:  req.Block,
			Street: req.Street,
			Notes:  notes,
		},
		OriginalPrice:   req.OriginalPrice,
		DiscountApplied: req.DiscountApplied,
		PaymentMethod:   req.PaymentMethod,
		Source:          req.Source,
		ReferralCode:    req.ReferralCode,
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, o)
}

func (h *OrderHandler) Get(c *gin.Context) {
	o, err := h.order.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeOrderError(c, err)
		return
	}
	if !canView(middleware.CallerIdentity(c), o) {
		writeError(c, http.StatusForbidden, "forbidden", "not your order")
		return
	}
	writeJSON(c, http.StatusOK, o)
}

// List returns the caller's orders, newest first, narrowed by the
// filter query param (all/active/completed/cancelled).
func (h *OrderHandler) List(c *gin.Context) {
	ident := middleware.CallerIdentity(c)
	orders, err := h.order.List(c.Request.Context(), ident.CustomerID, order.ParseFilter(c.Query("filter")))
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"orders": orders})
}

func (h *OrderHandler) LastCompleted(c *gin.Context) {
	ident := middleware.CallerIdentity(c)
	o, err := h.order.LastCompleted(c.Request.Context(), ident.CustomerID)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, o)
}

type assignReq struct {
	DriverID   string `json:"driver_id"`
	DriverName string `json:"driver_name"`
}

func (h *OrderHandler) Assign(c *gin.Context) {
	var req assignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "validation", "invalid json")
		return
	}
	o, err := h.order.Assign(c.Request.Context(), order.AssignCommand{
		OrderID:    c.Param("id"),
		DriverID:   types.ID(req.DriverID),
		DriverName: req.DriverName,
		Actor:      middleware.CallerIdentity(c),
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, o)
}

func (h *OrderHandler) Depart(c *gin.Context) {
	o, err := h.order.Depart(c.Request.Context(), order.DepartCommand{
		OrderID: c.Param("id"),
		Actor:   middleware.CallerIdentity(c),
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, o)
}

func (h *OrderHandler) Start(c *gin.Context) {
	o, err := h.order.Start(c.Request.Context(), order.StartCommand{
		OrderID: c.Param("id"),
		Actor:   middleware.CallerIdentity(c),
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, o)
}

func (h *OrderHandler) Complete(c *gin.Context) {
	o, err := h.order.Complete(c.Request.Context(), order.CompleteCommand{
		OrderID: c.Param("id"),
		Actor:   middleware.CallerIdentity(c),
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, o)
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	var req cancelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "validation", "invalid json")
		return
	}
	ident := middleware.CallerIdentity(c)
	actorType := "customer"
	if ident.CanOperate() {
		actorType = "operator"
	}
	actor := ident.CustomerID
	o, err := h.order.Cancel(c.Request.Context(), order.CancelCommand{
		OrderID:   c.Param("id"),
		Reason:    req.Reason,
		ActorType: actorType,
		ActorID:   &actor,
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, o)
}

type payReq struct {
	Method string `json:"method"`
}

func (h *OrderHandler) Pay(c *gin.Context) {
	var req payReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "validation", "invalid json")
		return
	}
	o, err := h.order.SetPaid(c.Request.Context(), order.PayCommand{
		OrderID: c.Param("id"),
		Method:  req.Method,
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, o)
}

// Packages lists the bookable service packages.
func (h *OrderHandler) Packages(c *gin.Context) {
	if h.pricing == nil {
		writeJSON(c, http.StatusOK, gin.H{"packages": []pricing.Package{}})
		return
	}
	pkgs, err := h.pricing.List(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal", "catalog unavailable")
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"packages": pkgs})
}

func canView(ident types.Identity, o order.Order) bool {
	return ident.CanOperate() || ident.CustomerID == o.CustomerID
}
