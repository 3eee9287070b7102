package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"akwaabamarket.com/app/internal/http/middleware"
	"akwaabamarket.com/app/internal/http/validation"
	"akwaabamarket.com/app/internal/modules/events"
	"akwaabamarket.com/app/internal/modules/orders"
	"akwaabamarket.com/app/internal/modules/payments"
	"akwaabamarket.com/app/internal/shared/apperr"
	"akwaabamarket.com/app/pkg/view"
)

type OrdersHandler struct {
	Logger    *slog.Logger
	Repo      *orders.Repo
	OrderSvc  *orders.Service
	PaySvc    *payments.Service
	Publisher events.Publisher
	Currency  string
}

func NewOrdersHandler(logger *slog.Logger, db *gorm.DB, osvc *orders.Service, psvc *payments.Service, pub events.Publisher, currency string) *OrdersHandler {
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	return &OrdersHandler{
		Logger:    logger,
		Repo:      orders.NewRepo(db),
		OrderSvc:  osvc,
		PaySvc:    psvc,
		Publisher: pub,
		Currency:  currency,
	}
}

type createOrderItemInput struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type createOrderInput struct {
	Items []createOrderItemInput `json:"items" binding:"required,min=1,dive"`
}

// POST /api/orders
func (h *OrdersHandler) Create(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)

	var in createOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Order is invalid.", validation.FromBindError(err, &in)))
		return
	}

	lines := make([]orders.CreateOrderLine, 0, len(in.Items))
	for _, it := range in.Items {
		lines = append(lines, orders.CreateOrderLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	o, items, err := h.OrderSvc.CreateOrder(c.Request.Context(), orders.CreateOrderInput{
		UserID:        id.UserID,
		CustomerEmail: id.Email,
		Currency:      h.Currency,
		Lines:         lines,
	})
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrNoItems):
			middleware.Fail(c, apperr.InvalidErr("Order has no items.", nil))
		case errors.Is(err, orders.ErrProductNotFound):
			middleware.Fail(c, apperr.NotFoundErr("Product not found."))
		default:
			middleware.Fail(c, apperr.Wrap(err))
		}
		return
	}

	if perr := h.Publisher.PublishOrderEvent(c.Request.Context(), events.OrderEvent{
		OrderID:     o.ID,
		Type:        events.TypeOrderCreated,
		AmountCents: o.TotalCents,
		Currency:    o.Currency,
		Occurred:    time.Now(),
	}); perr != nil {
		h.Logger.Error("failed to publish order.created event", "order_id", o.ID, "err", perr)
	}

	c.JSON(http.StatusCreated, view.OrderDetailFrom(o, items))
}

// GET /api/orders/:id
func (h *OrdersHandler) Detail(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)

	o, items, err := h.Repo.GetWithItems(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.Fail(c, apperr.NotFoundErr("Order not found."))
		return
	}
	if o.UserID != id.UserID && !id.IsAdmin {
		middleware.Fail(c, apperr.ForbiddenErr("No access to this order."))
		return
	}

	c.JSON(http.StatusOK, view.OrderDetailFrom(o, items))
}

// GET /api/orders/mine
func (h *OrdersHandler) ListMine(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)
	h.list(c, id.UserID)
}

// GET /api/admin/orders
func (h *OrdersHandler) ListAll(c *gin.Context) {
	h.list(c, "")
}

func (h *OrdersHandler) list(c *gin.Context, userID string) {
	var q struct {
		Page     int `form:"page"`
		PageSize int `form:"page_size"`
	}
	_ = c.ShouldBindQuery(&q)

	res, err := h.Repo.List(c.Request.Context(), orders.ListParams{
		UserID:   userID,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	out := make([]view.OrderDetail, 0, len(res.Items))
	for _, o := range res.Items {
		out = append(out, view.OrderDetailFrom(o, nil))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out, "total": res.Total})
}

// GET /api/admin/orders/summary
func (h *OrdersHandler) Summary(c *gin.Context) {
	sum, err := h.Repo.Summary(c.Request.Context())
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_orders":     sum.TotalOrders,
		"paid_orders":      sum.PaidOrders,
		"paid_sales_cents": sum.PaidSalesCents,
		"paid_sales":       view.AmountFromCents(sum.PaidSalesCents),
	})
}

type payOrderInput struct {
	CallbackURL string `json:"callback_url" binding:"required,url"`
}

// POST /api/orders/:id/pay
func (h *OrdersHandler) Pay(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)

	var in payOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("callback_url is required.", validation.FromBindError(err, &in)))
		return
	}

	o, _, err := h.Repo.GetWithItems(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.Fail(c, apperr.NotFoundErr("Order not found."))
		return
	}
	if o.UserID != id.UserID && !id.IsAdmin {
		middleware.Fail(c, apperr.ForbiddenErr("No access to this order."))
		return
	}

	res, err := h.PaySvc.InitiatePayment(c.Request.Context(), payments.InitiateInput{
		OrderID:     o.ID,
		CallbackURL: in.CallbackURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrAlreadyPaid):
			middleware.Fail(c, apperr.ConflictErr("Order has been paid for."))
		case errors.Is(err, payments.ErrUpstream):
			middleware.Fail(c, apperr.BadGatewayErr("Payment provider is unavailable.", err))
		default:
			middleware.Fail(c, apperr.Wrap(err))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reference":         res.Reference,
		"authorization_url": res.AuthorizationURL,
		"access_code":       res.AccessCode,
		"order":             view.OrderDetailFrom(res.Order, nil),
	})
}

// PUT /api/admin/orders/:id/deliver
func (h *OrdersHandler) MarkDelivered(c *gin.Context) {
	orderID := c.Param("id")

	ok, err := h.Repo.MarkDelivered(c.Request.Context(), orderID)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	if !ok {
		// Either unknown order or already delivered; disambiguate.
		if _, _, gerr := h.Repo.GetWithItems(c.Request.Context(), orderID); gerr != nil {
			middleware.Fail(c, apperr.NotFoundErr("Order not found."))
			return
		}
	}

	o, items, err := h.Repo.GetWithItems(c.Request.Context(), orderID)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, view.OrderDetailFrom(o, items))
}
