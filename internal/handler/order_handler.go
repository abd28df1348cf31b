package handler

import (
	"net/http"

	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/policy"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type OrderItemRequest struct {
	ProductID string           `json:"productId" validate:"required,uuid"`
	Quantity  int64            `json:"quantity" validate:"required,gte=1"`
	Price     *decimal.Decimal `json:"price"`
}

type PaymentProofRequest struct {
	GatewayOrderID string `json:"gatewayOrderId"`
	PaymentID      string `json:"paymentId"`
	Signature      string `json:"signature"`
}

// POST /orders の入力。itemsが空などは usecase 側で業務エラーにする
type CreateOrderRequest struct {
	Items           []OrderItemRequest     `json:"items" validate:"max=100,dive"`
	TotalPrice      *decimal.Decimal       `json:"totalPrice"`
	ShippingAddress *model.ShippingAddress `json:"shippingAddress"`
	AddressID       string                 `json:"addressId" validate:"omitempty,uuid"`
	PaymentMethod   string                 `json:"paymentMethod"`
	Payment         *PaymentProofRequest   `json:"payment"`
}

func (h *OrderHandler) RegisterRoutes(api *echo.Group, guards Guards) {
	place := guards.Require(policy.CapOrdersPlace)

	api.POST("/orders", h.create, place...)
	api.GET("/orders/user", h.listMine, place...)
	api.GET("/orders/:id", h.get, guards.Authenticated()...)
	api.PUT("/orders/:id/cancel", h.cancel, place...)
}

func (h *OrderHandler) create(c echo.Context) error {
	var req CreateOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := usecase.CreateOrderInput{
		Items:           make([]usecase.OrderItemInput, 0, len(req.Items)),
		TotalPrice:      req.TotalPrice,
		ShippingAddress: req.ShippingAddress,
		AddressID:       req.AddressID,
		PaymentMethod:   req.PaymentMethod,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, usecase.OrderItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	if req.Payment != nil {
		in.Payment = &usecase.PaymentProofInput{
			GatewayOrderID: req.Payment.GatewayOrderID,
			PaymentID:      req.Payment.PaymentID,
			Signature:      req.Payment.Signature,
		}
	}

	out, err := h.uc.CreateOrder(c.Request().Context(), middleware.UserID(c), in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, out)
}

func (h *OrderHandler) listMine(c echo.Context) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		return err
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), middleware.UserID(c), page, limit)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, out)
}

// 本人かorders:manageのみ
func (h *OrderHandler) get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	out, err := h.uc.GetOrder(c.Request().Context(), middleware.UserID(c), middleware.UserRole(c), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, out)
}

func (h *OrderHandler) cancel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	out, err := h.uc.CancelMyOrder(c.Request().Context(), middleware.UserID(c), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, out)
}
