package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/domain/payment"
	"storefront/internal/policy"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderUsecase struct {
	tx        repo.TransactionManager
	addresses repo.AddressRepository
	// CARD/UPIの支払い照会
	gateway payment.Gateway
	// 決済署名の検証用
	keySecret string
	log       *zap.Logger
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	addresses repo.AddressRepository,
	gateway payment.Gateway,
	keySecret string,
	log *zap.Logger,
) *OrderUsecase {
	return &OrderUsecase{tx: tx, addresses: addresses, gateway: gateway, keySecret: keySecret, log: log}
}

type OrderItemInput struct {
	ProductID string
	Quantity  int64
	// クライアントが見ていた価格（照合してログに出すだけ）
	Price *decimal.Decimal
}

// CARD/UPIのときの決済結果
type PaymentProofInput struct {
	GatewayOrderID string
	PaymentID      string
	Signature      string
}

type CreateOrderInput struct {
	Items           []OrderItemInput
	TotalPrice      *decimal.Decimal
	ShippingAddress *model.ShippingAddress
	AddressID       string
	PaymentMethod   string
	Payment         *PaymentProofInput
}

type OrderItemOutput struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
}

type OrderOutput struct {
	ID              string                `json:"id"`
	UserID          string                `json:"userId"`
	Status          model.OrderStatus     `json:"status"`
	PaymentStatus   model.PaymentStatus   `json:"paymentStatus"`
	PaymentMethod   model.PaymentMethod   `json:"paymentMethod"`
	TotalPrice      decimal.Decimal       `json:"totalPrice"`
	ShippingAddress model.ShippingAddress `json:"shippingAddress"`
	GatewayOrderID  *string               `json:"gatewayOrderId"`
	PaymentID       *string               `json:"paymentId"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
	Items           []OrderItemOutput     `json:"items"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// CreateOrder は在庫引当・注文作成・カートクリアを1トランザクションで行う
func (u *OrderUsecase) CreateOrder(ctx context.Context, userID string, in CreateOrderInput) (OrderOutput, error) {
	if userID == "" {
		return OrderOutput{}, ErrUnauthorized
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, ErrEmptyOrder
	}

	//同じ商品はまとめる（順序は最初に出てきた順）
	qtyByProduct := map[string]int64{}
	order := make([]string, 0, len(in.Items))
	clientPrice := map[string]decimal.Decimal{}
	for _, it := range in.Items {
		pid := strings.TrimSpace(it.ProductID)
		if pid == "" {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid productId")
		}
		if it.Quantity < 1 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
		}
		if _, seen := qtyByProduct[pid]; !seen {
			order = append(order, pid)
		}
		qtyByProduct[pid] += it.Quantity
		if it.Price != nil {
			clientPrice[pid] = *it.Price
		}
	}

	if strings.TrimSpace(in.PaymentMethod) == "" {
		return OrderOutput{}, ErrMissingShippingInfo
	}
	method, ok := model.ParsePaymentMethod(in.PaymentMethod)
	if !ok {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid paymentMethod")
	}

	shipping, err := u.resolveShipping(ctx, userID, in)
	if err != nil {
		return OrderOutput{}, err
	}

	//CARD/UPIは署名検証済みかつ支払い確定のときだけ作る
	var proof *PaymentProofInput
	var paid payment.Payment
	if method.RequiresGateway() {
		if in.Payment == nil ||
			strings.TrimSpace(in.Payment.GatewayOrderID) == "" ||
			strings.TrimSpace(in.Payment.PaymentID) == "" ||
			strings.TrimSpace(in.Payment.Signature) == "" {
			return OrderOutput{}, ErrPaymentNotVerified
		}
		if !payment.VerifyPaymentSignature(u.keySecret, in.Payment.GatewayOrderID, in.Payment.PaymentID, in.Payment.Signature) {
			u.log.Warn("order payment signature mismatch",
				zap.String("user_id", userID),
				zap.String("gateway_order_id", in.Payment.GatewayOrderID))
			return OrderOutput{}, ErrPaymentNotVerified
		}

		//ゲートウェイ呼び出しはトランザクションの外
		paid, err = u.fetchSettledPayment(ctx, userID, in.Payment)
		if err != nil {
			return OrderOutput{}, err
		}
		proof = in.Payment
	}

	var out OrderOutput

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//同じ決済で作成済みなら同じ注文を返す
		if proof != nil {
			existing, found, err := r.Orders().FindByPaymentID(ctx, proof.PaymentID)
			if err != nil {
				return internalError(err)
			}
			if found {
				if existing.UserID != userID {
					return newCodedError(http.StatusConflict, "CONFLICT", "payment already used")
				}
				items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
				if err != nil {
					return internalError(err)
				}
				out = toOrderOutput(existing, items)
				return nil
			}
		}

		orderItems := make([]model.OrderItem, 0, len(order))
		total := decimal.Zero

		for _, pid := range order {
			qty := qtyByProduct[pid]

			p, err := r.Products().FindByID(ctx, pid)
			if errors.Is(err, repo.ErrNotFound) {
				return newCodedError(http.StatusNotFound, "NOT_FOUND", "product not found")
			}
			if err != nil {
				return internalError(err)
			}
			if !p.IsActive {
				return newCodedError(http.StatusNotFound, "NOT_FOUND", "product not found")
			}

			//在庫減算（足りないなら false）
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, pid, qty)
			if err != nil {
				return internalError(err)
			}
			if !ok {
				return &HTTPError{Status: ErrOutOfStock.Status, Code: ErrOutOfStock.Code, Message: "out of stock: " + p.Name}
			}

			if cp, ok := clientPrice[pid]; ok && !cp.Equal(p.Price) {
				u.log.Info("client price differs from catalog",
					zap.String("product_id", pid),
					zap.String("client", cp.String()),
					zap.String("catalog", p.Price.String()))
			}

			//スナップショット
			orderItems = append(orderItems, model.OrderItem{
				ProductID:           pid,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   p.Price,
				Quantity:            qty,
			})
			total = total.Add(p.Price.Mul(decimal.NewFromInt(qty)))
		}

		//支払額は注文合計と一致していること
		if proof != nil && paid.Amount != payment.ToMinorUnits(total) {
			u.log.Warn("order payment amount mismatch",
				zap.String("user_id", userID),
				zap.String("payment_id", proof.PaymentID),
				zap.Int64("paid", paid.Amount),
				zap.Int64("expected", payment.ToMinorUnits(total)))
			return ErrPaymentNotVerified
		}

		if in.TotalPrice != nil && !in.TotalPrice.Equal(total) {
			u.log.Info("client total ignored",
				zap.String("user_id", userID),
				zap.String("client", in.TotalPrice.String()),
				zap.String("computed", total.String()))
		}

		o := model.Order{
			UserID:          userID,
			Status:          model.OrderStatusPending,
			PaymentStatus:   model.PaymentStatusUnpaid,
			TotalPrice:      total,
			ShippingAddress: shipping,
			PaymentMethod:   method,
		}
		if proof != nil {
			gid, pid := proof.GatewayOrderID, proof.PaymentID
			o.PaymentStatus = model.PaymentStatusPaid
			o.GatewayOrderID = &gid
			o.PaymentID = &pid
		}

		// 注文作成
		if err := r.Orders().Create(ctx, &o); err != nil {
			return repoError(err, "order not found")
		}

		//注文明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, o.ID, orderItems); err != nil {
			return internalError(err)
		}

		//カートは空にする（無ければ何もしない）
		cart, err := r.Carts().FindActiveByUserID(ctx, userID)
		switch {
		case errors.Is(err, repo.ErrNotFound):
		case err != nil:
			return internalError(err)
		default:
			if err := r.Carts().Clear(ctx, cart.ID); err != nil {
				return internalError(err)
			}
		}

		out = toOrderOutput(o, orderItems)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.log.Info("order created",
		zap.String("order_id", out.ID),
		zap.String("user_id", userID),
		zap.String("payment_method", string(method)),
		zap.String("total", out.TotalPrice.String()))
	return out, nil
}

// 支払いがそのgateway orderのもので、確保済みかを確認する
func (u *OrderUsecase) fetchSettledPayment(ctx context.Context, userID string, proof *PaymentProofInput) (payment.Payment, error) {
	p, err := u.gateway.FetchPayment(ctx, proof.PaymentID)
	if errors.Is(err, payment.ErrNotFound) {
		return payment.Payment{}, ErrPaymentNotVerified
	}
	if err != nil {
		return payment.Payment{}, &HTTPError{Status: ErrGatewayUnavailable.Status, Code: ErrGatewayUnavailable.Code, Message: ErrGatewayUnavailable.Message, Err: err}
	}
	if p.OrderID != proof.GatewayOrderID || !p.Settled() {
		u.log.Warn("order payment not settled",
			zap.String("user_id", userID),
			zap.String("payment_id", proof.PaymentID),
			zap.String("payment_order_id", p.OrderID),
			zap.String("status", p.Status))
		return payment.Payment{}, ErrPaymentNotVerified
	}
	return p, nil
}

// addressIdがあれば保存済み住所、無ければ入力の住所
func (u *OrderUsecase) resolveShipping(ctx context.Context, userID string, in CreateOrderInput) (model.ShippingAddress, error) {
	if id := strings.TrimSpace(in.AddressID); id != "" {
		addr, err := u.addresses.FindByID(ctx, id)
		if err != nil {
			return model.ShippingAddress{}, repoError(err, "address not found")
		}
		//所有チェック（他人の住所なら403）
		if addr.UserID != userID {
			return model.ShippingAddress{}, ErrForbidden
		}
		return addr.ToShipping(), nil
	}

	if in.ShippingAddress == nil || !in.ShippingAddress.IsComplete() {
		return model.ShippingAddress{}, ErrMissingShippingInfo
	}
	return *in.ShippingAddress, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID string, page, limit int) (OrderListOutput, error) {
	if userID == "" {
		return OrderListOutput{}, ErrUnauthorized
	}
	if page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	out := OrderListOutput{Page: page, Limit: limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return internalError(err)
		}
		items, err := withItems(ctx, r, orders)
		if err != nil {
			return err
		}
		out.Items = items
		out.Total = total
		return nil
	})
	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

// GetOrder は本人か注文管理の権限があれば返す
func (u *OrderUsecase) GetOrder(ctx context.Context, userID string, role model.Role, orderID string) (OrderOutput, error) {
	if userID == "" {
		return OrderOutput{}, ErrUnauthorized
	}
	if strings.TrimSpace(orderID) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return repoError(err, "order not found")
		}
		if o.UserID != userID && !policy.Allows(role, policy.CapOrdersManage) {
			return ErrForbidden
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return internalError(err)
		}
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// CancelMyOrder は本人がPENDING/PROCESSINGの注文を取り消す（在庫は戻す）
func (u *OrderUsecase) CancelMyOrder(ctx context.Context, userID string, orderID string) (OrderOutput, error) {
	if userID == "" {
		return OrderOutput{}, ErrUnauthorized
	}
	if strings.TrimSpace(orderID) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return repoError(err, "order not found")
		}
		//所有チェック
		if o.UserID != userID {
			return ErrForbidden
		}
		if !o.Status.CancellableByOwner() {
			return ErrOrderNotCancellable
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return internalError(err)
		}
		for _, it := range items {
			if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
				return internalError(err)
			}
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCancelled); err != nil {
			return repoError(err, "order not found")
		}

		o.Status = model.OrderStatusCancelled
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.log.Info("order cancelled by owner", zap.String("order_id", orderID), zap.String("user_id", userID))
	return out, nil
}

func withItems(ctx context.Context, r repo.TxRepos, orders []model.Order) ([]OrderOutput, error) {
	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return nil, internalError(err)
		}
		outs = append(outs, toOrderOutput(o, items))
	}
	return outs, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		Status:          o.Status,
		PaymentStatus:   o.PaymentStatus,
		PaymentMethod:   o.PaymentMethod,
		TotalPrice:      o.TotalPrice,
		ShippingAddress: o.ShippingAddress,
		GatewayOrderID:  o.GatewayOrderID,
		PaymentID:       o.PaymentID,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Items:           outItems,
	}
}
