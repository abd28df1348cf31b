package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/domain/payment"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	buyerID = "11111111-1111-1111-1111-111111111111"
	otherID = "22222222-2222-2222-2222-222222222222"
)

func newOrderUsecase(r *TxReposMock, addresses *AddressRepoMock) *usecase.OrderUsecase {
	return newOrderUsecaseWithGateway(r, addresses, &GatewayMock{})
}

func newOrderUsecaseWithGateway(r *TxReposMock, addresses *AddressRepoMock, gw *GatewayMock) *usecase.OrderUsecase {
	return usecase.NewOrderUsecase(&TxManagerMock{Repos: r}, addresses, gw, testKeySecret, zap.NewNop())
}

func cardProof(gatewayOrderID, paymentID string) *usecase.PaymentProofInput {
	return &usecase.PaymentProofInput{
		GatewayOrderID: gatewayOrderID,
		PaymentID:      paymentID,
		Signature:      payment.Sign(testKeySecret, gatewayOrderID, paymentID),
	}
}

func shipTo() *model.ShippingAddress {
	return &model.ShippingAddress{Name: "Asha", Line1: "1 MG Road", City: "Pune", State: "MH", PostalCode: "411001", Country: "IN"}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// =====================
// CreateOrder 入力チェック
// =====================

func TestCreateOrder_EmptyItems(t *testing.T) {
	u := newOrderUsecase(newTxRepos(), &AddressRepoMock{})

	_, err := u.CreateOrder(context.Background(), buyerID, usecase.CreateOrderInput{
		ShippingAddress: shipTo(),
		PaymentMethod:   "COD",
	})
	he := requireHTTPError(t, err, http.StatusBadRequest)
	assert.Equal(t, "EMPTY_ORDER", he.Code)
}

func TestCreateOrder_MissingShippingInfo(t *testing.T) {
	u := newOrderUsecase(newTxRepos(), &AddressRepoMock{})
	items := []usecase.OrderItemInput{{ProductID: "p1", Quantity: 1}}

	_, err := u.CreateOrder(context.Background(), buyerID, usecase.CreateOrderInput{Items: items, ShippingAddress: shipTo()})
	he := requireHTTPError(t, err, http.StatusBadRequest)
	assert.Equal(t, "MISSING_SHIPPING_INFO", he.Code)

	_, err = u.CreateOrder(context.Background(), buyerID, usecase.CreateOrderInput{Items: items, PaymentMethod: "COD"})
	he = requireHTTPError(t, err, http.StatusBadRequest)
	assert.Equal(t, "MISSING_SHIPPING_INFO", he.Code)

	_, err = u.CreateOrder(context.Background(), buyerID, usecase.CreateOrderInput{
		Items:           items,
		PaymentMethod:   "COD",
		ShippingAddress: &model.ShippingAddress{City: "Pune"},
	})
	he = requireHTTPError(t, err, http.StatusBadRequest)
	assert.Equal(t, "MISSING_SHIPPING_INFO", he.Code)
}

func TestCreateOrder_InvalidPaymentMethod(t *testing.T) {
	u := newOrderUsecase(newTxRepos(), &AddressRepoMock{})

	_, err := u.CreateOrder(context.Background(), buyerID, usecase.CreateOrderInput{
		Items:           []usecase.OrderItemInput{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: shipTo(),
		PaymentMethod:   "PAYPAL",
	})
	requireHTTPError(t, err, http.StatusBadRequest)
}

// =====================
// CreateOrder 正常系
// =====================

func TestCreateOrder_COD_ComputesTotalServerSide(t *testing.T) {
	r := newTxRepos()
	u := newOrderUsecase(r, &AddressRepoMock{})
	ctx := context.Background()

	r.products.On("FindByID", mock.Anything, "p1").Return(model.Product{ID: "p1", Name: "Mug", Price: dec("10"), Stock: 5, IsActive: true}, nil)
	r.inventory.On("DecreaseStockIfEnough", mock.Anything, "p1", int64(2)).Return(true, nil).Once()
	r.orders.On("Create", mock.Anything, mock.MatchedBy(func(o *model.Order) bool {
		return o.TotalPrice.Equal(dec("20")) &&
			o.Status == model.OrderStatusPending &&
			o.PaymentStatus == model.PaymentStatusUnpaid &&
			o.PaymentMethod == model.PaymentMethodCOD &&
			o.PaymentID == nil
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Order).ID = "order-1"
	}).Return(nil).Once()
	r.orderItems.On("CreateBulk", mock.Anything, "order-1", mock.MatchedBy(func(items []model.OrderItem) bool {
		return len(items) == 1 && items[0].Quantity == 2 && items[0].UnitPriceSnapshot.Equal(dec("10")) && items[0].ProductNameSnapshot == "Mug"
	})).Return(nil).Once()
	r.carts.On("FindActiveByUserID", mock.Anything, buyerID).Return(model.Cart{ID: "cart-1"}, nil)
	r.carts.On("Clear", mock.Anything, "cart-1").Return(nil).Once()

	clientTotal := dec("999")
	clientPrice := dec("1")
	out, err := u.CreateOrder(ctx, buyerID, usecase.CreateOrderInput{
		Items:           []usecase.OrderItemInput{{ProductID: "p1", Quantity: 2, Price: &clientPrice}},
		TotalPrice:      &clientTotal,
		ShippingAddress: shipTo(),
		PaymentMethod:   "cod",
	})
	require.NoError(t, err)
	assert.Equal(t, "order-1", out.ID)
	assert.True(t, out.TotalPrice.Equal(dec("20")))
	require.Len(t, out.Items, 1)
	assert.True(t, out.Items[0].Price.Equal(dec("10")))

	r.orders.AssertExpectations(t)
	r.orderItems.AssertExpectations(t)
	r.carts.AssertExpectations(t)
	r.inventory.AssertExpectations(t)
}

func TestCreateOrder_MergesDuplicateProducts(t *testing.T) {
	r := newTxRepos()
	u := newOrderUsecase(r, &AddressRepoMock{})

	r.products.On("FindByID", mock.Anything, "p1").Return(model.Product{ID: "p1", Name: "Mug", Price: dec("2.50"), Stock: 10, IsActive: true}, nil)
	r.inventory.On("DecreaseStockIfEnough", mock.Anything, "p1", int64(3)).Return(true, nil).Once()
	r.orders.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Order).ID = "order-2"
	}).Return(nil)
	r.orderItems.On("CreateBulk", mock.Anything, "order-2", mock.Anything).Return(nil)
	r.carts.On("FindActiveByUserID", mock.Anything, buyerID).Return(nil, repo.ErrNotFound)

	out, err := u.CreateOrder(context.Background(), buyerID, usecase.CreateOrderInput{
		Items:           []usecase.OrderItemInput{{ProductID: "p1", Quantity: 1}, {ProductID: "p1", Quantity: 2}},
		ShippingAddress: shipTo(),
		PaymentMethod:   "COD",
	})
	require.NoError(t, err)
	assert.True(t, out.TotalPrice.Equal(dec("7.50")))
	r.carts.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
}

func TestCreateOrder_OutOfStock(t *testing.T) {
	r := newTxRepos()
	u := newOrderUsecase(r, &AddressRepoMock{})

	r.products.On("FindByID", mock.Anything, "p1").Return(model.Product{ID: "p1", Name: "Mug", Price: dec("10"), Stock: 1, IsActive: true}, nil)
	r.inventory.On("DecreaseStockIfEnough", mock.Anything, "p1", int64(5)).Return(false, nil)

	_, err := u.CreateOrder(context.Background(), buyerID, usecase.CreateOrderInput{
		Items:           []usecase.OrderItemInput{{ProductID: "p1", Quantity: 5}},
		ShippingAddress: shipTo(),
		PaymentMethod:   "COD",
	})
	he := requireHTTPError(t, err, http.StatusBadRequest)
	assert.Equal(t, "OUT_OF_STOCK", he.Code)
	r.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateOrder_InactiveProductIsNotFound(t *testing.T) {
	r := newTxRepos()
	u := newOrderUsecase(r, &AddressRepoMock{})

	r.products.On("FindByID", mock.Anything, "p1").Return(model.Product{ID: "p1", IsActive: false}, nil)

	_, err := u.CreateOrder(context.Background(), buyerID, usecase.CreateOrderInput{
		Items:           []usecase.OrderItemInput{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: shipTo(),
		PaymentMethod:   "COD",
	})
	requireHTTPError(t, err, http.StatusNotFound)
	r.inventory.AssertNotCalled(t, "DecreaseStockIfEnough", mock.Anything, mock.Anything, mock.Anything)
}

// =====================
// CARD/UPI
// =====================

func TestCreateOrder_CardRequiresVerifiedPayment(t *testing.T) {
	r := newTxRepos()
	u := newOrderUsecase(r, &AddressRepoMock{})
	items := []usecase.OrderItemInput{{ProductID: "p1", Quantity: 1}}

	_, err := u.CreateOrder(context.Background(), buyerID, usecase.CreateOrderInput{
		Items: items, ShippingAddress: shipTo(), PaymentMethod: "CARD",
	})
	he := requireHTTPError(t, err, http.StatusBadRequest)
	assert.Equal(t, "PAYMENT_NOT_VERIFIED", he.Code)

	_, err = u.CreateOrder(context.Background(), buyerID, usecase.CreateOrderInput{
		Items: items, ShippingAddress: shipTo(), PaymentMethod: "UPI",
		Payment: &usecase.PaymentProofInput{
			GatewayOrderID: "order_1",
			PaymentID:      "pay_1",
			Signature:      payment.Sign("not-the-secret", "order_1", "pay_1"),
		},
	})
	he = requireHTTPError(t, err, http.StatusBadRequest)
	assert.Equal(t, "PAYMENT_NOT_VERIFIED", he.Code)

	r.products.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	r.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateOrder_VerifiedCardOrderIsPaid(t *testing.T) {
	r := newTxRepos()
	gw := &GatewayMock{}
	u := newOrderUsecaseWithGateway(r, &AddressRepoMock{}, gw)

	gw.On("FetchPayment", mock.Anything, "pay_1").
		Return(payment.Payment{ID: "pay_1", OrderID: "order_1", Amount: 1000, Status: payment.StatusCaptured}, nil).Once()
	r.orders.On("FindByPaymentID", mock.Anything, "pay_1").Return(nil, false, nil)
	r.products.On("FindByID", mock.Anything, "p1").Return(model.Product{ID: "p1", Name: "Mug", Price: dec("10"), Stock: 5, IsActive: true}, nil)
	r.inventory.On("DecreaseStockIfEnough", mock.Anything, "p1", int64(1)).Return(true, nil)
	r.orders.On("Create", mock.Anything, mock.MatchedBy(func(o *model.Order) bool {
		return o.PaymentStatus == model.PaymentStatusPaid &&
			o.PaymentID != nil && *o.PaymentID == "pay_1" &&
			o.GatewayOrderID != nil && *o.GatewayOrderID == "order_1"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Order).ID = "order-3"
	}).Return(nil).Once()
	r.orderItems.On("CreateBulk", mock.Anything, "order-3", mock.Anything).Return(nil)
	r.carts.On("FindActiveByUserID", mock.Anything, buyerID).Return(nil, repo.ErrNotFound)

	out, err := u.CreateOrder(context.Background(), buyerID, usecase.CreateOrderInput{
		Items:           []usecase.OrderItemInput{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: shipTo(),
		PaymentMethod:   "CARD",
		Payment:         cardProof("order_1", "pay_1"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, out.PaymentStatus)
	r.orders.AssertExpectations(t)
	gw.AssertExpectations(t)
}

func TestCreateOrder_PaidAmountMustMatchTotal(t *testing.T) {
	r := newTxRepos()
	gw := &GatewayMock{}
	u := newOrderUsecaseWithGateway(r, &AddressRepoMock{}, gw)

	//1.00の支払いで 100 x 1000.00 は買えない
	gw.On("FetchPayment", mock.Anything, "pay_cheap").
		Return(payment.Payment{ID: "pay_cheap", OrderID: "order_cheap", Amount: 100, Status: payment.StatusCaptured}, nil)
	r.orders.On("FindByPaymentID", mock.Anything, "pay_cheap").Return(nil, false, nil)
	r.products.On("FindByID", mock.Anything, "p1").Return(model.Product{ID: "p1", Name: "TV", Price: dec("1000.00"), Stock: 500, IsActive: true}, nil)
	r.inventory.On("DecreaseStockIfEnough", mock.Anything, "p1", int64(100)).Return(true, nil)

	_, err := u.CreateOrder(context.Background(), buyerID, usecase.CreateOrderInput{
		Items:           []usecase.OrderItemInput{{ProductID: "p1", Quantity: 100}},
		ShippingAddress: shipTo(),
		PaymentMethod:   "UPI",
		Payment:         cardProof("order_cheap", "pay_cheap"),
	})
	he := requireHTTPError(t, err, http.StatusBadRequest)
	assert.Equal(t, "PAYMENT_NOT_VERIFIED", he.Code)
	r.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateOrder_PaymentMustBelongToGatewayOrderAndBeSettled(t *testing.T) {
	cases := []struct {
		name string
		pay  payment.Payment
		err  error
		want int
	}{
		{"other gateway order", payment.Payment{ID: "pay_1", OrderID: "order_other", Amount: 1000, Status: payment.StatusCaptured}, nil, http.StatusBadRequest},
		{"failed payment", payment.Payment{ID: "pay_1", OrderID: "order_1", Amount: 1000, Status: "failed"}, nil, http.StatusBadRequest},
		{"unknown payment", payment.Payment{}, payment.ErrNotFound, http.StatusBadRequest},
		{"gateway down", payment.Payment{}, payment.ErrUnavailable, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTxRepos()
			gw := &GatewayMock{}
			u := newOrderUsecaseWithGateway(r, &AddressRepoMock{}, gw)

			gw.On("FetchPayment", mock.Anything, "pay_1").Return(tc.pay, tc.err)

			_, err := u.CreateOrder(context.Background(), buyerID, usecase.CreateOrderInput{
				Items:           []usecase.OrderItemInput{{ProductID: "p1", Quantity: 1}},
				ShippingAddress: shipTo(),
				PaymentMethod:   "CARD",
				Payment:         cardProof("order_1", "pay_1"),
			})
			requireHTTPError(t, err, tc.want)
			r.products.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
			r.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateOrder_SamePaymentReturnsExistingOrder(t *testing.T) {
	r := newTxRepos()
	gw := &GatewayMock{}
	u := newOrderUsecaseWithGateway(r, &AddressRepoMock{}, gw)
	in := usecase.CreateOrderInput{
		Items:           []usecase.OrderItemInput{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: shipTo(),
		PaymentMethod:   "UPI",
		Payment:         cardProof("order_1", "pay_1"),
	}

	gw.On("FetchPayment", mock.Anything, "pay_1").
		Return(payment.Payment{ID: "pay_1", OrderID: "order_1", Amount: 1000, Status: payment.StatusCaptured}, nil)
	r.orders.On("FindByPaymentID", mock.Anything, "pay_1").Return(model.Order{ID: "order-9", UserID: buyerID}, true, nil)
	r.orderItems.On("ListByOrderID", mock.Anything, "order-9").Return([]model.OrderItem{}, nil)

	out, err := u.CreateOrder(context.Background(), buyerID, in)
	require.NoError(t, err)
	assert.Equal(t, "order-9", out.ID)
	r.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	//他人の決済IDは使えない
	_, err = u.CreateOrder(context.Background(), otherID, in)
	requireHTTPError(t, err, http.StatusConflict)
}

// =====================
// addressId
// =====================

func TestCreateOrder_AddressOfAnotherUserIsForbidden(t *testing.T) {
	addresses := &AddressRepoMock{}
	u := newOrderUsecase(newTxRepos(), addresses)

	addresses.On("FindByID", mock.Anything, "addr-1").Return(model.Address{ID: "addr-1", UserID: otherID}, nil)

	_, err := u.CreateOrder(context.Background(), buyerID, usecase.CreateOrderInput{
		Items:         []usecase.OrderItemInput{{ProductID: "p1", Quantity: 1}},
		AddressID:     "addr-1",
		PaymentMethod: "COD",
	})
	requireHTTPError(t, err, http.StatusForbidden)
}

func TestCreateOrder_UnknownAddressIsNotFound(t *testing.T) {
	addresses := &AddressRepoMock{}
	u := newOrderUsecase(newTxRepos(), addresses)

	addresses.On("FindByID", mock.Anything, "addr-x").Return(nil, repo.ErrNotFound)

	_, err := u.CreateOrder(context.Background(), buyerID, usecase.CreateOrderInput{
		Items:         []usecase.OrderItemInput{{ProductID: "p1", Quantity: 1}},
		AddressID:     "addr-x",
		PaymentMethod: "COD",
	})
	requireHTTPError(t, err, http.StatusNotFound)
}

// =====================
// 取得・キャンセル
// =====================

func TestGetOrder_Ownership(t *testing.T) {
	r := newTxRepos()
	u := newOrderUsecase(r, &AddressRepoMock{})

	r.orders.On("FindByID", mock.Anything, "order-1").Return(model.Order{ID: "order-1", UserID: buyerID}, nil)
	r.orderItems.On("ListByOrderID", mock.Anything, "order-1").Return([]model.OrderItem{}, nil)

	_, err := u.GetOrder(context.Background(), buyerID, model.RoleUser, "order-1")
	require.NoError(t, err)

	_, err = u.GetOrder(context.Background(), otherID, model.RoleUser, "order-1")
	requireHTTPError(t, err, http.StatusForbidden)

	_, err = u.GetOrder(context.Background(), otherID, model.RoleAdmin, "order-1")
	require.NoError(t, err)
}

func TestCancelMyOrder_OnlyPendingOrProcessing(t *testing.T) {
	for _, st := range []model.OrderStatus{model.OrderStatusShipped, model.OrderStatusDelivered, model.OrderStatusCancelled, model.OrderStatusReturned} {
		r := newTxRepos()
		u := newOrderUsecase(r, &AddressRepoMock{})
		r.orders.On("FindByIDForUpdate", mock.Anything, "order-1").Return(model.Order{ID: "order-1", UserID: buyerID, Status: st}, nil)

		_, err := u.CancelMyOrder(context.Background(), buyerID, "order-1")
		he := requireHTTPError(t, err, http.StatusBadRequest)
		assert.Equal(t, "ORDER_NOT_CANCELLABLE", he.Code, st)
		r.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestCancelMyOrder_RestoresStock(t *testing.T) {
	r := newTxRepos()
	u := newOrderUsecase(r, &AddressRepoMock{})

	r.orders.On("FindByIDForUpdate", mock.Anything, "order-1").
		Return(model.Order{ID: "order-1", UserID: buyerID, Status: model.OrderStatusProcessing}, nil)
	r.orderItems.On("ListByOrderID", mock.Anything, "order-1").Return([]model.OrderItem{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
	}, nil)
	r.inventory.On("IncreaseStock", mock.Anything, "p1", int64(2)).Return(nil).Once()
	r.inventory.On("IncreaseStock", mock.Anything, "p2", int64(1)).Return(nil).Once()
	r.orders.On("UpdateStatus", mock.Anything, "order-1", model.OrderStatusCancelled).Return(nil).Once()

	out, err := u.CancelMyOrder(context.Background(), buyerID, "order-1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, out.Status)
	r.inventory.AssertExpectations(t)
	r.orders.AssertExpectations(t)
}

func TestCancelMyOrder_OtherUsersOrderIsForbidden(t *testing.T) {
	r := newTxRepos()
	u := newOrderUsecase(r, &AddressRepoMock{})

	r.orders.On("FindByIDForUpdate", mock.Anything, "order-1").
		Return(model.Order{ID: "order-1", UserID: otherID, Status: model.OrderStatusPending}, nil)

	_, err := u.CancelMyOrder(context.Background(), buyerID, "order-1")
	requireHTTPError(t, err, http.StatusForbidden)
}

func TestListMyOrders_Paging(t *testing.T) {
	r := newTxRepos()
	u := newOrderUsecase(r, &AddressRepoMock{})

	_, err := u.ListMyOrders(context.Background(), buyerID, 1, 101)
	requireHTTPError(t, err, http.StatusBadRequest)

	r.orders.On("ListByUserID", mock.Anything, buyerID, 2, 10).Return([]model.Order{{ID: "o1"}}, int64(11), nil)
	r.orderItems.On("ListByOrderID", mock.Anything, "o1").Return([]model.OrderItem{}, nil)

	out, err := u.ListMyOrders(context.Background(), buyerID, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(11), out.Total)
	assert.Len(t, out.Items, 1)
}
