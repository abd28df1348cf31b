package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

type AdminOrderUsecase struct {
	tx  repo.TransactionManager
	log *zap.Logger
}

func NewAdminOrderUsecase(tx repo.TransactionManager, log *zap.Logger) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, log: log}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (OrderListOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" {
		st, ok := model.ParseOrderStatus(f.Status)
		if !ok {
			return OrderListOutput{}, ErrInvalidStatus
		}
		f.Status = string(st)
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "from must be before to")
	}

	out := OrderListOutput{Page: f.Page, Limit: f.Limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
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

// UpdateStatus は管理者による任意の遷移。在庫を持つ/持たない状態をまたぐときは在庫も動かす
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID string, orderID string, in AdminUpdateOrderStatusInput) (OrderOutput, error) {
	if actorAdminUserID == "" {
		return OrderOutput{}, ErrUnauthorized
	}
	if strings.TrimSpace(orderID) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus, ok := model.ParseOrderStatus(in.Status)
	if !ok {
		return OrderOutput{}, ErrInvalidStatus
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 注文取得（行ロック）
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return repoError(err, "order not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return internalError(err)
		}

		// すでに同じなら何もしない
		if o.Status == newStatus {
			out = toOrderOutput(o, items)
			return nil
		}

		if !o.Status.IsForwardTo(newStatus) {
			u.log.Warn("non-standard order status transition",
				zap.String("order_id", orderID),
				zap.String("from", string(o.Status)),
				zap.String("to", string(newStatus)),
				zap.String("actor", actorAdminUserID))
		}

		switch {
		case o.Status.HoldsStock() && !newStatus.HoldsStock():
			//在庫戻し
			for _, it := range items {
				if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
					return internalError(err)
				}
			}
		case !o.Status.HoldsStock() && newStatus.HoldsStock():
			//取り消した注文を戻すときは再度引き当てる
			for _, it := range items {
				ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
				if err != nil {
					return internalError(err)
				}
				if !ok {
					return &HTTPError{Status: ErrOutOfStock.Status, Code: ErrOutOfStock.Code, Message: "out of stock: " + it.ProductNameSnapshot}
				}
			}
		}

		// ステータス更新
		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			return repoError(err, "order not found")
		}

		//監査ログ（UPDATE_ORDER_STATUS）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   fmt.Sprintf(`{"status":%q}`, o.Status),
			AfterJSON:    fmt.Sprintf(`{"status":%q}`, newStatus),
			CreatedAt:    time.Now(),
		}); err != nil {
			return internalError(err)
		}

		o.Status = newStatus
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 期間パラメータ（空なら nil）
func ParseDateTimeRFC3339(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid datetime: "+s)
	}
	return &t, nil
}
