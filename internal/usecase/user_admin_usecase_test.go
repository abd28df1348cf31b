package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type userAdminDeps struct {
	users     *UserRepoMock
	rt        *RefreshTokenRepoMock
	orders    *OrderRepoMock
	products  *ProductRepoMock
	wishlists *WishlistRepoMock
	audit     *AuditRepoMock
}

func newUserAdminUsecase() (*usecase.UserAdminUsecase, userAdminDeps) {
	d := userAdminDeps{
		users:     &UserRepoMock{},
		rt:        &RefreshTokenRepoMock{},
		orders:    &OrderRepoMock{},
		products:  &ProductRepoMock{},
		wishlists: &WishlistRepoMock{},
		audit:     &AuditRepoMock{},
	}
	u := usecase.NewUserAdminUsecase(d.users, d.rt, d.orders, d.products, d.wishlists, d.audit, zap.NewNop())
	return u, d
}

func TestBlock_AdminCannotBeBlocked(t *testing.T) {
	u, d := newUserAdminUsecase()

	d.users.On("FindByID", mock.Anything, "u-admin").Return(&model.User{ID: "u-admin", Role: model.RoleAdmin, IsActive: true}, nil)

	_, err := u.Block(context.Background(), adminID, "u-admin")
	requireHTTPError(t, err, http.StatusBadRequest)
	d.users.AssertNotCalled(t, "SetActive", mock.Anything, mock.Anything, mock.Anything)
}

func TestBlock_RevokesSessionsAndAudits(t *testing.T) {
	u, d := newUserAdminUsecase()

	d.users.On("FindByID", mock.Anything, buyerID).Return(&model.User{ID: buyerID, Role: model.RoleUser, IsActive: true}, nil)
	d.users.On("SetActive", mock.Anything, buyerID, false).Return(nil).Once()
	d.users.On("IncrementTokenVersion", mock.Anything, buyerID).Return(nil).Once()
	d.rt.On("DeleteAllByUserID", mock.Anything, buyerID).Return(nil).Once()
	d.audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionBlockUser && l.ResourceID == buyerID && l.AfterJSON == `{"isActive":false}`
	})).Return(nil).Once()

	out, err := u.Block(context.Background(), adminID, buyerID)
	require.NoError(t, err)
	assert.False(t, out.IsActive)
	d.users.AssertExpectations(t)
	d.rt.AssertExpectations(t)
	d.audit.AssertExpectations(t)
}

func TestUnblock_AlreadyActiveIsNoop(t *testing.T) {
	u, d := newUserAdminUsecase()

	d.users.On("FindByID", mock.Anything, buyerID).Return(&model.User{ID: buyerID, Role: model.RoleUser, IsActive: true}, nil)

	out, err := u.Unblock(context.Background(), adminID, buyerID)
	require.NoError(t, err)
	assert.True(t, out.IsActive)
	d.audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestStats(t *testing.T) {
	u, d := newUserAdminUsecase()

	d.users.On("Count", mock.Anything).Return(int64(12), nil)
	d.orders.On("Count", mock.Anything).Return(int64(30), nil)
	d.products.On("CountActive", mock.Anything).Return(int64(8), nil)
	d.orders.On("SumTotalByStatus", mock.Anything, model.OrderStatusDelivered).Return(dec("1234.50"), nil)
	d.orders.On("ListAdmin", mock.Anything, repo.AdminOrderListFilter{Page: 1, Limit: 5}).
		Return([]model.Order{{ID: "o1", Status: model.OrderStatusDelivered, TotalPrice: dec("100")}}, int64(1), nil)

	out, err := u.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), out.TotalUsers)
	assert.Equal(t, int64(30), out.TotalOrders)
	assert.Equal(t, int64(8), out.TotalProducts)
	assert.True(t, out.TotalRevenue.Equal(dec("1234.5")))
	require.Len(t, out.RecentOrders, 1)
	assert.Equal(t, "o1", out.RecentOrders[0].ID)
}

func TestAuditLogs_LimitBounds(t *testing.T) {
	u, d := newUserAdminUsecase()

	d.audit.On("List", mock.Anything, mock.MatchedBy(func(f repo.AuditLogFilter) bool { return f.Limit == 50 })).
		Return(nil, nil).Once()

	logs, err := u.AuditLogs(context.Background(), repo.AuditLogFilter{})
	require.NoError(t, err)
	assert.NotNil(t, logs)

	_, err = u.AuditLogs(context.Background(), repo.AuditLogFilter{Limit: 201})
	requireHTTPError(t, err, http.StatusBadRequest)
}
