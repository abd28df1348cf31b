package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type UserAdminUsecase struct {
	users     repo.UserRepository
	rtRepo    repo.RefreshTokenRepository
	orders    repo.OrderRepository
	products  repo.ProductRepository
	wishlists repo.WishlistRepository
	audit     repo.AuditLogRepository
	log       *zap.Logger
}

func NewUserAdminUsecase(
	users repo.UserRepository,
	rtRepo repo.RefreshTokenRepository,
	orders repo.OrderRepository,
	products repo.ProductRepository,
	wishlists repo.WishlistRepository,
	audit repo.AuditLogRepository,
	log *zap.Logger,
) *UserAdminUsecase {
	return &UserAdminUsecase{
		users:     users,
		rtRepo:    rtRepo,
		orders:    orders,
		products:  products,
		wishlists: wishlists,
		audit:     audit,
		log:       log,
	}
}

type UserListOutput struct {
	Items []UserDTO `json:"items"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

func (u *UserAdminUsecase) List(ctx context.Context, q repo.UserListQuery) (UserListOutput, error) {
	if q.Page < 1 {
		return UserListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if q.Limit < 1 || q.Limit > 100 {
		return UserListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	q.Search = strings.TrimSpace(q.Search)

	users, total, err := u.users.List(ctx, q)
	if err != nil {
		return UserListOutput{}, internalError(err)
	}

	items := make([]UserDTO, 0, len(users))
	for i := range users {
		items = append(items, toUserDTO(&users[i]))
	}
	return UserListOutput{Items: items, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

func (u *UserAdminUsecase) Get(ctx context.Context, userID string) (UserDTO, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return UserDTO{}, repoError(err, "user not found")
	}
	return toUserDTO(user), nil
}

// Block は即時ログアウトさせる（token version +1、refresh全削除）
func (u *UserAdminUsecase) Block(ctx context.Context, actorAdminUserID, userID string) (UserDTO, error) {
	return u.setActive(ctx, actorAdminUserID, userID, false)
}

func (u *UserAdminUsecase) Unblock(ctx context.Context, actorAdminUserID, userID string) (UserDTO, error) {
	return u.setActive(ctx, actorAdminUserID, userID, true)
}

func (u *UserAdminUsecase) setActive(ctx context.Context, actorAdminUserID, userID string, active bool) (UserDTO, error) {
	if actorAdminUserID == "" {
		return UserDTO{}, ErrUnauthorized
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return UserDTO{}, repoError(err, "user not found")
	}
	//管理者はブロックできない
	if !active && user.Role == model.RoleAdmin {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "cannot block an admin user")
	}
	if user.IsActive == active {
		return toUserDTO(user), nil
	}

	if err := u.users.SetActive(ctx, userID, active); err != nil {
		return UserDTO{}, repoError(err, "user not found")
	}

	action := model.AuditActionUnblockUser
	if !active {
		action = model.AuditActionBlockUser
		if err := u.users.IncrementTokenVersion(ctx, userID); err != nil {
			return UserDTO{}, internalError(err)
		}
		if err := u.rtRepo.DeleteAllByUserID(ctx, userID); err != nil {
			return UserDTO{}, internalError(err)
		}
	}

	if err := u.audit.Create(ctx, model.AuditLog{
		ActorUserID:  actorAdminUserID,
		Action:       action,
		ResourceType: model.AuditResourceUser,
		ResourceID:   userID,
		BeforeJSON:   fmt.Sprintf(`{"isActive":%t}`, user.IsActive),
		AfterJSON:    fmt.Sprintf(`{"isActive":%t}`, active),
		CreatedAt:    time.Now(),
	}); err != nil {
		return UserDTO{}, internalError(err)
	}

	u.log.Info("user active flag changed",
		zap.String("user_id", userID),
		zap.Bool("active", active),
		zap.String("actor", actorAdminUserID))

	user.IsActive = active
	return toUserDTO(user), nil
}

type AdminStatsOutput struct {
	TotalUsers    int64           `json:"totalUsers"`
	TotalOrders   int64           `json:"totalOrders"`
	TotalProducts int64           `json:"totalProducts"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	RecentOrders  []OrderOutput   `json:"recentOrders"`
}

const recentOrdersLimit = 5

// 売上は配達済みの注文だけ
func (u *UserAdminUsecase) Stats(ctx context.Context) (AdminStatsOutput, error) {
	var out AdminStatsOutput
	var err error

	if out.TotalUsers, err = u.users.Count(ctx); err != nil {
		return AdminStatsOutput{}, internalError(err)
	}
	if out.TotalOrders, err = u.orders.Count(ctx); err != nil {
		return AdminStatsOutput{}, internalError(err)
	}
	if out.TotalProducts, err = u.products.CountActive(ctx); err != nil {
		return AdminStatsOutput{}, internalError(err)
	}
	if out.TotalRevenue, err = u.orders.SumTotalByStatus(ctx, model.OrderStatusDelivered); err != nil {
		return AdminStatsOutput{}, internalError(err)
	}

	recent, _, err := u.orders.ListAdmin(ctx, repo.AdminOrderListFilter{Page: 1, Limit: recentOrdersLimit})
	if err != nil {
		return AdminStatsOutput{}, internalError(err)
	}
	out.RecentOrders = summaries(recent)
	return out, nil
}

type UserDashboardOutput struct {
	User          UserDTO       `json:"user"`
	RecentOrders  []OrderOutput `json:"recentOrders"`
	WishlistCount int64         `json:"wishlistCount"`
	OrderCount    int64         `json:"orderCount"`
}

func (u *UserAdminUsecase) UserDashboard(ctx context.Context, userID string) (UserDashboardOutput, error) {
	if userID == "" {
		return UserDashboardOutput{}, ErrUnauthorized
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return UserDashboardOutput{}, repoError(err, "user not found")
	}

	recent, total, err := u.orders.ListByUserID(ctx, userID, 1, recentOrdersLimit)
	if err != nil {
		return UserDashboardOutput{}, internalError(err)
	}
	wl, err := u.wishlists.CountByUserID(ctx, userID)
	if err != nil {
		return UserDashboardOutput{}, internalError(err)
	}

	return UserDashboardOutput{
		User:          toUserDTO(user),
		RecentOrders:  summaries(recent),
		WishlistCount: wl,
		OrderCount:    total,
	}, nil
}

// 明細なしの一覧用
func summaries(orders []model.Order) []OrderOutput {
	out := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderOutput(o, nil))
	}
	return out
}

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

func (u *UserAdminUsecase) AuditLogs(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	if f.Limit <= 0 {
		f.Limit = defaultAuditLimit
	}
	if f.Limit > maxAuditLimit {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Offset < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedFrom.After(*f.CreatedTo) {
		return nil, NewHTTPError(http.StatusBadRequest, "from must be before to")
	}

	logs, err := u.audit.List(ctx, f)
	if err != nil {
		return nil, internalError(err)
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return logs, nil
}
