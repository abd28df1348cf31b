// Package policy はロールごとに許可する操作をまとめる。
// ルーティングでmiddleware.RequireCapabilityから使う。
package policy

import "storefront/internal/domain/model"

type Capability string

const (
	CapCartUse        Capability = "cart:use"
	CapWishlistUse    Capability = "wishlist:use"
	CapOrdersPlace    Capability = "orders:place"
	CapOrdersManage   Capability = "orders:manage"
	CapCatalogManage  Capability = "catalog:manage"
	CapUsersManage    Capability = "users:manage"
	CapStatsView      Capability = "stats:view"
	CapAuditView      Capability = "audit:view"
	CapPaymentsCreate Capability = "payments:create"
)

var customer = []Capability{
	CapCartUse,
	CapWishlistUse,
	CapOrdersPlace,
	CapPaymentsCreate,
}

var grants = map[model.Role]map[Capability]bool{
	model.RoleUser: set(customer...),
	model.RoleAdmin: set(append([]Capability{
		CapOrdersManage,
		CapCatalogManage,
		CapUsersManage,
		CapStatsView,
		CapAuditView,
	}, customer...)...),
}

func set(caps ...Capability) map[Capability]bool {
	m := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		m[c] = true
	}
	return m
}

// Allows は未知のロールなら常にfalse
func Allows(role model.Role, c Capability) bool {
	return grants[role][c]
}
