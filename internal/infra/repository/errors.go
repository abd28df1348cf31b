package repository

import (
	"errors"

	"storefront/internal/infra/db"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

// gorm/pgのエラーをrepositoryのエラーに寄せる
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.ErrNotFound
	}
	if db.IsUniqueViolation(err) {
		return repo.ErrConflict
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func pageOffset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
