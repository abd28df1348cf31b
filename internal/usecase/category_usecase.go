package usecase

import (
	"context"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type CategoryUsecase struct {
	categories repo.CategoryRepository
}

func NewCategoryUsecase(categories repo.CategoryRepository) *CategoryUsecase {
	return &CategoryUsecase{categories: categories}
}

type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	Image       string `json:"image" validate:"max=500"`
}

func (u *CategoryUsecase) List(ctx context.Context) ([]model.Category, error) {
	list, err := u.categories.List(ctx)
	if err != nil {
		return nil, internalError(err)
	}
	return list, nil
}

func (u *CategoryUsecase) Get(ctx context.Context, id string) (model.Category, error) {
	c, err := u.categories.FindByID(ctx, id)
	if err != nil {
		return model.Category{}, repoError(err, "category not found")
	}
	return c, nil
}

// 名前重複は409
func (u *CategoryUsecase) Create(ctx context.Context, in CategoryInput) (model.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name required")
	}

	c, err := u.categories.Create(ctx, model.Category{
		Name:        name,
		Description: in.Description,
		Image:       strings.TrimSpace(in.Image),
	})
	if err != nil {
		return model.Category{}, repoError(err, "category not found")
	}
	return c, nil
}

func (u *CategoryUsecase) Update(ctx context.Context, id string, in CategoryInput) (model.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name required")
	}

	c, err := u.categories.FindByID(ctx, id)
	if err != nil {
		return model.Category{}, repoError(err, "category not found")
	}
	c.Name = name
	c.Description = in.Description
	c.Image = strings.TrimSpace(in.Image)

	if err := u.categories.Update(ctx, c); err != nil {
		return model.Category{}, repoError(err, "category not found")
	}
	return c, nil
}

func (u *CategoryUsecase) Delete(ctx context.Context, id string) error {
	if err := u.categories.Delete(ctx, id); err != nil {
		return repoError(err, "category not found")
	}
	return nil
}
