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
)

type CategoryRepoMock struct{ mock.Mock }

func (m *CategoryRepoMock) List(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]model.Category)
	return list, args.Error(1)
}

func (m *CategoryRepoMock) FindByID(ctx context.Context, id string) (model.Category, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(model.Category)
	return c, args.Error(1)
}

func (m *CategoryRepoMock) Create(ctx context.Context, c model.Category) (model.Category, error) {
	args := m.Called(ctx, c)
	out, _ := args.Get(0).(model.Category)
	return out, args.Error(1)
}

func (m *CategoryRepoMock) Update(ctx context.Context, c model.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *CategoryRepoMock) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

var _ repo.CategoryRepository = (*CategoryRepoMock)(nil)

func TestCategoryCreate_TrimsName(t *testing.T) {
	r := &CategoryRepoMock{}
	u := usecase.NewCategoryUsecase(r)

	r.On("Create", mock.Anything, mock.MatchedBy(func(c model.Category) bool {
		return c.Name == "Books"
	})).Return(model.Category{ID: "c1", Name: "Books"}, nil).Once()

	c, err := u.Create(context.Background(), usecase.CategoryInput{Name: "  Books "})
	require.NoError(t, err)
	assert.Equal(t, "c1", c.ID)
	r.AssertExpectations(t)
}

func TestCategoryCreate_Validation(t *testing.T) {
	u := usecase.NewCategoryUsecase(&CategoryRepoMock{})

	_, err := u.Create(context.Background(), usecase.CategoryInput{Name: "   "})
	requireHTTPError(t, err, http.StatusBadRequest)
}

func TestCategoryCreate_DuplicateIs409(t *testing.T) {
	r := &CategoryRepoMock{}
	u := usecase.NewCategoryUsecase(r)

	r.On("Create", mock.Anything, mock.Anything).Return(model.Category{}, repo.ErrConflict)

	_, err := u.Create(context.Background(), usecase.CategoryInput{Name: "Books"})
	requireHTTPError(t, err, http.StatusConflict)
}

func TestCategoryUpdate_NotFound(t *testing.T) {
	r := &CategoryRepoMock{}
	u := usecase.NewCategoryUsecase(r)

	r.On("FindByID", mock.Anything, "missing").Return(model.Category{}, repo.ErrNotFound)

	_, err := u.Update(context.Background(), "missing", usecase.CategoryInput{Name: "X"})
	he := requireHTTPError(t, err, http.StatusNotFound)
	assert.Equal(t, "category not found", he.Message)
	r.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestCategoryDelete(t *testing.T) {
	r := &CategoryRepoMock{}
	u := usecase.NewCategoryUsecase(r)

	r.On("Delete", mock.Anything, "c1").Return(nil).Once()
	require.NoError(t, u.Delete(context.Background(), "c1"))

	r.On("Delete", mock.Anything, "c2").Return(repo.ErrNotFound).Once()
	requireHTTPError(t, u.Delete(context.Background(), "c2"), http.StatusNotFound)
}
