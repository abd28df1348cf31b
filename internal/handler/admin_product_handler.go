package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/policy"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 在庫更新の入力です。
type InventoryUpdateRequest struct {
	Stock  *int64 `json:"stock" validate:"required,gte=0"`
	Reason string `json:"reason" validate:"required,max=255"`
}

// 商品の管理系（作成・更新・削除・在庫・画像）をまとめる
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

// catalog:manageが必要
func (h *AdminProductHandler) RegisterRoutes(api *echo.Group, guards Guards) {
	admin := guards.Require(policy.CapCatalogManage)

	api.GET("/admin/products", h.list, admin...)
	api.POST("/products", h.createProduct, admin...)
	api.PUT("/products/:id", h.updateProduct, admin...)
	api.DELETE("/products/:id", h.deleteProduct, admin...)
	api.PUT("/admin/inventory/:productId", h.updateInventory, admin...)
	api.POST("/upload/product-image", h.uploadImage, admin...)
}

func (h *AdminProductHandler) list(c echo.Context) error {
	in, err := parseListProducts(c)
	if err != nil {
		return err
	}

	out, err := h.uc.AdminListProducts(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, out)
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	var req usecase.AdminProductInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.uc.AdminCreateProduct(c.Request().Context(), middleware.UserID(c), req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, p)
}

func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req usecase.AdminProductInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.uc.AdminUpdateProduct(c.Request().Context(), middleware.UserID(c), id, req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, p)
}

// 論理削除
func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.uc.AdminDeleteProduct(c.Request().Context(), middleware.UserID(c), id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "product deleted")
}

func (h *AdminProductHandler) updateInventory(c echo.Context) error {
	productID, err := pathID(c, "productId")
	if err != nil {
		return err
	}

	var req InventoryUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.uc.AdminUpdateInventory(c.Request().Context(), middleware.UserID(c), productID, *req.Stock, req.Reason); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "inventory updated")
}

// multipartの"image"を受け取る
func (h *AdminProductHandler) uploadImage(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "image file is required")
	}
	if fh.Size > usecase.MaxImageSize {
		return usecase.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large (max 5MB)")
	}

	f, err := fh.Open()
	if err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "cannot read file")
	}
	defer f.Close()

	url, err := h.uc.UploadImage(c.Request().Context(), usecase.UploadImageInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, map[string]string{"url": url})
}
