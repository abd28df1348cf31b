package usecase

import (
	"context"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type AddressDTO struct {
	ID         string  `json:"id"`
	UserID     string  `json:"userId"`
	Name       string  `json:"name"`
	Phone      string  `json:"phone"`
	Line1      string  `json:"line1"`
	Line2      string  `json:"line2"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postalCode"`
	Country    string  `json:"country"`
	IsDefault  bool    `json:"isDefault"`
	CreatedAt  string  `json:"createdAt"`
	UpdatedAt  *string `json:"updatedAt,omitempty"`
}

type AddressRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	Phone      string `json:"phone" validate:"omitempty,max=30"`
	Line1      string `json:"line1" validate:"required,max=255"`
	Line2      string `json:"line2" validate:"omitempty,max=255"`
	City       string `json:"city" validate:"required,max=255"`
	State      string `json:"state" validate:"required,max=100"`
	PostalCode string `json:"postalCode" validate:"required,max=20"`
	Country    string `json:"country" validate:"omitempty,max=100"`
}

type AddressUsecase struct {
	addresses repo.AddressRepository
}

func NewAddressUsecase(addresses repo.AddressRepository) *AddressUsecase {
	return &AddressUsecase{addresses: addresses}
}

func (u *AddressUsecase) List(ctx context.Context, userID string) ([]AddressDTO, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	list, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, internalError(err)
	}

	out := make([]AddressDTO, 0, len(list))
	for i := range list {
		out = append(out, toAddressDTO(&list[i]))
	}
	return out, nil
}

// 最初の住所は自動でデフォルト
func (u *AddressUsecase) Create(ctx context.Context, userID string, req AddressRequest) (AddressDTO, error) {
	if userID == "" {
		return AddressDTO{}, ErrUnauthorized
	}
	if err := checkAddress(req); err != nil {
		return AddressDTO{}, err
	}

	existing, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return AddressDTO{}, internalError(err)
	}

	now := time.Now()
	a := toAddressModel(req)
	a.UserID = userID
	a.IsDefault = len(existing) == 0
	a.CreatedAt = now
	a.UpdatedAt = now

	created, err := u.addresses.Create(ctx, a)
	if err != nil {
		return AddressDTO{}, internalError(err)
	}
	return toAddressDTO(&created), nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID string, addressID string, req AddressRequest) error {
	if userID == "" {
		return ErrUnauthorized
	}
	if err := checkAddress(req); err != nil {
		return err
	}
	if err := u.checkOwner(ctx, userID, addressID); err != nil {
		return err
	}

	a := toAddressModel(req)
	a.ID = addressID
	a.UpdatedAt = time.Now()

	if err := u.addresses.Update(ctx, a); err != nil {
		return repoError(err, "address not found")
	}
	return nil
}

// 注文には住所のコピーが残るので削除してよい
func (u *AddressUsecase) Delete(ctx context.Context, userID string, addressID string) error {
	if userID == "" {
		return ErrUnauthorized
	}
	if err := u.checkOwner(ctx, userID, addressID); err != nil {
		return err
	}

	if err := u.addresses.Delete(ctx, addressID); err != nil {
		return repoError(err, "address not found")
	}
	return nil
}

func (u *AddressUsecase) SetDefault(ctx context.Context, userID string, addressID string) error {
	if userID == "" {
		return ErrUnauthorized
	}
	if err := u.checkOwner(ctx, userID, addressID); err != nil {
		return err
	}

	//user内でdefaultは1つ
	if err := u.addresses.SetDefault(ctx, userID, addressID); err != nil {
		return repoError(err, "address not found")
	}
	return nil
}

// 存在しなければ404、他人のものなら403
func (u *AddressUsecase) checkOwner(ctx context.Context, userID, addressID string) error {
	if strings.TrimSpace(addressID) == "" {
		return ErrValidation
	}
	a, err := u.addresses.FindByID(ctx, addressID)
	if err != nil {
		return repoError(err, "address not found")
	}
	if a.UserID != userID {
		return ErrForbidden
	}
	return nil
}

func checkAddress(req AddressRequest) error {
	if strings.TrimSpace(req.Name) == "" ||
		strings.TrimSpace(req.Line1) == "" ||
		strings.TrimSpace(req.City) == "" ||
		strings.TrimSpace(req.State) == "" ||
		strings.TrimSpace(req.PostalCode) == "" {
		return ErrValidation
	}
	return nil
}

func toAddressModel(req AddressRequest) model.Address {
	country := strings.TrimSpace(req.Country)
	if country == "" {
		country = "IN"
	}
	return model.Address{
		Name:       strings.TrimSpace(req.Name),
		Phone:      strings.TrimSpace(req.Phone),
		Line1:      strings.TrimSpace(req.Line1),
		Line2:      strings.TrimSpace(req.Line2),
		City:       strings.TrimSpace(req.City),
		State:      strings.TrimSpace(req.State),
		PostalCode: strings.TrimSpace(req.PostalCode),
		Country:    country,
	}
}

func toAddressDTO(a *model.Address) AddressDTO {
	dto := AddressDTO{
		ID:         a.ID,
		UserID:     a.UserID,
		Name:       a.Name,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		IsDefault:  a.IsDefault,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
	}
	t := a.UpdatedAt.Format(time.RFC3339)
	dto.UpdatedAt = &t
	return dto
}
