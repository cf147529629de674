package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fractalshop/internal/models"
)

type addressRequest struct {
	Label      string `json:"label"`
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	ZipCode    string `json:"zipCode"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"isDefault"`
}

func (req *addressRequest) validate() error {
	req.Label = strings.TrimSpace(req.Label)
	req.Street = strings.TrimSpace(req.Street)
	req.Number = strings.TrimSpace(req.Number)
	req.District = strings.TrimSpace(req.District)
	req.City = strings.TrimSpace(req.City)
	req.State = strings.TrimSpace(req.State)
	req.ZipCode = strings.TrimSpace(req.ZipCode)

	if req.Label == "" || req.Street == "" || req.Number == "" || req.District == "" ||
		req.City == "" || req.State == "" || req.ZipCode == "" {
		return errors.New("label, street, number, district, city, state, and zipCode are required")
	}
	if len(req.Label) < 2 || len(req.Label) > 50 {
		return errors.New("label must be between 2 and 50 characters")
	}
	if len(req.Number) > 20 {
		return errors.New("number must be at most 20 characters")
	}
	if req.Country == "" {
		req.Country = "Brasil"
	}
	return nil
}

func (a *API) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if _, ok := requireSelfOrAdmin(w, r, userID); !ok {
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var addresses []models.Address
	err = a.orm.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&addresses).Error
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"addresses": addresses})
}

func (a *API) handleCreateAddress(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if _, ok := requireSelfOrAdmin(w, r, userID); !ok {
		return
	}

	var req addressRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()
	orm := a.orm.WithContext(ctx)

	var user models.User
	if err := orm.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, errors.New("user not found"))
			return
		}
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	address := models.Address{
		ID:         uuid.New(),
		UserID:     userID,
		Label:      req.Label,
		Street:     req.Street,
		Number:     req.Number,
		Complement: req.Complement,
		District:   req.District,
		City:       req.City,
		State:      req.State,
		ZipCode:    req.ZipCode,
		Country:    req.Country,
		IsDefault:  req.IsDefault,
	}

	err = orm.Transaction(func(tx *gorm.DB) error {
		if req.IsDefault {
			if err := tx.Model(&models.Address{}).
				Where("user_id = ? AND is_default", userID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&address).Error
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"address": address})
}

// fetchOwnedAddress loads the address and enforces owner-or-admin access.
func (a *API) fetchOwnedAddress(w http.ResponseWriter, r *http.Request) (*models.Address, bool) {
	addressID, err := pathUUID(r, "addressID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return nil, false
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var address models.Address
	if err := a.orm.WithContext(ctx).First(&address, "id = ?", addressID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, errors.New("address not found"))
			return nil, false
		}
		respondError(w, http.StatusInternalServerError, err)
		return nil, false
	}

	if _, ok := requireSelfOrAdmin(w, r, address.UserID); !ok {
		return nil, false
	}
	return &address, true
}

func (a *API) handleGetAddress(w http.ResponseWriter, r *http.Request) {
	address, ok := a.fetchOwnedAddress(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"address": address})
}

func (a *API) handleUpdateAddress(w http.ResponseWriter, r *http.Request) {
	address, ok := a.fetchOwnedAddress(w, r)
	if !ok {
		return
	}

	var req addressRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	updates := map[string]any{
		"label":      req.Label,
		"street":     req.Street,
		"number":     req.Number,
		"complement": req.Complement,
		"district":   req.District,
		"city":       req.City,
		"state":      req.State,
		"zip_code":   req.ZipCode,
		"country":    req.Country,
	}
	if err := a.orm.WithContext(ctx).Model(address).Updates(updates).Error; err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"address": address})
}

func (a *API) handleDeleteAddress(w http.ResponseWriter, r *http.Request) {
	address, ok := a.fetchOwnedAddress(w, r)
	if !ok {
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	if err := a.orm.WithContext(ctx).Delete(address).Error; err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "address deleted"})
}

func (a *API) handleSetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	address, ok := a.fetchOwnedAddress(w, r)
	if !ok {
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	err := a.orm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Address{}).
			Where("user_id = ? AND is_default", address.UserID).
			Update("is_default", false).Error; err != nil {
			return err
		}
		return tx.Model(address).Update("is_default", true).Error
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"address": address})
}
