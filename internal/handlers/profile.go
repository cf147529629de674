package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"fractalshop/internal/auth"
	"fractalshop/internal/models"
)

func (a *API) handleGetProfile(w http.ResponseWriter, r *http.Request) {
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

	var addressCount, reviewCount int64
	if err := orm.Model(&models.Address{}).Where("user_id = ?", userID).Count(&addressCount).Error; err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	if err := orm.Model(&models.Review{}).Where("user_id = ?", userID).Count(&reviewCount).Error; err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	profile := userView(user)
	profile["stats"] = map[string]any{
		"totalAddresses": addressCount,
		"totalReviews":   reviewCount,
	}
	respondJSON(w, http.StatusOK, map[string]any{"profile": profile})
}

func (a *API) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if _, ok := requireSelfOrAdmin(w, r, userID); !ok {
		return
	}

	var req struct {
		Name            string `json:"name"`
		Phone           string `json:"phone"`
		CPF             string `json:"cpf"`
		Photo           string `json:"photo"`
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
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

	updates := map[string]any{}
	if name := strings.TrimSpace(req.Name); name != "" {
		updates["name"] = name
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		updates["phone"] = phone
	}
	if cpf := strings.TrimSpace(req.CPF); cpf != "" {
		updates["cpf"] = cpf
	}
	if photo := strings.TrimSpace(req.Photo); photo != "" {
		updates["photo"] = photo
	}

	if req.NewPassword != "" {
		if len(req.NewPassword) < 8 {
			respondError(w, http.StatusBadRequest, errors.New("new password must be at least 8 characters long"))
			return
		}
		if user.PasswordHash == nil {
			respondError(w, http.StatusBadRequest, errors.New("account has no password to change"))
			return
		}
		if req.CurrentPassword == "" {
			respondError(w, http.StatusBadRequest, errors.New("currentPassword is required to change the password"))
			return
		}
		if err := auth.CheckPassword(*user.PasswordHash, req.CurrentPassword); err != nil {
			respondError(w, http.StatusUnauthorized, errors.New("current password is incorrect"))
			return
		}
		hash, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err)
			return
		}
		updates["password"] = hash
	}

	if len(updates) > 0 {
		if err := orm.Model(&user).Updates(updates).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"profile": userView(user)})
}
