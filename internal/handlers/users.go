package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fractalshop/internal/auth"
	"fractalshop/internal/models"
)

// userView serializes a user with the password hash excluded.
func userView(u models.User) map[string]any {
	return map[string]any{
		"id":        u.ID,
		"email":     u.Email,
		"role":      auth.ParseRole(u.Role),
		"name":      u.Name,
		"phone":     u.Phone,
		"cpf":       u.CPF,
		"photo":     u.Photo,
		"createdAt": u.CreatedAt,
		"updatedAt": u.UpdatedAt,
	}
}

func validateEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", errors.New("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", errors.New("invalid email format")
	}
	return email, nil
}

func validateRole(role string) (string, error) {
	switch role {
	case "":
		return string(auth.RoleUser), nil
	case string(auth.RoleUser), string(auth.RoleAdmin):
		return role, nil
	default:
		return "", errors.New("role must be user or admin")
	}
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var users []models.User
	if err := a.orm.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	views := make([]map[string]any, 0, len(users))
	for _, u := range users {
		views = append(views, userView(u))
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": views})
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	email, err := validateEmail(req.Email)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Password) < 8 {
		respondError(w, http.StatusBadRequest, errors.New("password must be at least 8 characters long"))
		return
	}
	role, err := validateRole(req.Role)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	user := models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: &hash,
		Role:         role,
	}
	if err := a.orm.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respondError(w, http.StatusConflict, errors.New("email already registered"))
			return
		}
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"user": userView(user)})
}

func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	userID, err := pathUUID(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
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
	if req.Email != "" {
		email, err := validateEmail(req.Email)
		if err != nil {
			respondError(w, http.StatusBadRequest, err)
			return
		}
		updates["email"] = email
	}
	if req.Password != "" {
		if len(req.Password) < 8 {
			respondError(w, http.StatusBadRequest, errors.New("password must be at least 8 characters long"))
			return
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err)
			return
		}
		updates["password"] = hash
	}
	if req.Role != "" {
		role, err := validateRole(req.Role)
		if err != nil {
			respondError(w, http.StatusBadRequest, err)
			return
		}
		updates["role"] = role
	}

	if len(updates) > 0 {
		if err := orm.Model(&user).Updates(updates).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": userView(user)})
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	userID, err := pathUUID(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	res := a.orm.WithContext(ctx).Delete(&models.User{}, "id = ?", userID)
	if res.Error != nil {
		respondError(w, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondError(w, http.StatusNotFound, errors.New("user not found"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "user deleted"})
}
