package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fractalshop/internal/models"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

func parsePagination(r *http.Request) (page, limit int, err error) {
	page, limit = 1, defaultPageSize
	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, errors.New("invalid page")
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, errors.New("invalid limit")
		}
	}
	if page < 1 || limit < 1 || limit > maxPageSize {
		return 0, 0, errors.New("invalid pagination parameters: page must be >= 1, limit between 1 and 50")
	}
	return page, limit, nil
}

func reviewView(rev models.Review) map[string]any {
	out := map[string]any{
		"id":        rev.ID,
		"productId": rev.ProductID,
		"rating":    rev.Rating,
		"comment":   rev.Comment,
		"createdAt": rev.CreatedAt,
		"updatedAt": rev.UpdatedAt,
	}
	out["user"] = map[string]any{
		"id":    rev.User.ID,
		"name":  rev.User.Name,
		"email": rev.User.Email,
		"photo": rev.User.Photo,
	}
	return out
}

func (a *API) handleListProductReviews(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "productID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	page, limit, err := parsePagination(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()
	orm := a.orm.WithContext(ctx)

	var product models.Product
	if err := orm.Select("id", "title").First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, errors.New("product not found"))
			return
		}
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	var reviews []models.Review
	err = orm.Preload("User").
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	var total int64
	if err := orm.Model(&models.Review{}).Where("product_id = ?", productID).Count(&total).Error; err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	var average float64
	err = orm.Model(&models.Review{}).
		Where("product_id = ?", productID).
		Select("COALESCE(AVG(rating), 0)").
		Scan(&average).Error
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	views := make([]map[string]any, 0, len(reviews))
	for _, rev := range reviews {
		views = append(views, reviewView(rev))
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"product":       map[string]any{"id": product.ID, "title": product.Title},
		"reviews":       views,
		"averageRating": average,
		"pagination": map[string]any{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

func (a *API) handleListUserReviews(w http.ResponseWriter, r *http.Request) {
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

	var reviews []models.Review
	err = a.orm.WithContext(ctx).Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	views := make([]map[string]any, 0, len(reviews))
	for _, rev := range reviews {
		views = append(views, reviewView(rev))
	}
	respondJSON(w, http.StatusOK, map[string]any{"reviews": views})
}

func (a *API) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireAuth(w, r)
	if !ok {
		return
	}

	var req struct {
		ProductID uuid.UUID `json:"productId"`
		Rating    int       `json:"rating"`
		Comment   string    `json:"comment"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.ProductID == uuid.Nil {
		respondError(w, http.StatusBadRequest, errors.New("productId is required"))
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		respondError(w, http.StatusBadRequest, errors.New("rating must be between 1 and 5"))
		return
	}
	req.Comment = strings.TrimSpace(req.Comment)

	ctx, cancel := withTimeout(r.Context())
	defer cancel()
	orm := a.orm.WithContext(ctx)

	var product models.Product
	if err := orm.Select("id").First(&product, "id = ?", req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, errors.New("product not found"))
			return
		}
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	var existing models.Review
	err := orm.Where("user_id = ? AND product_id = ?", sess.UserID, req.ProductID).First(&existing).Error
	switch {
	case err == nil:
		respondError(w, http.StatusConflict, errors.New("review already exists for this product"))
		return
	case !errors.Is(err, gorm.ErrRecordNotFound):
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	review := models.Review{
		ID:        uuid.New(),
		UserID:    sess.UserID,
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := orm.Create(&review).Error; err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"review": review})
}

func (a *API) fetchReview(w http.ResponseWriter, r *http.Request) (*models.Review, bool) {
	reviewID, err := pathUUID(r, "reviewID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return nil, false
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var review models.Review
	if err := a.orm.WithContext(ctx).Preload("User").First(&review, "id = ?", reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, errors.New("review not found"))
			return nil, false
		}
		respondError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	return &review, true
}

func (a *API) handleGetReview(w http.ResponseWriter, r *http.Request) {
	review, ok := a.fetchReview(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"review": reviewView(*review)})
}

func (a *API) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	review, ok := a.fetchReview(w, r)
	if !ok {
		return
	}
	if _, ok := requireSelfOrAdmin(w, r, review.UserID); !ok {
		return
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		respondError(w, http.StatusBadRequest, errors.New("rating must be between 1 and 5"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	updates := map[string]any{
		"rating":  req.Rating,
		"comment": strings.TrimSpace(req.Comment),
	}
	if err := a.orm.WithContext(ctx).Model(review).Updates(updates).Error; err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"review": review})
}

func (a *API) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	review, ok := a.fetchReview(w, r)
	if !ok {
		return
	}
	if _, ok := requireSelfOrAdmin(w, r, review.UserID); !ok {
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	if err := a.orm.WithContext(ctx).Delete(review).Error; err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "review deleted"})
}
