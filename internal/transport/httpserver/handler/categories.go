package handler

import (
	"context"
	"net/http"
	"strings"

	ledgerdomain "pocket-ledger-go/internal/domain/ledger"
)

type createCategoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type updateCategoryRequest struct {
	Name *string `json:"name"`
	Type *string `json:"type"`
}

func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	var filter ledgerdomain.CategoryFilter
	if value := strings.TrimSpace(query.Get("type")); value != "" {
		categoryType := ledgerdomain.CategoryType(value)
		if !categoryType.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_request", "type must be income, expense or both")
			return
		}
		filter.Type = &categoryType
	}
	switch status := ledgerdomain.CategoryStatus(strings.TrimSpace(query.Get("status"))); status {
	case "", ledgerdomain.CategoryStatusActive, ledgerdomain.CategoryStatusInactive, ledgerdomain.CategoryStatusAll:
		filter.Status = status
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "status must be active, inactive or all")
		return
	}

	categories, err := h.Ledger.ListCategories(r.Context(), user.ID, filter)
	if err != nil {
		h.writeServiceError(w, r, "categories.list", err, "user_id", user.ID)
		return
	}

	writeJSON(w, http.StatusOK, listResponse[categoryResponse]{Items: toCategoryResponses(categories)})
}

func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	created, err := h.Ledger.CreateCategory(r.Context(), ledgerdomain.CreateCategoryInput{
		UserID: user.ID,
		Name:   req.Name,
		Type:   ledgerdomain.CategoryType(req.Type),
	})
	if err != nil {
		h.writeServiceError(w, r, "categories.create", err, "user_id", user.ID)
		return
	}

	writeJSON(w, http.StatusCreated, toCategoryResponse(*created))
}

func (h *Handlers) ProvisionSystemCategories(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	categories, err := h.Ledger.ProvisionSystemCategories(r.Context(), user.ID)
	if err != nil {
		h.writeServiceError(w, r, "categories.system", err, "user_id", user.ID)
		return
	}

	writeJSON(w, http.StatusOK, listResponse[categoryResponse]{Items: toCategoryResponses(categories)})
}

func (h *Handlers) GetCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	categoryID, ok := pathID(w, r, ledgerdomain.ErrCategoryNotFound)
	if !ok {
		return
	}

	category, err := h.Ledger.GetCategory(r.Context(), user.ID, categoryID)
	if err != nil {
		h.writeServiceError(w, r, "categories.get", err, "user_id", user.ID, "category_id", categoryID)
		return
	}

	writeJSON(w, http.StatusOK, toCategoryResponse(*category))
}

func (h *Handlers) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req updateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	categoryID, ok := pathID(w, r, ledgerdomain.ErrCategoryNotFound)
	if !ok {
		return
	}

	input := ledgerdomain.UpdateCategoryInput{UserID: user.ID, CategoryID: categoryID, Name: req.Name}
	if req.Type != nil {
		categoryType := ledgerdomain.CategoryType(*req.Type)
		input.Type = &categoryType
	}

	updated, err := h.Ledger.UpdateCategory(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, r, "categories.update", err, "user_id", user.ID, "category_id", categoryID)
		return
	}

	writeJSON(w, http.StatusOK, toCategoryResponse(*updated))
}

func (h *Handlers) DeactivateCategory(w http.ResponseWriter, r *http.Request) {
	h.toggleCategory(w, r, "categories.deactivate", h.Ledger.DeactivateCategory)
}

func (h *Handlers) ReactivateCategory(w http.ResponseWriter, r *http.Request) {
	h.toggleCategory(w, r, "categories.reactivate", h.Ledger.ReactivateCategory)
}

func (h *Handlers) toggleCategory(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	toggle func(ctx context.Context, userID, categoryID string) (*ledgerdomain.Category, error),
) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	categoryID, ok := pathID(w, r, ledgerdomain.ErrCategoryNotFound)
	if !ok {
		return
	}

	category, err := toggle(r.Context(), user.ID, categoryID)
	if err != nil {
		h.writeServiceError(w, r, op, err, "user_id", user.ID, "category_id", categoryID)
		return
	}

	writeJSON(w, http.StatusOK, toCategoryResponse(*category))
}
