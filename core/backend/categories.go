// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/shopadmin/core/csql"
	"github.com/relabs-tech/shopadmin/core/events"
	"github.com/relabs-tech/shopadmin/core/logger"
	"github.com/relabs-tech/shopadmin/core/validate"
)

func (b *Backend) handleCategoryRoutes(router *mux.Router) {
	router.HandleFunc("/categories", b.categoryListWithAuth).Methods(http.MethodGet)
	router.HandleFunc("/categories", b.categoryCreateWithAuth).Methods(http.MethodPost)
	router.HandleFunc("/categories/{category_id}", b.categoryUpdateWithAuth).Methods(http.MethodPut)
	router.HandleFunc("/categories/{category_id}", b.categoryDeleteWithAuth).Methods(http.MethodDelete)
}

type categoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (b *Backend) categoryListWithAuth(w http.ResponseWriter, r *http.Request) {
	if b.authorized(w, r) == nil {
		return
	}
	rlog := logger.FromContext(r.Context())

	rows, err := b.db.Query(`SELECT category_id, name, description, created_at
FROM ` + b.db.Schema + `.category ORDER BY created_at DESC;`)
	if err != nil {
		rlog.WithError(err).Errorln("Error 4201: cannot query categories")
		writeError(w, http.StatusInternalServerError, "Error 4201")
		return
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var category Category
		if err := rows.Scan(&category.CategoryID, &category.Name, &category.Description, &category.CreatedAt); err != nil {
			rlog.WithError(err).Errorln("Error 4202: cannot scan category")
			writeError(w, http.StatusInternalServerError, "Error 4202")
			return
		}
		categories = append(categories, category)
	}
	writeJSON(w, http.StatusOK, categories)
}

func (b *Backend) categoryCreateWithAuth(w http.ResponseWriter, r *http.Request) {
	if b.authorized(w, r) == nil {
		return
	}
	rlog := logger.FromContext(r.Context())

	var request categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json data")
		return
	}

	category := Category{
		Name:        strings.TrimSpace(stringValue(request.Name)),
		Description: stringValue(request.Description),
	}
	if errors := validate.Category(validate.CategoryInput{
		Name:        category.Name,
		Description: category.Description,
	}); len(errors) > 0 {
		writeValidationErrors(w, errors)
		return
	}

	err := b.db.QueryRow(`INSERT INTO `+b.db.Schema+`.category (name, description)
VALUES ($1, $2) RETURNING category_id, created_at;`,
		category.Name, category.Description,
	).Scan(&category.CategoryID, &category.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "category already exists")
			return
		}
		rlog.WithError(err).Errorln("Error 4203: cannot create category")
		writeError(w, http.StatusInternalServerError, "Error 4203")
		return
	}

	b.notify(r, "category", events.OperationCreate, category.CategoryID)
	writeJSON(w, http.StatusCreated, category)
}

func (b *Backend) categoryUpdateWithAuth(w http.ResponseWriter, r *http.Request) {
	if b.authorized(w, r) == nil {
		return
	}
	rlog := logger.FromContext(r.Context())

	categoryID, err := uuid.Parse(mux.Vars(r)["category_id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	var request categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json data")
		return
	}

	var category Category
	err = b.db.QueryRow(`SELECT category_id, name, description, created_at
FROM `+b.db.Schema+`.category WHERE category_id = $1;`, categoryID,
	).Scan(&category.CategoryID, &category.Name, &category.Description, &category.CreatedAt)
	if err == csql.ErrNoRows {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}
	if err != nil {
		rlog.WithError(err).Errorln("Error 4204: cannot read category")
		writeError(w, http.StatusInternalServerError, "Error 4204")
		return
	}

	// partial update, absent fields keep their value
	if request.Name != nil {
		category.Name = strings.TrimSpace(*request.Name)
	}
	if request.Description != nil {
		category.Description = *request.Description
	}
	if errors := validate.Category(validate.CategoryInput{
		Name:        category.Name,
		Description: category.Description,
	}); len(errors) > 0 {
		writeValidationErrors(w, errors)
		return
	}

	_, err = b.db.Exec(`UPDATE `+b.db.Schema+`.category SET name = $1, description = $2
WHERE category_id = $3;`,
		category.Name, category.Description, categoryID)
	if err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "category already exists")
			return
		}
		rlog.WithError(err).Errorln("Error 4205: cannot update category")
		writeError(w, http.StatusInternalServerError, "Error 4205")
		return
	}

	b.notify(r, "category", events.OperationUpdate, categoryID)
	writeJSON(w, http.StatusOK, category)
}

func (b *Backend) categoryDeleteWithAuth(w http.ResponseWriter, r *http.Request) {
	if b.authorized(w, r) == nil {
		return
	}
	rlog := logger.FromContext(r.Context())

	categoryID, err := uuid.Parse(mux.Vars(r)["category_id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	result, err := b.db.Exec(`DELETE FROM `+b.db.Schema+`.category WHERE category_id = $1;`, categoryID)
	if err != nil {
		rlog.WithError(err).Errorln("Error 4206: cannot delete category")
		writeError(w, http.StatusInternalServerError, "Error 4206")
		return
	}
	if count, _ := result.RowsAffected(); count == 0 {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}

	// products referencing this category become dangling and disappear
	// from the product list until they are re-assigned
	b.notify(r, "category", events.OperationDelete, categoryID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
