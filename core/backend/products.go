// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/shopadmin/core/csql"
	"github.com/relabs-tech/shopadmin/core/events"
	"github.com/relabs-tech/shopadmin/core/logger"
	"github.com/relabs-tech/shopadmin/core/validate"
)

// product images arrive as multipart form data, capped at 10 MB
const maxImageUploadSize = 10 << 20

func (b *Backend) handleProductRoutes(router *mux.Router) {
	router.HandleFunc("/products", b.productListWithAuth).Methods(http.MethodGet)
	router.HandleFunc("/products", b.productCreateWithAuth).Methods(http.MethodPost)
	router.HandleFunc("/products/{product_id}", b.productUpdateWithAuth).Methods(http.MethodPut)
	router.HandleFunc("/products/{product_id}", b.productDeleteWithAuth).Methods(http.MethodDelete)
}

func (b *Backend) productListWithAuth(w http.ResponseWriter, r *http.Request) {
	if b.authorized(w, r) == nil {
		return
	}
	rlog := logger.FromContext(r.Context())

	// the inner join drops products whose category has been deleted
	rows, err := b.db.Query(`SELECT p.product_id, p.name, p.price, p.description, p.category_id, c.name, p.image, p.stock, p.created_at
FROM ` + b.db.Schema + `.product p
JOIN ` + b.db.Schema + `.category c ON c.category_id = p.category_id
ORDER BY p.created_at DESC;`)
	if err != nil {
		rlog.WithError(err).Errorln("Error 4301: cannot query products")
		writeError(w, http.StatusInternalServerError, "Error 4301")
		return
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		var product Product
		err := rows.Scan(&product.ProductID, &product.Name, &product.Price, &product.Description,
			&product.CategoryID, &product.CategoryName, &product.Image, &product.Stock, &product.CreatedAt)
		if err != nil {
			rlog.WithError(err).Errorln("Error 4302: cannot scan product")
			writeError(w, http.StatusInternalServerError, "Error 4302")
			return
		}
		products = append(products, product)
	}
	writeJSON(w, http.StatusOK, products)
}

func (b *Backend) productCreateWithAuth(w http.ResponseWriter, r *http.Request) {
	if b.authorized(w, r) == nil {
		return
	}
	rlog := logger.FromContext(r.Context())

	if err := r.ParseMultipartForm(maxImageUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	input := validate.ProductInput{
		Name:        r.FormValue("name"),
		Price:       r.FormValue("price"),
		Stock:       r.FormValue("stock"),
		CategoryID:  r.FormValue("category_id"),
		Description: r.FormValue("description"),
	}
	if errors := validate.Product(input); len(errors) > 0 {
		writeValidationErrors(w, errors)
		return
	}

	categoryID, categoryName, ok := b.lookupCategory(w, r, input.CategoryID)
	if !ok {
		return
	}

	image, ok := b.uploadImage(w, r, true)
	if !ok {
		return
	}

	price, _ := strconv.ParseFloat(strings.TrimSpace(input.Price), 64)
	stock := 0
	if strings.TrimSpace(input.Stock) != "" {
		stock, _ = strconv.Atoi(strings.TrimSpace(input.Stock))
	}

	product := Product{
		Name:         strings.TrimSpace(input.Name),
		Price:        price,
		Description:  input.Description,
		CategoryID:   categoryID,
		CategoryName: categoryName,
		Image:        image,
		Stock:        stock,
	}
	err := b.db.QueryRow(`INSERT INTO `+b.db.Schema+`.product (name, price, description, category_id, image, stock)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING product_id, created_at;`,
		product.Name, product.Price, product.Description, product.CategoryID, product.Image, product.Stock,
	).Scan(&product.ProductID, &product.CreatedAt)
	if err != nil {
		rlog.WithError(err).Errorln("Error 4303: cannot create product")
		writeError(w, http.StatusInternalServerError, "Error 4303")
		return
	}

	b.notify(r, "product", events.OperationCreate, product.ProductID)
	writeJSON(w, http.StatusCreated, product)
}

func (b *Backend) productUpdateWithAuth(w http.ResponseWriter, r *http.Request) {
	if b.authorized(w, r) == nil {
		return
	}
	rlog := logger.FromContext(r.Context())

	productID, err := uuid.Parse(mux.Vars(r)["product_id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := r.ParseMultipartForm(maxImageUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	var product Product
	err = b.db.QueryRow(`SELECT product_id, name, price, description, category_id, image, stock, created_at
FROM `+b.db.Schema+`.product WHERE product_id = $1;`, productID,
	).Scan(&product.ProductID, &product.Name, &product.Price, &product.Description,
		&product.CategoryID, &product.Image, &product.Stock, &product.CreatedAt)
	if err == csql.ErrNoRows {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		rlog.WithError(err).Errorln("Error 4304: cannot read product")
		writeError(w, http.StatusInternalServerError, "Error 4304")
		return
	}

	// partial update: merge submitted fields over the stored record, then
	// validate the merged result as a whole
	input := validate.ProductInput{
		Name:        product.Name,
		Price:       strconv.FormatFloat(product.Price, 'f', -1, 64),
		Stock:       strconv.Itoa(product.Stock),
		CategoryID:  product.CategoryID.String(),
		Description: product.Description,
	}
	form := r.MultipartForm.Value
	if v, ok := form["name"]; ok && len(v) > 0 {
		input.Name = v[0]
	}
	if v, ok := form["price"]; ok && len(v) > 0 {
		input.Price = v[0]
	}
	if v, ok := form["stock"]; ok && len(v) > 0 {
		input.Stock = v[0]
	}
	if v, ok := form["category_id"]; ok && len(v) > 0 {
		input.CategoryID = v[0]
	}
	if v, ok := form["description"]; ok && len(v) > 0 {
		input.Description = v[0]
	}
	if errors := validate.Product(input); len(errors) > 0 {
		writeValidationErrors(w, errors)
		return
	}

	// a newly submitted category must exist, wholesale reject otherwise
	categoryName := ""
	if _, ok := form["category_id"]; ok {
		var categoryID uuid.UUID
		categoryID, categoryName, ok = b.lookupCategory(w, r, input.CategoryID)
		if !ok {
			return
		}
		product.CategoryID = categoryID
	}

	replacedImage := ""
	if _, _, err := r.FormFile("image"); err == nil {
		image, ok := b.uploadImage(w, r, false)
		if !ok {
			return
		}
		replacedImage = product.Image
		product.Image = image
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Price, _ = strconv.ParseFloat(strings.TrimSpace(input.Price), 64)
	product.Stock, _ = strconv.Atoi(strings.TrimSpace(input.Stock))
	product.CategoryName = categoryName
	product.Description = input.Description

	_, err = b.db.Exec(`UPDATE `+b.db.Schema+`.product
SET name = $1, price = $2, description = $3, category_id = $4, image = $5, stock = $6
WHERE product_id = $7;`,
		product.Name, product.Price, product.Description, product.CategoryID,
		product.Image, product.Stock, productID)
	if err != nil {
		rlog.WithError(err).Errorln("Error 4305: cannot update product")
		writeError(w, http.StatusInternalServerError, "Error 4305")
		return
	}

	// the replaced image is no longer referenced, removal is best-effort
	if replacedImage != "" {
		if err := b.media.Delete(r.Context(), replacedImage); err != nil {
			rlog.WithError(err).Warningln("cannot delete replaced image ", replacedImage)
		}
	}

	b.notify(r, "product", events.OperationUpdate, productID)
	writeJSON(w, http.StatusOK, product)
}

func (b *Backend) productDeleteWithAuth(w http.ResponseWriter, r *http.Request) {
	if b.authorized(w, r) == nil {
		return
	}
	rlog := logger.FromContext(r.Context())

	productID, err := uuid.Parse(mux.Vars(r)["product_id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var image string
	err = b.db.QueryRow(`DELETE FROM `+b.db.Schema+`.product WHERE product_id = $1 RETURNING image;`,
		productID).Scan(&image)
	if err == csql.ErrNoRows {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		rlog.WithError(err).Errorln("Error 4306: cannot delete product")
		writeError(w, http.StatusInternalServerError, "Error 4306")
		return
	}

	// the image is no longer referenced, removal is best-effort
	if image != "" {
		if err := b.media.Delete(r.Context(), image); err != nil {
			rlog.WithError(err).Warningln("cannot delete image ", image)
		}
	}

	b.notify(r, "product", events.OperationDelete, productID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// lookupCategory resolves a submitted category identifier. It rejects the
// request wholesale when the category does not exist, no partial product
// creation ever happens.
func (b *Backend) lookupCategory(w http.ResponseWriter, r *http.Request, id string) (uuid.UUID, string, bool) {
	rlog := logger.FromContext(r.Context())

	categoryID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		writeError(w, http.StatusBadRequest, "category not found")
		return uuid.UUID{}, "", false
	}
	var name string
	err = b.db.QueryRow(`SELECT name FROM `+b.db.Schema+`.category WHERE category_id = $1;`,
		categoryID).Scan(&name)
	if err == csql.ErrNoRows {
		writeError(w, http.StatusBadRequest, "category not found")
		return uuid.UUID{}, "", false
	}
	if err != nil {
		rlog.WithError(err).Errorln("Error 4307: cannot read category")
		writeError(w, http.StatusInternalServerError, "Error 4307")
		return uuid.UUID{}, "", false
	}
	return categoryID, name, true
}

// uploadImage reads the image part of the multipart form and puts it into
// the media store. With required set, a missing image part is an error.
func (b *Backend) uploadImage(w http.ResponseWriter, r *http.Request, required bool) (string, bool) {
	rlog := logger.FromContext(r.Context())

	file, header, err := r.FormFile("image")
	if err != nil {
		if required {
			writeError(w, http.StatusBadRequest, "product image is required")
		}
		return "", !required
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		rlog.WithError(err).Errorln("Error 4308: cannot read image upload")
		writeError(w, http.StatusInternalServerError, "Error 4308")
		return "", false
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	url, err := b.media.Upload(r.Context(), uuid.New().String(), contentType, data)
	if err != nil {
		rlog.WithError(err).Errorln("Error 4309: cannot upload image")
		writeError(w, http.StatusInternalServerError, "Error 4309")
		return "", false
	}
	return url, true
}
