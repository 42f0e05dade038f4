package test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type CatalogTestSuite struct {
	IntegrationTestSuite
}

func TestCatalogTestSuite(t *testing.T) {
	suite.Run(t, &CatalogTestSuite{})
}

// tiny but valid png header, good enough for an upload payload
var testImage = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

func (s *CatalogTestSuite) createCategory(name string) string {
	var category struct {
		CategoryID string `json:"category_id"`
	}
	status := s.doRequest(http.MethodPost, "/api/categories", s.token,
		map[string]string{"name": name}, &category)
	s.Require().Equal(http.StatusCreated, status)
	return category.CategoryID
}

func (s *CatalogTestSuite) TestCategoryRoundTrip() {
	categoryID := s.createCategory("Electronics")

	// uniqueness: the same name cannot be created twice
	var conflict struct {
		Message string `json:"message"`
	}
	status := s.doRequest(http.MethodPost, "/api/categories", s.token,
		map[string]string{"name": "Electronics"}, &conflict)
	s.Equal(http.StatusConflict, status)
	s.Contains(conflict.Message, "already exists")

	var categories []struct {
		CategoryID string `json:"category_id"`
		Name       string `json:"name"`
	}
	status = s.doRequest(http.MethodGet, "/api/categories", s.token, nil, &categories)
	s.Require().Equal(http.StatusOK, status)
	count := 0
	for _, category := range categories {
		if category.Name == "Electronics" {
			count++
		}
	}
	s.Equal(1, count, "exactly one category with that name")

	var updated struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	status = s.doRequest(http.MethodPut, "/api/categories/"+categoryID, s.token,
		map[string]string{"description": "Gadgets and devices"}, &updated)
	s.Require().Equal(http.StatusOK, status)
	s.Equal("Electronics", updated.Name, "absent fields keep their value")
	s.Equal("Gadgets and devices", updated.Description)

	status = s.doRequest(http.MethodPost, "/api/categories", s.token,
		map[string]string{"name": "X"}, nil)
	s.Equal(http.StatusBadRequest, status, "single character name is too short")

	status = s.doRequest(http.MethodDelete, "/api/categories/"+categoryID, s.token, nil, nil)
	s.Equal(http.StatusOK, status)
	status = s.doRequest(http.MethodDelete, "/api/categories/"+categoryID, s.token, nil, nil)
	s.Equal(http.StatusNotFound, status)
}

func (s *CatalogTestSuite) TestProductLifecycle() {
	categoryID := s.createCategory("Kitchen")

	var product struct {
		ProductID    string  `json:"product_id"`
		Name         string  `json:"name"`
		Price        float64 `json:"price"`
		CategoryName string  `json:"category_name"`
		Image        string  `json:"image"`
		Stock        int     `json:"stock"`
	}
	status := s.doMultipart(http.MethodPost, "/api/products", s.token, map[string]string{
		"name":        "Chef Knife",
		"price":       "64.95",
		"stock":       "14",
		"category_id": categoryID,
	}, testImage, &product)
	s.Require().Equal(http.StatusCreated, status)
	s.Equal("Chef Knife", product.Name)
	s.Equal(64.95, product.Price)
	s.Equal("Kitchen", product.CategoryName)
	s.True(strings.HasPrefix(product.Image, "https://media.test/"), product.Image)

	var list []struct {
		ProductID    string `json:"product_id"`
		CategoryName string `json:"category_name"`
	}
	status = s.doRequest(http.MethodGet, "/api/products", s.token, nil, &list)
	s.Require().Equal(http.StatusOK, status)
	found := false
	for _, entry := range list {
		if entry.ProductID == product.ProductID {
			found = true
			s.Equal("Kitchen", entry.CategoryName)
		}
	}
	s.True(found)

	// partial update keeps the image and the untouched fields
	var updated struct {
		Price float64 `json:"price"`
		Stock int     `json:"stock"`
		Image string  `json:"image"`
	}
	status = s.doMultipart(http.MethodPut, "/api/products/"+product.ProductID, s.token,
		map[string]string{"price": "59.95"}, nil, &updated)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(59.95, updated.Price)
	s.Equal(14, updated.Stock)
	s.Equal(product.Image, updated.Image)
	s.NotContains(s.media.deleted(), product.Image, "keeping the image must not delete it")

	// a new upload replaces the image and removes the old one from the store
	status = s.doMultipart(http.MethodPut, "/api/products/"+product.ProductID, s.token,
		nil, testImage, &updated)
	s.Require().Equal(http.StatusOK, status)
	s.NotEqual(product.Image, updated.Image)
	s.Contains(s.media.deleted(), product.Image)

	status = s.doRequest(http.MethodDelete, "/api/products/"+product.ProductID, s.token, nil, nil)
	s.Equal(http.StatusOK, status)
	s.Contains(s.media.deleted(), updated.Image, "deleting the product removes its image")
	status = s.doRequest(http.MethodDelete, "/api/products/"+product.ProductID, s.token, nil, nil)
	s.Equal(http.StatusNotFound, status)
}

func (s *CatalogTestSuite) TestProductValidation() {
	categoryID := s.createCategory("Outdoor")

	fields := func(overrides map[string]string) map[string]string {
		base := map[string]string{
			"name":        "Camping Tent",
			"price":       "129.99",
			"category_id": categoryID,
		}
		for key, value := range overrides {
			base[key] = value
		}
		return base
	}

	var response struct {
		Errors []struct {
			Field string `json:"field"`
		} `json:"errors"`
	}
	for _, price := range []string{"", "abc", "-5", "0", "1000001", "9.999"} {
		response.Errors = nil
		status := s.doMultipart(http.MethodPost, "/api/products", s.token,
			fields(map[string]string{"price": price}), testImage, &response)
		s.Require().Equal(http.StatusBadRequest, status, "price %q", price)
		priceError := false
		for _, fieldError := range response.Errors {
			priceError = priceError || fieldError.Field == "price"
		}
		s.True(priceError, "price %q must produce a price field error", price)
	}

	// a missing image is rejected after validation passes
	status := s.doMultipart(http.MethodPost, "/api/products", s.token, fields(nil), nil, nil)
	s.Equal(http.StatusBadRequest, status)

	// an unknown category rejects the create wholesale
	status = s.doMultipart(http.MethodPost, "/api/products", s.token,
		fields(map[string]string{"category_id": "b54d86ed-2bd6-41a7-a767-9c1e8f0e917c"}), testImage, nil)
	s.Equal(http.StatusBadRequest, status)
}

func (s *CatalogTestSuite) TestProductListDropsDanglingCategory() {
	categoryID := s.createCategory("Ephemeral")

	var product struct {
		ProductID string `json:"product_id"`
	}
	status := s.doMultipart(http.MethodPost, "/api/products", s.token, map[string]string{
		"name":        "Orphan Product",
		"price":       "10.00",
		"category_id": categoryID,
	}, testImage, &product)
	s.Require().Equal(http.StatusCreated, status)

	status = s.doRequest(http.MethodDelete, "/api/categories/"+categoryID, s.token, nil, nil)
	s.Require().Equal(http.StatusOK, status)

	var list []struct {
		ProductID string `json:"product_id"`
	}
	status = s.doRequest(http.MethodGet, "/api/products", s.token, nil, &list)
	s.Require().Equal(http.StatusOK, status)
	for _, entry := range list {
		s.NotEqual(product.ProductID, entry.ProductID, "dangling product must be dropped from the list")
	}
}
