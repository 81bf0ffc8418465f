package product

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(seed []Product) (*fiber.App, *InMemoryRepository) {
	repo := NewInMemoryRepository(seed)
	h := NewHandler(NewService(repo))
	app := fiber.New()
	api := app.Group("/api/v1")
	h.RegisterPublicRoutes(api)
	h.RegisterAdminRoutes(api.Group("/admin"))
	return app, repo
}

func TestGetProducts(t *testing.T) {
	app, _ := newTestApp([]Product{{ID: "p1", Name: "Mug", Price: decimal.RequireFromString("10.50"), Stock: 2}})

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/products", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	var body []map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, "Mug", body[0]["nombre"])
	assert.Equal(t, "10.5", body[0]["precio"])
}

func TestGetProduct_NotFound(t *testing.T) {
	app, _ := newTestApp(nil)

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/products/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
}

func TestCreateProduct(t *testing.T) {
	app, repo := newTestApp(nil)

	payload := `{"nombre":" Mug ","descripcion":"white mug","precio":12.5,"stock":4,"imagenUrl":"  "}`
	req := httptest.NewRequest("POST", "/api/v1/admin/products", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, res.StatusCode)

	var created map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))
	assert.NotEmpty(t, created["id"])
	assert.Equal(t, "Mug", created["nombre"])
	assert.NotContains(t, created, "imagenUrl")

	stored, _ := repo.List(req.Context())
	assert.Len(t, stored, 1)
}

func TestCreateProduct_ReportsAllValidationErrors(t *testing.T) {
	app, repo := newTestApp(nil)

	req := httptest.NewRequest("POST", "/api/v1/admin/products", strings.NewReader(`{"precio":0,"stock":-1}`))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Len(t, body.Errors, 4)

	stored, _ := repo.List(req.Context())
	assert.Empty(t, stored)
}

func TestCreateProduct_RejectsSubCentPrice(t *testing.T) {
	app, repo := newTestApp(nil)

	req := httptest.NewRequest("POST", "/api/v1/admin/products",
		strings.NewReader(`{"nombre":"Mug","descripcion":"white","precio":"10.005","stock":1}`))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Contains(t, body.Errors, "precio")

	stored, _ := repo.List(req.Context())
	assert.Empty(t, stored)
}

func TestCreateProduct_MissingNumbers(t *testing.T) {
	app, _ := newTestApp(nil)

	req := httptest.NewRequest("POST", "/api/v1/admin/products", strings.NewReader(`{"nombre":"a","descripcion":"b"}`))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "precio is required", body.Errors["precio"])
	assert.Equal(t, "stock is required", body.Errors["stock"])
}

func TestCreateProduct_MalformedPrice(t *testing.T) {
	app, _ := newTestApp(nil)

	req := httptest.NewRequest("POST", "/api/v1/admin/products", strings.NewReader(`{"nombre":"a","descripcion":"b","precio":"abc","stock":1}`))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	app, repo := newTestApp([]Product{{ID: "p1", Name: "Mug", Description: "d", Price: decimal.NewFromInt(1), Stock: 1}})

	req := httptest.NewRequest("PUT", "/api/v1/admin/products/p1",
		strings.NewReader(`{"nombre":"Mug","descripcion":"new","precio":"2.00","stock":7}`))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	p, err := repo.GetByID(req.Context(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 7, p.Stock)
	assert.Equal(t, "new", p.Description)

	res, err = app.Test(httptest.NewRequest("DELETE", "/api/v1/admin/products/p1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, res.StatusCode)

	res, err = app.Test(httptest.NewRequest("DELETE", "/api/v1/admin/products/p1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
}
