package dto

import (
	"time"

	"github.com/tu-usuario/almacen-api/internal/domain/entity"
)

// CreateProductRequest body para POST /api/products.
type CreateProductRequest struct {
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	Category  string `json:"category"`
	Unit      string `json:"unit"`
	Warehouse string `json:"warehouse"`
}

// UpdateProductRequest body para PATCH /api/products/:id (campos opcionales).
type UpdateProductRequest struct {
	Name      *string `json:"name,omitempty"`
	SKU       *string `json:"sku,omitempty"`
	Category  *string `json:"category,omitempty"`
	Unit      *string `json:"unit,omitempty"`
	Warehouse *string `json:"warehouse,omitempty"`
}

// ProductResponse representación de un producto en respuestas.
type ProductResponse struct {
	ID        string    `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Unit      string    `json:"unit"`
	Warehouse string    `json:"warehouse"`
	Stock     int64     `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductListResponse página de productos.
type ProductListResponse struct {
	Data []ProductResponse `json:"data"`
	Meta PageMeta          `json:"meta"`
}

// ToProductResponse mapea la entidad al DTO de respuesta.
func ToProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		Category:  p.Category,
		Unit:      p.Unit,
		Warehouse: p.Warehouse,
		Stock:     p.Stock,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
