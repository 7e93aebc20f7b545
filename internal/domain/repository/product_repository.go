package repository

import (
	"context"

	"github.com/tu-usuario/almacen-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia de productos.
//
// Las tres operaciones de stock (AdjustStock, AdjustStockInWarehouse,
// UpsertStockByKey) son actualizaciones condicionales atómicas: el predicado
// se evalúa y aplica en el store en una sola operación por registro, sin
// leer-luego-escribir. Es la única garantía de concurrencia que necesita el
// núcleo de inventario; no se usan locks en proceso.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySKUAndWarehouse(ctx context.Context, sku, warehouse string) (*entity.Product, error)
	// Search filtra por name/sku/category/warehouse (case-insensitive) con paginación.
	// Devuelve la página y el total de coincidencias.
	Search(ctx context.Context, search string, limit, offset int) ([]*entity.Product, int, error)
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id string) error

	ExistsByID(ctx context.Context, id string) (bool, error)
	ExistsInWarehouse(ctx context.Context, id, warehouse string) (bool, error)

	// AdjustStock aplica un delta con el predicado
	// "delta >= 0 OR stock >= -delta" evaluado atómicamente por el store.
	// Devuelve (nil, nil) si el predicado no coincidió con ningún registro;
	// el caller decide si fue NotFound o stock insuficiente.
	AdjustStock(ctx context.Context, id string, delta int64) (*entity.Product, error)

	// AdjustStockInWarehouse igual que AdjustStock pero el predicado exige
	// además warehouse = la bodega indicada (débito de transferencia).
	AdjustStockInWarehouse(ctx context.Context, id, warehouse string, delta int64) (*entity.Product, error)

	// UpsertStockByKey abona qty al registro (source.SKU, warehouse); si no
	// existe lo crea con los campos descriptivos de source y stock inicial 0
	// antes del abono. Atómico por la unicidad de (sku, warehouse).
	UpsertStockByKey(ctx context.Context, source *entity.Product, warehouse string, qty int64) (*entity.Product, error)
}
