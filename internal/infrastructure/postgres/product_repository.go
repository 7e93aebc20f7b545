package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/almacen-api/internal/domain"
	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, sku, name, category, unit, warehouse, stock, created_at, updated_at`

// ProductRepo implementación de ProductRepository sobre PostgreSQL (usable con pool o tx).
// El contador stock solo se muta con los updates condicionales de este adaptador;
// el constraint CHECK (stock >= 0) de la tabla es la última línea de defensa.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto con stock inicial 0.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (id, sku, name, category, unit, warehouse, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.SKU, product.Name, product.Category, product.Unit,
		product.Warehouse, product.Stock, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID. Devuelve (nil, nil) si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, id), "get product")
}

// GetBySKUAndWarehouse obtiene el registro (sku, bodega). Devuelve (nil, nil) si no existe.
func (r *ProductRepo) GetBySKUAndWarehouse(ctx context.Context, sku, warehouse string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sku = $1 AND warehouse = $2`
	return r.scanOne(r.q.QueryRow(ctx, query, sku, warehouse), "get product by key")
}

// Search lista productos con filtro opcional sobre name/sku/category/warehouse y paginación.
func (r *ProductRepo) Search(ctx context.Context, search string, limit, offset int) ([]*entity.Product, int, error) {
	where := ``
	args := []any{}
	if search != "" {
		where = `WHERE name ILIKE $1 OR sku ILIKE $1 OR category ILIKE $1 OR warehouse ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	var total int
	countQuery := `SELECT count(*) FROM products ` + where
	if err := r.q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM products %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var list []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &p.Unit,
			&p.Warehouse, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, &p)
	}
	return list, total, rows.Err()
}

// Update actualiza campos descriptivos. No toca stock (se maneja vía ajustes condicionales).
func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	query := `
		UPDATE products
		SET sku = $2, name = $3, category = $4, unit = $5, warehouse = $6, updated_at = now()
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		product.ID, product.SKU, product.Name, product.Category, product.Unit, product.Warehouse,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina un producto por ID.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ExistsByID verifica existencia por ID.
func (r *ProductRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists product: %w", err)
	}
	return exists, nil
}

// ExistsInWarehouse verifica si el producto existe en la bodega indicada.
func (r *ProductRepo) ExistsInWarehouse(ctx context.Context, id, warehouse string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND warehouse = $2)`,
		id, warehouse).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists product in warehouse: %w", err)
	}
	return exists, nil
}

// AdjustStock aplica un delta en un solo UPDATE condicional. El predicado
// "delta >= 0 OR stock >= -delta" se evalúa y aplica atómicamente por fila;
// nunca hay estado intermedio con stock negativo ni carrera leer-escribir.
// Devuelve (nil, nil) si el predicado no coincidió (registro ausente o sin stock).
func (r *ProductRepo) AdjustStock(ctx context.Context, id string, delta int64) (*entity.Product, error) {
	query := `
		UPDATE products
		SET stock = stock + $2, updated_at = now()
		WHERE id = $1 AND ($2 >= 0 OR stock >= -$2)
		RETURNING ` + productColumns
	return r.scanOne(r.q.QueryRow(ctx, query, id, delta), "adjust stock")
}

// AdjustStockInWarehouse como AdjustStock pero exigiendo además la bodega
// (débito de origen en transferencias).
func (r *ProductRepo) AdjustStockInWarehouse(ctx context.Context, id, warehouse string, delta int64) (*entity.Product, error) {
	query := `
		UPDATE products
		SET stock = stock + $3, updated_at = now()
		WHERE id = $1 AND warehouse = $2 AND ($3 >= 0 OR stock >= -$3)
		RETURNING ` + productColumns
	return r.scanOne(r.q.QueryRow(ctx, query, id, warehouse, delta), "adjust stock in warehouse")
}

// UpsertStockByKey abona qty al registro (source.SKU, warehouse); si no existe
// lo crea copiando los campos descriptivos del origen. El ON CONFLICT sobre el
// índice único (sku, warehouse) hace la operación atómica: repetir la
// transferencia abona el mismo registro, nunca crea un duplicado.
func (r *ProductRepo) UpsertStockByKey(ctx context.Context, source *entity.Product, warehouse string, qty int64) (*entity.Product, error) {
	query := `
		INSERT INTO products (id, sku, name, category, unit, warehouse, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (sku, warehouse)
		DO UPDATE SET stock = products.stock + EXCLUDED.stock, updated_at = now()
		RETURNING ` + productColumns
	row := r.q.QueryRow(ctx, query,
		uuid.New().String(), source.SKU, source.Name, source.Category, source.Unit, warehouse, qty,
	)
	p, err := r.scanOne(row, "upsert stock")
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("upsert stock: sin fila retornada")
	}
	return p, nil
}

func (r *ProductRepo) scanOne(row pgx.Row, op string) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &p.Unit,
		&p.Warehouse, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}
