package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/almacen-api/internal/application/dto"
	"github.com/tu-usuario/almacen-api/internal/domain"
	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/domain/repository"
	"github.com/tu-usuario/almacen-api/pkg/logger"
)

// ProductUseCase CRUD y búsqueda de productos. No muta stock: eso es
// exclusivo del núcleo de inventario (paquete stock).
type ProductUseCase struct {
	repo repository.ProductRepository
	log  *logger.Logger
}

// NewProductUseCase construye el caso de uso de productos.
func NewProductUseCase(repo repository.ProductRepository, log *logger.Logger) *ProductUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ProductUseCase{repo: repo, log: log}
}

// Create registra un producto nuevo con stock 0. El par (sku, warehouse) debe
// ser único; si ya existe retorna ErrDuplicate.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*entity.Product, error) {
	name := strings.TrimSpace(in.Name)
	sku := strings.TrimSpace(in.SKU)
	category := strings.TrimSpace(in.Category)
	unit := strings.TrimSpace(in.Unit)
	warehouse := strings.TrimSpace(in.Warehouse)
	if name == "" || sku == "" || category == "" || unit == "" || warehouse == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	product := &entity.Product{
		ID:        uuid.New().String(),
		SKU:       sku,
		Name:      name,
		Category:  category,
		Unit:      unit,
		Warehouse: warehouse,
		Stock:     0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// List busca productos con filtro y paginación.
func (uc *ProductUseCase) List(ctx context.Context, search string, page dto.PageRequest) ([]*entity.Product, int, error) {
	page.DefaultPage()
	return uc.repo.Search(ctx, strings.TrimSpace(search), page.Limit, page.Offset())
}

// GetByID obtiene un producto; ErrNotFound si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrInvalidInput
	}
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// Update aplica cambios parciales a los campos descriptivos. Nunca toca stock.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*entity.Product, error) {
	product, err := uc.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := false
	apply := func(dst *string, src *string) error {
		if src == nil {
			return nil
		}
		v := strings.TrimSpace(*src)
		if v == "" {
			return domain.ErrInvalidInput
		}
		*dst = v
		changed = true
		return nil
	}
	for _, pair := range []struct {
		dst *string
		src *string
	}{
		{&product.Name, in.Name},
		{&product.SKU, in.SKU},
		{&product.Category, in.Category},
		{&product.Unit, in.Unit},
		{&product.Warehouse, in.Warehouse},
	} {
		if err := apply(pair.dst, pair.src); err != nil {
			return nil, err
		}
	}
	if !changed {
		return nil, domain.ErrInvalidInput
	}

	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete elimina el producto. Se permite aunque tenga stock (decisión del
// sistema original); si había unidades se deja rastro en el log.
func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	product, err := uc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if product.Stock > 0 {
		uc.log.Warn().
			Str("product_id", product.ID).
			Str("sku", product.SKU).
			Str("warehouse", product.Warehouse).
			Int64("stock", product.Stock).
			Msg("producto eliminado con stock distinto de cero")
	}
	return uc.repo.Delete(ctx, id)
}
