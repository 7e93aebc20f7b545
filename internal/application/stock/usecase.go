package stock

import (
	"context"

	"github.com/google/uuid"
	"github.com/tu-usuario/almacen-api/internal/domain"
	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/domain/repository"
	"github.com/tu-usuario/almacen-api/pkg/logger"
)

// UseCase núcleo de mutación de inventario: entradas (stock-in), salidas
// (stock-out) y transferencias entre bodegas. Toda mutación del contador
// pasa por aquí; el resto del sistema solo lee.
//
// La corrección bajo concurrencia la da el update condicional atómico del
// store, no locks en proceso: débitos simultáneos sobre el mismo registro se
// serializan en el store y el que pierde observa stock insuficiente.
type UseCase struct {
	products repository.ProductRepository
	txRunner TxRunner // opcional; nil => modo fallback en transferencias
	log      *logger.Logger
}

// NewUseCase construye el caso de uso de stock.
func NewUseCase(products repository.ProductRepository, txRunner TxRunner, log *logger.Logger) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{products: products, txRunner: txRunner, log: log}
}

// StockIn abona qty unidades al producto. Falla con ErrInvalidQuantity si
// qty <= 0 y con ErrNotFound si el registro no existe.
func (uc *UseCase) StockIn(ctx context.Context, productID string, qty int64) (*entity.Product, error) {
	if err := validateID(productID); err != nil {
		return nil, err
	}
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	return uc.adjust(ctx, uc.products, productID, qty)
}

// StockOut debita qty unidades del producto. Falla con ErrInvalidQuantity,
// ErrNotFound o ErrInsufficientStock. Nunca deja el stock negativo: el
// predicado lo garantiza en el store, no una lectura previa.
func (uc *UseCase) StockOut(ctx context.Context, productID string, qty int64) (*entity.Product, error) {
	if err := validateID(productID); err != nil {
		return nil, err
	}
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	return uc.adjust(ctx, uc.products, productID, -qty)
}

// adjust aplica un delta con el update condicional del store. Si el predicado
// no coincidió, una verificación de existencia distingue NotFound de stock
// insuficiente; esa lectura clasifica el error, jamás decide la mutación.
func (uc *UseCase) adjust(ctx context.Context, repo repository.ProductRepository, productID string, delta int64) (*entity.Product, error) {
	updated, err := repo.AdjustStock(ctx, productID, delta)
	if err != nil {
		return nil, err
	}
	if updated != nil {
		return updated, nil
	}
	exists, err := repo.ExistsByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	return nil, domain.ErrInsufficientStock
}

// validateID rechaza identificadores sintácticamente inválidos antes de tocar
// el store (fail fast, sin round-trip desperdiciado).
func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrInvalidInput
	}
	return nil
}
