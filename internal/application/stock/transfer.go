package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tu-usuario/almacen-api/internal/domain"
	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

// compensationTimeout deadline propio para el abono compensatorio: el ctx del
// caller puede haber expirado justo entre débito y abono.
const compensationTimeout = 5 * time.Second

// TransferInput entrada normalizada para una transferencia entre bodegas.
type TransferInput struct {
	ProductID     string
	FromWarehouse string
	ToWarehouse   string
	Quantity      int64
}

// TransferResult ambos registros después de una transferencia exitosa.
type TransferResult struct {
	From *entity.Product
	To   *entity.Product
}

// Transfer mueve Quantity unidades del producto desde FromWarehouse hacia
// ToWarehouse. Si el registro destino (sku, ToWarehouse) no existe se crea
// con los campos descriptivos del origen.
//
// El débito en origen se intenta estrictamente antes de cualquier mutación
// del destino, en ambos modos. Con transacción nativa el par débito+abono
// es atómico; sin ella (modo fallback) un abono fallido dispara exactamente
// una compensación sobre el origen:
//
//	Debited -> Crediting -> Credited
//	                     -> CreditFailed -> Compensating -> Compensated          (ErrTransferFailed)
//	                                                     -> CompensationFailed   (ErrInconsistentTransfer)
func (uc *UseCase) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if err := uc.validateTransfer(in); err != nil {
		return nil, err
	}

	// Modo transaccional: débito y abono en una unidad atómica del store.
	if uc.txRunner != nil {
		var res *TransferResult
		err := uc.txRunner.Run(ctx, func(products repository.ProductRepository) error {
			r, err := uc.transferCore(ctx, products, in)
			if err != nil {
				return err
			}
			res = r
			return nil
		})
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, domain.ErrTxUnsupported) {
			return nil, err
		}
		// El store no soporta transacciones: continuar en modo fallback.
	}

	return uc.transferFallback(ctx, in)
}

// transferCore débito guardado en origen y abono/upsert en destino, sobre el
// repositorio recibido (atado a la tx del caller cuando aplica).
func (uc *UseCase) transferCore(ctx context.Context, products repository.ProductRepository, in TransferInput) (*TransferResult, error) {
	from, err := uc.debitSource(ctx, products, in)
	if err != nil {
		return nil, err
	}
	to, err := products.UpsertStockByKey(ctx, from, in.ToWarehouse, in.Quantity)
	if err != nil {
		return nil, err
	}
	return &TransferResult{From: from, To: to}, nil
}

// transferFallback ejecuta débito y abono como operaciones independientes.
// Si el abono falla, un único intento de compensación restaura el origen;
// si la compensación también falla se escala como alerta de consistencia.
func (uc *UseCase) transferFallback(ctx context.Context, in TransferInput) (*TransferResult, error) {
	from, err := uc.debitSource(ctx, uc.products, in)
	if err != nil {
		return nil, err
	}

	to, creditErr := uc.products.UpsertStockByKey(ctx, from, in.ToWarehouse, in.Quantity)
	if creditErr == nil {
		return &TransferResult{From: from, To: to}, nil
	}

	// El débito ya está confirmado; compensar con deadline propio, el ctx
	// original pudo haber expirado (un abono por timeout cuenta como fallido).
	compCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if _, compErr := uc.products.AdjustStock(compCtx, from.ID, in.Quantity); compErr != nil {
		// Débito sin revertir: conciliación operativa, no reintento automático.
		uc.log.Error().
			Err(compErr).
			AnErr("credit_error", creditErr).
			Str("product_id", in.ProductID).
			Str("sku", from.SKU).
			Str("from_warehouse", in.FromWarehouse).
			Str("to_warehouse", in.ToWarehouse).
			Int64("quantity", in.Quantity).
			Msg("alerta de consistencia: compensación de transferencia fallida")
		return nil, fmt.Errorf("%w: abono falló (%v) y la compensación también (%v)",
			domain.ErrInconsistentTransfer, creditErr, compErr)
	}

	uc.log.Warn().
		Err(creditErr).
		Str("product_id", in.ProductID).
		Str("from_warehouse", in.FromWarehouse).
		Str("to_warehouse", in.ToWarehouse).
		Int64("quantity", in.Quantity).
		Msg("abono en destino falló; stock de origen restaurado")
	return nil, fmt.Errorf("%w: %v", domain.ErrTransferFailed, creditErr)
}

// debitSource debita el origen con el predicado warehouse+stock evaluado por
// el store. Si no coincidió ningún registro, clasifica: id desconocido,
// producto fuera de la bodega origen, o stock insuficiente.
func (uc *UseCase) debitSource(ctx context.Context, products repository.ProductRepository, in TransferInput) (*entity.Product, error) {
	from, err := products.AdjustStockInWarehouse(ctx, in.ProductID, in.FromWarehouse, -in.Quantity)
	if err != nil {
		return nil, err
	}
	if from != nil {
		return from, nil
	}
	inWarehouse, err := products.ExistsInWarehouse(ctx, in.ProductID, in.FromWarehouse)
	if err != nil {
		return nil, err
	}
	if !inWarehouse {
		exists, err := products.ExistsByID(ctx, in.ProductID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrNotInWarehouse
	}
	return nil, domain.ErrInsufficientStock
}

// validateTransfer normaliza y rechaza entradas malformadas antes de tocar el store.
func (uc *UseCase) validateTransfer(in TransferInput) error {
	if err := validateID(in.ProductID); err != nil {
		return err
	}
	if strings.TrimSpace(in.FromWarehouse) == "" || strings.TrimSpace(in.ToWarehouse) == "" {
		return domain.ErrInvalidInput
	}
	if in.FromWarehouse == in.ToWarehouse {
		return domain.ErrInvalidInput
	}
	if in.Quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	return nil
}
