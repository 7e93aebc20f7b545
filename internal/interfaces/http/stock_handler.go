package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/almacen-api/internal/application/dto"
	"github.com/tu-usuario/almacen-api/internal/application/stock"
	"github.com/tu-usuario/almacen-api/internal/domain"
)

// StockHandler maneja entradas, salidas y transferencias de stock (protegido).
type StockHandler struct {
	uc *stock.UseCase
}

// NewStockHandler construye el handler de stock.
func NewStockHandler(uc *stock.UseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// StockIn godoc
// @Summary      Entrada de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del producto"
// @Param        body  body  dto.AdjustStockRequest  true  "quantity (entero positivo)"
// @Success      200   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/products/{id}/stock-in [post]
func (h *StockHandler) StockIn(c *fiber.Ctx) error {
	return h.adjust(c, func(id string, qty int64) (any, error) {
		p, err := h.uc.StockIn(c.Context(), id, qty)
		if err != nil {
			return nil, err
		}
		return dto.ToProductResponse(p), nil
	})
}

// StockOut godoc
// @Summary      Salida de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del producto"
// @Param        body  body  dto.AdjustStockRequest  true  "quantity (entero positivo)"
// @Success      200   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products/{id}/stock-out [post]
func (h *StockHandler) StockOut(c *fiber.Ctx) error {
	return h.adjust(c, func(id string, qty int64) (any, error) {
		p, err := h.uc.StockOut(c.Context(), id, qty)
		if err != nil {
			return nil, err
		}
		return dto.ToProductResponse(p), nil
	})
}

func (h *StockHandler) adjust(c *fiber.Ctx, op func(id string, qty int64) (any, error)) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUANTITY", Message: "quantity debe ser un entero positivo"})
	}
	out, err := op(c.Params("id"), in.Quantity)
	if err != nil {
		return stockError(c, err)
	}
	return c.JSON(out)
}

// Transfer godoc
// @Summary      Transferencia de stock entre bodegas
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "product_id, from_warehouse, to_warehouse, quantity"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/products/transfer [post]
func (h *StockHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.uc.Transfer(c.Context(), stock.TransferInput{
		ProductID:     in.ProductID,
		FromWarehouse: in.FromWarehouse,
		ToWarehouse:   in.ToWarehouse,
		Quantity:      in.Quantity,
	})
	if err != nil {
		return stockError(c, err)
	}
	return c.JSON(dto.TransferResponse{
		From: dto.ToProductResponse(res.From),
		To:   dto.ToProductResponse(res.To),
	})
}

// stockError mapea errores del núcleo de stock a códigos HTTP.
// ErrInconsistentTransfer se responde genérico: el detalle va solo al log de operadores.
func stockError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUANTITY", Message: "quantity debe ser un entero positivo"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotInWarehouse):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "NOT_IN_WAREHOUSE", Message: "el producto no existe en la bodega de origen"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "producto no encontrado"})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente"})
	case errors.Is(err, domain.ErrTransferFailed):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "TRANSFER_FAILED", Message: "la transferencia no se realizó; es seguro reintentar"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}
