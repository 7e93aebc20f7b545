package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrInvalidQuantity    = errors.New("la cantidad debe ser un entero positivo")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrInsufficientStock  = errors.New("stock insuficiente")

	// ErrNotInWarehouse el producto existe pero no en la bodega de origen indicada.
	ErrNotInWarehouse = errors.New("el producto no existe en la bodega indicada")

	// ErrTxUnsupported el store no soporta transacciones multi-registro.
	// Activa el modo fallback del orquestador de transferencias; nunca llega al caller.
	ErrTxUnsupported = errors.New("el store no soporta transacciones")

	// ErrTransferFailed falló el abono en destino pero la compensación restauró el origen.
	// La transferencia no ocurrió; es seguro reintentar.
	ErrTransferFailed = errors.New("transferencia fallida; el stock de origen fue restaurado")

	// ErrInconsistentTransfer falló el abono en destino Y la compensación del origen.
	// El débito quedó sin revertir: requiere conciliación manual, no reintento.
	ErrInconsistentTransfer = errors.New("transferencia inconsistente; requiere conciliación manual")
)
