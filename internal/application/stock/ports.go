package stock

import (
	"context"

	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción del store, pasando un
// repositorio atado a esa transacción. Commit si fn retorna nil, Rollback si no.
//
// Un runner puede retornar domain.ErrTxUnsupported si el store no garantiza
// atomicidad multi-registro; el orquestador cae entonces al modo fallback con
// compensación. Un runner nil equivale a ErrTxUnsupported.
type TxRunner interface {
	Run(ctx context.Context, fn func(products repository.ProductRepository) error) error
}
