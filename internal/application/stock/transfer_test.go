package stock_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/almacen-api/internal/application/stock"
	"github.com/tu-usuario/almacen-api/internal/domain"
	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Runners de transacción para tests
// ──────────────────────────────────────────────────────────────────────────────

// snapshotTxRunner emula una transacción nativa: toma una copia del estado del
// store antes de ejecutar fn y la restaura completa si fn falla (rollback).
type snapshotTxRunner struct {
	store *fakeStore
}

func (r *snapshotTxRunner) Run(_ context.Context, fn func(products repository.ProductRepository) error) error {
	r.store.mu.Lock()
	snapshot := make(map[string]*entity.Product, len(r.store.byID))
	for id, p := range r.store.byID {
		snapshot[id] = clone(p)
	}
	r.store.mu.Unlock()

	if err := fn(r.store); err != nil {
		r.store.mu.Lock()
		r.store.byID = snapshot
		r.store.mu.Unlock()
		return err
	}
	return nil
}

// unsupportedTxRunner emula un store sin soporte transaccional.
type unsupportedTxRunner struct{}

func (unsupportedTxRunner) Run(_ context.Context, _ func(products repository.ProductRepository) error) error {
	return domain.ErrTxUnsupported
}

// transferIn arma la entrada estándar de los tests.
func transferIn(id string, qty int64) stock.TransferInput {
	return stock.TransferInput{
		ProductID:     id,
		FromWarehouse: "central",
		ToWarehouse:   "norte",
		Quantity:      qty,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests Transfer: camino feliz
// ──────────────────────────────────────────────────────────────────────────────

func TestTransfer_MueveStockEntreBodegas(t *testing.T) {
	modes := map[string]func(store *fakeStore) stock.TxRunner{
		"transaccional": func(store *fakeStore) stock.TxRunner { return &snapshotTxRunner{store: store} },
		"fallback":      func(store *fakeStore) stock.TxRunner { return nil },
	}
	for name, runner := range modes {
		t.Run(name, func(t *testing.T) {
			store := newFakeStore()
			id := store.seed("TOR-001", "central", 10)
			uc := stock.NewUseCase(store, runner(store), nil)

			res, err := uc.Transfer(context.Background(), transferIn(id, 4))
			require.NoError(t, err)
			assert.Equal(t, int64(6), res.From.Stock, "el origen debe quedar en 10-4")
			assert.Equal(t, int64(4), res.To.Stock, "el destino debe recibir 4")
			assert.Equal(t, "norte", res.To.Warehouse)
			assert.Equal(t, int64(10), store.totalStock(), "una transferencia no crea ni destruye unidades")
		})
	}
}

func TestTransfer_CreaRegistroDestinoConDatosDelOrigen(t *testing.T) {
	store := newFakeStore()
	id := store.seed("TOR-001", "central", 10)
	uc := stock.NewUseCase(store, nil, nil)

	res, err := uc.Transfer(context.Background(), transferIn(id, 3))
	require.NoError(t, err)

	dest := store.findByKey("TOR-001", "norte")
	require.NotNil(t, dest, "el registro destino debe crearse")
	assert.Equal(t, res.From.Name, dest.Name, "el destino hereda los campos descriptivos")
	assert.Equal(t, res.From.Category, dest.Category)
	assert.Equal(t, res.From.Unit, dest.Unit)
	assert.Equal(t, int64(3), dest.Stock)
	assert.NotEqual(t, id, dest.ID, "origen y destino son registros distintos")
}

func TestTransfer_DestinoExistenteAcumula(t *testing.T) {
	store := newFakeStore()
	id := store.seed("TOR-001", "central", 10)
	destID := store.seed("TOR-001", "norte", 2)
	uc := stock.NewUseCase(store, nil, nil)

	res, err := uc.Transfer(context.Background(), transferIn(id, 4))
	require.NoError(t, err)
	assert.Equal(t, destID, res.To.ID, "debe abonar sobre el registro existente, no crear otro")
	assert.Equal(t, int64(6), res.To.Stock, "2 existentes + 4 transferidas")
}

// Escenario completo: transferir 4 de 10 y luego intentar transferir 10.
func TestTransfer_SegundaTransferenciaSinStockNoMuta(t *testing.T) {
	store := newFakeStore()
	id := store.seed("TOR-001", "central", 10)
	uc := stock.NewUseCase(store, nil, nil)

	_, err := uc.Transfer(context.Background(), transferIn(id, 4))
	require.NoError(t, err)
	require.Equal(t, int64(6), store.stockOf(id))

	_, err = uc.Transfer(context.Background(), transferIn(id, 10))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(6), store.stockOf(id), "el origen no debe mutar en una transferencia rechazada")
	dest := store.findByKey("TOR-001", "norte")
	require.NotNil(t, dest)
	assert.Equal(t, int64(4), dest.Stock, "el destino tampoco debe mutar")
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests Transfer: validación y clasificación de errores
// ──────────────────────────────────────────────────────────────────────────────

func TestTransfer_EntradasInvalidas(t *testing.T) {
	store := newFakeStore()
	id := store.seed("TOR-001", "central", 10)
	uc := stock.NewUseCase(store, nil, nil)

	cases := map[string]struct {
		in   stock.TransferInput
		want error
	}{
		"id malformado": {
			in:   stock.TransferInput{ProductID: "xxx", FromWarehouse: "central", ToWarehouse: "norte", Quantity: 1},
			want: domain.ErrInvalidInput,
		},
		"misma bodega": {
			in:   stock.TransferInput{ProductID: id, FromWarehouse: "central", ToWarehouse: "central", Quantity: 1},
			want: domain.ErrInvalidInput,
		},
		"bodega origen vacía": {
			in:   stock.TransferInput{ProductID: id, FromWarehouse: "  ", ToWarehouse: "norte", Quantity: 1},
			want: domain.ErrInvalidInput,
		},
		"cantidad cero": {
			in:   stock.TransferInput{ProductID: id, FromWarehouse: "central", ToWarehouse: "norte", Quantity: 0},
			want: domain.ErrInvalidQuantity,
		},
		"cantidad negativa": {
			in:   stock.TransferInput{ProductID: id, FromWarehouse: "central", ToWarehouse: "norte", Quantity: -5},
			want: domain.ErrInvalidQuantity,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Transfer(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, int64(10), store.stockOf(id), "ninguna entrada inválida debe tocar el stock")
}

func TestTransfer_ProductoInexistente(t *testing.T) {
	uc := stock.NewUseCase(newFakeStore(), nil, nil)

	_, err := uc.Transfer(context.Background(), transferIn(uuid.New().String(), 1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransfer_ProductoEnOtraBodega(t *testing.T) {
	store := newFakeStore()
	id := store.seed("TOR-001", "sur", 10)
	uc := stock.NewUseCase(store, nil, nil)

	_, err := uc.Transfer(context.Background(), transferIn(id, 1))
	assert.ErrorIs(t, err, domain.ErrNotInWarehouse,
		"producto existente pero fuera de la bodega origen no es NotFound")
	assert.Equal(t, int64(10), store.stockOf(id))
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests Transfer: fallos del abono y compensación (modo fallback)
// ──────────────────────────────────────────────────────────────────────────────

func TestTransfer_AbonoFallidoCompensaElOrigen(t *testing.T) {
	store := newFakeStore()
	id := store.seed("TOR-001", "central", 10)
	store.upsertErr = errors.New("destino no disponible")
	uc := stock.NewUseCase(store, nil, nil)

	_, err := uc.Transfer(context.Background(), transferIn(id, 4))
	assert.ErrorIs(t, err, domain.ErrTransferFailed)
	assert.Equal(t, int64(10), store.stockOf(id), "la compensación debe restaurar el débito")
	assert.Nil(t, store.findByKey("TOR-001", "norte"), "no debe quedar registro destino")
}

func TestTransfer_CompensacionFallidaEscalaInconsistencia(t *testing.T) {
	store := newFakeStore()
	id := store.seed("TOR-001", "central", 10)
	store.upsertErr = errors.New("destino no disponible")
	store.adjustErr = errors.New("origen no disponible")
	uc := stock.NewUseCase(store, nil, nil)

	_, err := uc.Transfer(context.Background(), transferIn(id, 4))
	assert.ErrorIs(t, err, domain.ErrInconsistentTransfer)
	assert.Equal(t, int64(6), store.stockOf(id),
		"el débito queda confirmado; es la inconsistencia que se reporta")
}

func TestTransfer_AbonoConCtxExpiradoAunCompensa(t *testing.T) {
	store := newFakeStore()
	id := store.seed("TOR-001", "central", 10)
	store.upsertErr = context.DeadlineExceeded
	uc := stock.NewUseCase(store, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // el ctx del caller ya expiró cuando toca compensar

	_, err := uc.Transfer(ctx, transferIn(id, 4))
	assert.ErrorIs(t, err, domain.ErrTransferFailed)
	assert.Equal(t, int64(10), store.stockOf(id),
		"la compensación corre con deadline propio aunque el ctx original esté cancelado")
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests Transfer: modo transaccional
// ──────────────────────────────────────────────────────────────────────────────

func TestTransfer_TxAbonoFallidoRevierteTodo(t *testing.T) {
	store := newFakeStore()
	id := store.seed("TOR-001", "central", 10)
	store.upsertErr = errors.New("destino no disponible")
	uc := stock.NewUseCase(store, &snapshotTxRunner{store: store}, nil)

	_, err := uc.Transfer(context.Background(), transferIn(id, 4))
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrTransferFailed,
		"con tx nativa el rollback es del store, no hay compensación manual")
	assert.Equal(t, int64(10), store.stockOf(id), "el rollback debe restaurar el origen")
}

func TestTransfer_RunnerSinSoporteCaeAFallback(t *testing.T) {
	store := newFakeStore()
	id := store.seed("TOR-001", "central", 10)
	uc := stock.NewUseCase(store, unsupportedTxRunner{}, nil)

	res, err := uc.Transfer(context.Background(), transferIn(id, 4))
	require.NoError(t, err, "ErrTxUnsupported debe degradar a modo fallback, no fallar")
	assert.Equal(t, int64(6), res.From.Stock)
	assert.Equal(t, int64(4), res.To.Stock)
}

// Transferencias concurrentes en ambos sentidos: el total se conserva y ningún
// contador queda negativo.
func TestTransfer_ConcurrenciaConservaElTotal(t *testing.T) {
	store := newFakeStore()
	idA := store.seed("TOR-001", "central", 30)
	store.seed("TOR-001", "norte", 30)
	uc := stock.NewUseCase(store, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Transfer(context.Background(), transferIn(idA, 2))
			if err != nil && !errors.Is(err, domain.ErrInsufficientStock) {
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(60), store.totalStock(), "las transferencias conservan el total")
	assert.GreaterOrEqual(t, store.stockOf(idA), int64(0), "el origen nunca queda negativo")
}
