package stock_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/almacen-api/internal/application/stock"
	"github.com/tu-usuario/almacen-api/internal/domain"
	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// fakeStore: repositorio de productos en memoria
// ──────────────────────────────────────────────────────────────────────────────

// fakeStore implementa repository.ProductRepository sobre un mapa protegido
// por mutex. Las operaciones de stock evalúan el predicado y aplican el delta
// bajo el mismo lock, igual que lo haría un UPDATE condicional en el store
// real. Permite inyectar fallos para ejercitar los caminos de compensación.
type fakeStore struct {
	mu   sync.Mutex
	byID map[string]*entity.Product

	adjustErr error // inyectado en AdjustStock
	upsertErr error // inyectado en UpsertStockByKey
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: make(map[string]*entity.Product)}
}

func clone(p *entity.Product) *entity.Product {
	cp := *p
	return &cp
}

// seed registra un producto y devuelve su id.
func (s *fakeStore) seed(sku, warehouse string, stockQty int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	p := &entity.Product{
		ID:        uuid.New().String(),
		SKU:       sku,
		Name:      "Producto " + sku,
		Category:  "general",
		Unit:      "unidad",
		Warehouse: warehouse,
		Stock:     stockQty,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.byID[p.ID] = p
	return p.ID
}

func (s *fakeStore) stockOf(id string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.byID[id]; ok {
		return p.Stock
	}
	return -1
}

func (s *fakeStore) findByKey(sku, warehouse string) *entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.byID {
		if p.SKU == sku && p.Warehouse == warehouse {
			return clone(p)
		}
	}
	return nil
}

func (s *fakeStore) totalStock() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, p := range s.byID {
		total += p.Stock
	}
	return total
}

func (s *fakeStore) Create(_ context.Context, product *entity.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.byID {
		if p.SKU == product.SKU && p.Warehouse == product.Warehouse {
			return domain.ErrDuplicate
		}
	}
	s.byID[product.ID] = clone(product)
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id string) (*entity.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.byID[id]; ok {
		return clone(p), nil
	}
	return nil, nil
}

func (s *fakeStore) GetBySKUAndWarehouse(_ context.Context, sku, warehouse string) (*entity.Product, error) {
	return s.findByKey(sku, warehouse), nil
}

func (s *fakeStore) Search(_ context.Context, _ string, _, _ int) ([]*entity.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Product, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, clone(p))
	}
	return out, len(out), nil
}

func (s *fakeStore) Update(_ context.Context, product *entity.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[product.ID]; !ok {
		return domain.ErrNotFound
	}
	s.byID[product.ID] = clone(product)
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *fakeStore) ExistsByID(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[id]
	return ok, nil
}

func (s *fakeStore) ExistsInWarehouse(_ context.Context, id, warehouse string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	return ok && p.Warehouse == warehouse, nil
}

func (s *fakeStore) AdjustStock(_ context.Context, id string, delta int64) (*entity.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adjustErr != nil {
		return nil, s.adjustErr
	}
	p, ok := s.byID[id]
	if !ok || (delta < 0 && p.Stock < -delta) {
		return nil, nil
	}
	p.Stock += delta
	p.UpdatedAt = time.Now()
	return clone(p), nil
}

func (s *fakeStore) AdjustStockInWarehouse(_ context.Context, id, warehouse string, delta int64) (*entity.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok || p.Warehouse != warehouse || (delta < 0 && p.Stock < -delta) {
		return nil, nil
	}
	p.Stock += delta
	p.UpdatedAt = time.Now()
	return clone(p), nil
}

func (s *fakeStore) UpsertStockByKey(_ context.Context, source *entity.Product, warehouse string, qty int64) (*entity.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	for _, p := range s.byID {
		if p.SKU == source.SKU && p.Warehouse == warehouse {
			p.Stock += qty
			p.UpdatedAt = time.Now()
			return clone(p), nil
		}
	}
	now := time.Now()
	p := &entity.Product{
		ID:        uuid.New().String(),
		SKU:       source.SKU,
		Name:      source.Name,
		Category:  source.Category,
		Unit:      source.Unit,
		Warehouse: warehouse,
		Stock:     qty,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.byID[p.ID] = p
	return clone(p), nil
}

var _ repository.ProductRepository = (*fakeStore)(nil)

// ──────────────────────────────────────────────────────────────────────────────
// Tests StockIn / StockOut
// ──────────────────────────────────────────────────────────────────────────────

func TestStockIn_AbonaCantidad(t *testing.T) {
	store := newFakeStore()
	id := store.seed("TOR-001", "central", 3)
	uc := stock.NewUseCase(store, nil, nil)

	p, err := uc.StockIn(context.Background(), id, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(10), p.Stock, "el stock debe quedar en 3+7")
}

func TestStockOut_DebitaCantidad(t *testing.T) {
	store := newFakeStore()
	id := store.seed("TOR-001", "central", 10)
	uc := stock.NewUseCase(store, nil, nil)

	p, err := uc.StockOut(context.Background(), id, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(6), p.Stock)
}

func TestStockOut_StockInsuficiente(t *testing.T) {
	store := newFakeStore()
	id := store.seed("TOR-001", "central", 3)
	uc := stock.NewUseCase(store, nil, nil)

	_, err := uc.StockOut(context.Background(), id, 5)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(3), store.stockOf(id), "un débito rechazado no debe mutar el stock")
}

func TestStockOut_HastaCeroExacto(t *testing.T) {
	store := newFakeStore()
	id := store.seed("TOR-001", "central", 5)
	uc := stock.NewUseCase(store, nil, nil)

	p, err := uc.StockOut(context.Background(), id, 5)
	require.NoError(t, err, "debitar exactamente el stock disponible es válido")
	assert.Equal(t, int64(0), p.Stock)
}

func TestStock_CantidadInvalida(t *testing.T) {
	store := newFakeStore()
	id := store.seed("TOR-001", "central", 5)
	uc := stock.NewUseCase(store, nil, nil)

	for _, qty := range []int64{0, -3} {
		_, err := uc.StockIn(context.Background(), id, qty)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
		_, err = uc.StockOut(context.Background(), id, qty)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	}
	assert.Equal(t, int64(5), store.stockOf(id))
}

func TestStock_ProductoInexistente(t *testing.T) {
	uc := stock.NewUseCase(newFakeStore(), nil, nil)

	_, err := uc.StockIn(context.Background(), uuid.New().String(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStock_IDMalformado(t *testing.T) {
	uc := stock.NewUseCase(newFakeStore(), nil, nil)

	_, err := uc.StockOut(context.Background(), "no-es-un-uuid", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// N débitos concurrentes de 1 unidad sobre stock N-1: exactamente uno debe
// perder, y el contador jamás queda negativo.
func TestStockOut_ConcurrenciaNoDejaStockNegativo(t *testing.T) {
	const n = 50
	store := newFakeStore()
	id := store.seed("TOR-001", "central", n-1)
	uc := stock.NewUseCase(store, nil, nil)

	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.StockOut(context.Background(), id, 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, insufficient int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, n-1, ok, "deben aplicarse exactamente N-1 débitos")
	assert.Equal(t, 1, insufficient, "exactamente un débito debe ser rechazado")
	assert.Equal(t, int64(0), store.stockOf(id), "el stock final debe ser cero, nunca negativo")
}
