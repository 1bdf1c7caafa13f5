package memory

import (
	"context"

	"github.com/jhoicas/insanjo-pos/internal/application/ports"
	"github.com/jhoicas/insanjo-pos/internal/domain/repository"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks sobre una copia del estado; si fn no falla la copia pasa a ser el estado.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner sobre el store.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run serializa la transacción, ejecuta fn con repos atados a la copia y hace "commit" reemplazando el estado.
func (r *TxRunner) Run(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
	returnRepo repository.ReturnRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.txMu.Lock()
	defer r.store.txMu.Unlock()

	r.store.mu.RLock()
	work := r.store.st.clone()
	r.store.mu.RUnlock()

	sc := scope{store: r.store, tx: work}
	if err := fn(&ProductRepo{sc}, &SaleRepo{sc}, &ReturnRepo{sc}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.mu.Lock()
	r.store.st = work
	r.store.mu.Unlock()
	return nil
}
