package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/insanjo-pos/internal/domain"
	"github.com/jhoicas/insanjo-pos/internal/domain/entity"
	"github.com/jhoicas/insanjo-pos/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleLineColumns = `sale_id, product_id, name, quantity, price, total_amount, expenses, note, returned_quantity`

// SaleRepo implementación de SaleRepository sobre PostgreSQL (tablas sales y sale_lines).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador de ventas. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create inserta la venta y sus líneas en un batch. Debe llamarse dentro de una tx.
func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	if _, err := r.q.Exec(ctx, `INSERT INTO sales (id, sale_date) VALUES ($1, $2)`, sale.ID, sale.SaleDate); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	for i, l := range sale.Lines {
		_, err := r.q.Exec(ctx, `
			INSERT INTO sale_lines (sale_id, position, product_id, name, quantity, price, total_amount, expenses, note, returned_quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			sale.ID, i, l.ProductID, l.Name, l.Quantity, l.Price, l.TotalAmount, l.Expenses, l.Note, l.ReturnedQuantity,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.NewValidationError("items", "producto repetido en la venta")
			}
			return fmt.Errorf("insert sale line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la venta con sus líneas. nil, nil si no existe.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, `SELECT id, sale_date FROM sales WHERE id = $1`, id)
}

// GetForUpdate igual que GetByID bloqueando la fila de la venta (las líneas solo se modifican con ella bloqueada).
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, `SELECT id, sale_date FROM sales WHERE id = $1 FOR UPDATE`, id)
}

func (r *SaleRepo) get(ctx context.Context, query, id string) (*entity.Sale, error) {
	var s entity.Sale
	if err := r.q.QueryRow(ctx, query, id).Scan(&s.ID, &s.SaleDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	lines, err := r.loadLines(ctx, []string{s.ID})
	if err != nil {
		return nil, err
	}
	s.Lines = lines[s.ID]
	return &s, nil
}

// List ventas con sale_date en [from, to] (nil = sin límite), más recientes primero.
func (r *SaleRepo) List(ctx context.Context, from, to *time.Time) ([]*entity.Sale, error) {
	var conds []string
	var args []any
	if from != nil {
		args = append(args, *from)
		conds = append(conds, fmt.Sprintf("sale_date >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, *to)
		conds = append(conds, fmt.Sprintf("sale_date <= $%d", len(args)))
	}
	query := `SELECT id, sale_date FROM sales`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY sale_date DESC, id`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	list := []*entity.Sale{}
	var ids []string
	for rows.Next() {
		var s entity.Sale
		if err := rows.Scan(&s.ID, &s.SaleDate); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, &s)
		ids = append(ids, s.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	if len(ids) == 0 {
		return list, nil
	}
	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, s := range list {
		s.Lines = lines[s.ID]
	}
	return list, nil
}

func (r *SaleRepo) loadLines(ctx context.Context, saleIDs []string) (map[string][]entity.SaleLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+saleLineColumns+` FROM sale_lines
		WHERE sale_id = ANY($1) ORDER BY sale_id, position`, saleIDs)
	if err != nil {
		return nil, fmt.Errorf("list sale lines: %w", err)
	}
	defer rows.Close()
	out := make(map[string][]entity.SaleLine, len(saleIDs))
	for rows.Next() {
		var saleID string
		var l entity.SaleLine
		if err := rows.Scan(&saleID, &l.ProductID, &l.Name, &l.Quantity, &l.Price, &l.TotalAmount,
			&l.Expenses, &l.Note, &l.ReturnedQuantity); err != nil {
			return nil, fmt.Errorf("scan sale line: %w", err)
		}
		out[saleID] = append(out[saleID], l)
	}
	return out, rows.Err()
}

// UpdateLineDetails actualiza gastos y nota de una línea.
func (r *SaleRepo) UpdateLineDetails(ctx context.Context, saleID, productID string, expenses decimal.Decimal, note string) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE sale_lines SET expenses = $3, note = $4
		WHERE sale_id = $1 AND product_id = $2`, saleID, productID, expenses, note)
	if err != nil {
		if isCheckViolation(err) {
			return domain.NewValidationError("expenses", "no puede ser negativo")
		}
		return fmt.Errorf("update sale line: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AddReturnedQuantity returned_quantity += delta solo si el resultado queda en [0, quantity].
func (r *SaleRepo) AddReturnedQuantity(ctx context.Context, saleID, productID string, delta int) (int, error) {
	var returned int
	err := r.q.QueryRow(ctx, `
		UPDATE sale_lines SET returned_quantity = returned_quantity + $3
		WHERE sale_id = $1 AND product_id = $2
			AND returned_quantity + $3 >= 0 AND returned_quantity + $3 <= quantity
		RETURNING returned_quantity`, saleID, productID, delta).Scan(&returned)
	if err == nil {
		return returned, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("update returned quantity: %w", err)
	}

	var quantity int
	err = r.q.QueryRow(ctx, `
		SELECT quantity, returned_quantity FROM sale_lines
		WHERE sale_id = $1 AND product_id = $2`, saleID, productID).Scan(&quantity, &returned)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("update returned quantity: %w", err)
	}
	if delta > 0 {
		return 0, &domain.ExceedsAvailableError{
			SaleID:    saleID,
			ProductID: productID,
			Remaining: quantity - returned,
			Requested: delta,
		}
	}
	return 0, fmt.Errorf("cantidad devuelta negativa en la venta %s: %w", saleID, domain.ErrConflict)
}

// Delete elimina la venta (las líneas caen por ON DELETE CASCADE).
func (r *SaleRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
