package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/insanjo-pos/internal/domain"
	"github.com/jhoicas/insanjo-pos/internal/domain/entity"
	"github.com/jhoicas/insanjo-pos/internal/domain/repository"
)

var _ repository.ReturnRepository = (*ReturnRepo)(nil)

const returnColumns = `id, sale_id, product_id, name, price, quantity, total_amount, return_date, note`

// ReturnRepo implementación de ReturnRepository sobre PostgreSQL.
type ReturnRepo struct {
	q Querier
}

// NewReturnRepository construye el adaptador de devoluciones. Pasar pool o tx (Querier).
func NewReturnRepository(q Querier) *ReturnRepo {
	return &ReturnRepo{q: q}
}

func (r *ReturnRepo) Create(ctx context.Context, ret *entity.SaleReturn) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sale_returns (`+returnColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ret.ID, ret.SaleID, ret.ProductID, ret.Name, ret.Price, ret.Quantity, ret.TotalAmount, ret.ReturnDate, ret.Note,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert sale return: %w", err)
	}
	return nil
}

// GetByID nil, nil si no existe.
func (r *ReturnRepo) GetByID(ctx context.Context, id string) (*entity.SaleReturn, error) {
	ret, err := scanReturn(r.q.QueryRow(ctx, `SELECT `+returnColumns+` FROM sale_returns WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale return: %w", err)
	}
	return ret, nil
}

func (r *ReturnRepo) List(ctx context.Context) ([]*entity.SaleReturn, error) {
	rows, err := r.q.Query(ctx, `SELECT `+returnColumns+` FROM sale_returns ORDER BY return_date DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list sale returns: %w", err)
	}
	defer rows.Close()
	list := []*entity.SaleReturn{}
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale return: %w", err)
		}
		list = append(list, ret)
	}
	return list, rows.Err()
}

func (r *ReturnRepo) CountBySale(ctx context.Context, saleID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM sale_returns WHERE sale_id = $1`, saleID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sale returns: %w", err)
	}
	return n, nil
}

func (r *ReturnRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM sale_returns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete sale return: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanReturn(row pgx.Row) (*entity.SaleReturn, error) {
	var ret entity.SaleReturn
	err := row.Scan(&ret.ID, &ret.SaleID, &ret.ProductID, &ret.Name, &ret.Price, &ret.Quantity,
		&ret.TotalAmount, &ret.ReturnDate, &ret.Note)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}
