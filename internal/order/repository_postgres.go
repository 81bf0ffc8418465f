package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	insertOrderQuery = `
		INSERT INTO pedidos (id, usuario_id, fecha, estado, total, lineas)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	listOrdersForUserQuery = `
		SELECT id, usuario_id, fecha, estado, total, lineas
		FROM pedidos
		WHERE usuario_id = $1
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, ord Order) (string, error) {
	lines, err := json.Marshal(ord.Lines)
	if err != nil {
		return "", fmt.Errorf("failed to marshal order lines: %w", err)
	}

	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx, insertOrderQuery,
		id,
		ord.UserID,
		ord.CreatedAt,
		string(ord.Status),
		ord.Total,
		lines,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert order: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, listOrdersForUserQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	out := make([]Order, 0)
	for rows.Next() {
		var (
			o      Order
			status string
			lines  []byte
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.CreatedAt, &status, &o.Total, &lines); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(lines, &o.Lines); err != nil {
			return nil, fmt.Errorf("failed to decode order lines: %w", err)
		}
		o.Status = Status(status)
		out = append(out, o)
	}
	return out, rows.Err()
}
