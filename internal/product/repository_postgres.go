package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	listProductsQuery = `
		SELECT id, nombre, descripcion, precio, stock, imagen_url
		FROM productos
		ORDER BY created_at, id
	`
	getProductByIDQuery = `
		SELECT id, nombre, descripcion, precio, stock, imagen_url
		FROM productos
		WHERE id = $1
	`
	insertProductQuery = `
		INSERT INTO productos (id, nombre, descripcion, precio, stock, imagen_url)
		VALUES ($1,$2,$3,$4,$5,$6)
	`
	updateProductQuery = `
		UPDATE productos
		SET nombre = $1,
			descripcion = $2,
			precio = $3,
			stock = $4,
			imagen_url = $5
		WHERE id = $6
	`
	deleteProductQuery = `DELETE FROM productos WHERE id = $1`
	getStockQuery      = `SELECT stock FROM productos WHERE id = $1`
	setStockQuery      = `UPDATE productos SET stock = $1 WHERE id = $2`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, listProductsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, getProductByIDQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return p, err
}

func (r *PostgresRepository) Create(ctx context.Context, f Fields) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, insertProductQuery,
		id,
		f.Name,
		f.Description,
		f.Price,
		f.Stock,
		f.ImageURL,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, f Fields) error {
	result, err := r.db.ExecContext(ctx, updateProductQuery,
		f.Name,
		f.Description,
		f.Price,
		f.Stock,
		f.ImageURL,
		id,
	)
	return checkAffected(result, err, id)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, deleteProductQuery, id)
	return checkAffected(result, err, id)
}

func (r *PostgresRepository) GetStock(ctx context.Context, id string) (int, error) {
	var stock int
	err := r.db.QueryRowContext(ctx, getStockQuery, id).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return stock, err
}

func (r *PostgresRepository) SetStock(ctx context.Context, id string, stock int) error {
	result, err := r.db.ExecContext(ctx, setStockQuery, stock, id)
	return checkAffected(result, err, id)
}

func checkAffected(result sql.Result, err error, id string) error {
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (Product, error) {
	var (
		p   Product
		img sql.NullString
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &img); err != nil {
		return Product{}, err
	}
	if img.Valid {
		p.ImageURL = &img.String
	}
	return p, nil
}
