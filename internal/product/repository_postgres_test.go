package product

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
)

var productColumns = []string{"id", "nombre", "descripcion", "precio", "stock", "imagen_url"}

func TestPostgresList(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	rows := sqlmock.NewRows(productColumns).
		AddRow("p1", "Mug", "white mug", "10.50", 3, "https://img/mug.png").
		AddRow("p2", "Cap", "blue cap", "7.25", 0, nil)
	mock.ExpectQuery("FROM productos").WillReturnRows(rows)

	products, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if !products[0].Price.Equal(decimal.RequireFromString("10.5")) {
		t.Fatalf("unexpected price %s", products[0].Price)
	}
	if products[0].ImageURL == nil || *products[0].ImageURL != "https://img/mug.png" {
		t.Fatalf("expected image url to be scanned")
	}
	if products[1].ImageURL != nil {
		t.Fatalf("expected nil image url for NULL column")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresList_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("FROM productos").WillReturnError(errors.New("connection refused"))

	if _, err := repo.List(context.Background()); err == nil {
		t.Fatalf("expected error from List")
	}
}

func TestPostgresGetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("FROM productos").WithArgs("nope").WillReturnRows(sqlmock.NewRows(productColumns))

	_, err = repo.GetByID(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("INSERT INTO productos").
		WithArgs(sqlmock.AnyArg(), "Mug", "white mug", sqlmock.AnyArg(), 3, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := repo.Create(context.Background(), Fields{
		Name:        "Mug",
		Description: "white mug",
		Price:       decimal.RequireFromString("10.50"),
		Stock:       3,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if id == "" {
		t.Fatalf("expected generated id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresUpdate_NoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("UPDATE productos").WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Update(context.Background(), "p9", Fields{Name: "x", Description: "y", Price: decimal.NewFromInt(1)})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("SELECT stock FROM productos").WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(5))
	mock.ExpectExec("UPDATE productos SET stock").WithArgs(3, "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	stock, err := repo.GetStock(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetStock returned error: %v", err)
	}
	if stock != 5 {
		t.Fatalf("expected stock 5, got %d", stock)
	}
	if err := repo.SetStock(context.Background(), "p1", 3); err != nil {
		t.Fatalf("SetStock returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("DELETE FROM productos").WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM productos").WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "p1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := repo.Delete(context.Background(), "p1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
