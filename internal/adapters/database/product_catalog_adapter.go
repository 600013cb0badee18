package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/cartloom/marketplace/backend/internal/domain/entities"
	"github.com/cartloom/marketplace/backend/internal/domain/repositories"
	"github.com/cartloom/marketplace/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/cartloom/marketplace/backend/pkg/errors"
)

// ProductCatalogAdapter reads the replicated product catalog from
// Postgres for index feeding.
type ProductCatalogAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewProductCatalogAdapter creates a new product catalog adapter.
func NewProductCatalogAdapter(client *postgres.Client) repositories.ProductCatalogRepository {
	return &ProductCatalogAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Get returns a single catalog product by id.
func (a *ProductCatalogAdapter) Get(ctx context.Context, id string) (*entities.Product, error) {
	query, args, err := a.db.From("products").
		Select("id", "name", "description", "brand_name", "categories", "values",
			"price", "in_stock", "rating", "created_at").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build product query", err)
	}

	product := &entities.Product{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.BrandName,
		pq.Array(&product.Categories),
		pq.Array(&product.Values),
		&product.Price,
		&product.InStock,
		&product.Rating,
		&product.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("product not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get product", err)
	}
	return product, nil
}

// List returns catalog products in stable id order.
func (a *ProductCatalogAdapter) List(ctx context.Context, filter repositories.ProductCatalogFilter) ([]*entities.Product, error) {
	ds := a.db.From("products").
		Select("id", "name", "description", "brand_name", "categories", "values",
			"price", "in_stock", "rating", "created_at").
		Order(goqu.C("id").Asc())

	if filter.InStockOnly {
		ds = ds.Where(goqu.Ex{"in_stock": true})
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build product query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query products", err)
	}
	defer rows.Close()

	products := []*entities.Product{}
	for rows.Next() {
		product := &entities.Product{}
		if err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Description,
			&product.BrandName,
			pq.Array(&product.Categories),
			pq.Array(&product.Values),
			&product.Price,
			&product.InStock,
			&product.Rating,
			&product.CreatedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan product", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read products", err)
	}
	return products, nil
}
