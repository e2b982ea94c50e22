package repositories

import (
	"context"
	"errors"

	"produtos/internal/models"
)

// ErrNotFound is wrapped by repository errors for missing records.
var ErrNotFound = errors.New("not found")

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}
