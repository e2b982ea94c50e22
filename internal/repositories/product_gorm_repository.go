package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"produtos/internal/models"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products ordered by id.
func (r *GORMProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	products := make([]models.Product, 0)
	if err := r.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %d %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return &product, nil
}

// Create inserts product and lets the database assign its id.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	product.ID = 0
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update writes every column of an existing product inside a transaction.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Select("*") also writes zero values such as an empty description.
		res := tx.Model(&models.Product{}).Where("id = ?", product.ID).Select("*").Updates(product)
		if res.Error != nil {
			return fmt.Errorf("failed to update product: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("product with ID %d %w", product.ID, ErrNotFound)
		}
		return nil
	})
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %d %w", id, ErrNotFound)
	}
	return nil
}

// Count returns the number of stored products.
func (r *GORMProductRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}
