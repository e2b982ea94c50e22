package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"produtos/internal/models"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
type MemoryProductRepository struct {
	products map[int64]models.Product
	nextID   int64
	mu       sync.RWMutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[int64]models.Product),
	}
}

// GetAll returns all products ordered by id.
func (r *MemoryProductRepository) GetAll(_ context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		productList = append(productList, p)
	}
	sort.Slice(productList, func(i, j int) bool { return productList[i].ID < productList[j].ID })
	return productList, nil
}

// GetByID returns a copy of the product with the given id.
func (r *MemoryProductRepository) GetByID(_ context.Context, id int64) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %d %w", id, ErrNotFound)
	}
	return &product, nil
}

// Create stores product under the next sequential id.
func (r *MemoryProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	product.ID = r.nextID
	r.products[product.ID] = *product
	return nil
}

// Update replaces an existing product.
func (r *MemoryProductRepository) Update(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return fmt.Errorf("product with ID %d %w", product.ID, ErrNotFound)
	}
	r.products[product.ID] = *product
	return nil
}

// Delete removes a product by its ID.
func (r *MemoryProductRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product with ID %d %w", id, ErrNotFound)
	}
	delete(r.products, id)
	return nil
}

// Count returns the number of stored products.
func (r *MemoryProductRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.products)), nil
}
