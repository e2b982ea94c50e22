package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"produtos/internal/models"
	"produtos/internal/repositories"
	"produtos/internal/validation"
	"produtos/pkg/metrics"
)

// Routing keys of the events published after successful writes.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// EventPublisher delivers product events to a broker.
type EventPublisher interface {
	Publish(routingKey string, payload interface{}) error
}

// ProductEvent is the body of every published product event.
type ProductEvent struct {
	Event      string         `json:"event"`
	Product    models.Product `json:"product"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	validator *validation.Validator
	events    EventPublisher
	metrics   *metrics.EventMetrics
	log       zerolog.Logger
	now       func() time.Time
}

// NewProductService creates a new ProductService. events may be nil, in which
// case no events are published.
func NewProductService(repo repositories.ProductRepository, events EventPublisher, eventMetrics *metrics.EventMetrics, log zerolog.Logger) *ProductService {
	return &ProductService{
		repo:      repo,
		validator: validation.New(),
		events:    events,
		metrics:   eventMetrics,
		log:       log,
		now:       time.Now,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProductByID retrieves a single product by its ID. A missing product
// yields an error wrapping repositories.ErrNotFound.
func (s *ProductService) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct validates in and stores it under a new id.
func (s *ProductService) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	var product models.Product
	in.ApplyTo(&product)
	if err := s.repo.Create(ctx, &product); err != nil {
		return nil, err
	}

	s.publish(ctx, EventProductCreated, product)
	return &product, nil
}

// UpdateProduct replaces every mutable field of the product with the given id.
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, in models.ProductInput) (*models.Product, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	in.ApplyTo(product)
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.publish(ctx, EventProductUpdated, *product)
	return product, nil
}

// PatchProduct applies the fields present in changes to the product with the
// given id. The lookup happens first so a missing product is reported before
// the payload is looked at. The merged record must still be valid.
func (s *ProductService) PatchProduct(ctx context.Context, id int64, changes map[string]interface{}) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch, err := models.ParseProductPatch(changes)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return product, nil
	}

	patch.Apply(product)
	if err := s.validator.Struct(models.InputFromProduct(*product)); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.publish(ctx, EventProductUpdated, *product)
	return product, nil
}

// DeleteProduct removes the product with the given id and returns it.
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}

	s.publish(ctx, EventProductDeleted, *product)
	return product, nil
}

// SeedProducts creates inputs only when no product exists yet and returns how
// many were created.
func (s *ProductService) SeedProducts(ctx context.Context, inputs []models.ProductInput) (int, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	for i, in := range inputs {
		if _, err := s.CreateProduct(ctx, in); err != nil {
			return i, fmt.Errorf("failed to seed product %d: %w", i, err)
		}
	}
	return len(inputs), nil
}

// publish never fails the caller: the write it reports is already committed.
func (s *ProductService) publish(ctx context.Context, event string, product models.Product) {
	if s.events == nil {
		return
	}

	log := s.logger(ctx)
	err := s.events.Publish(event, ProductEvent{
		Event:      event,
		Product:    product,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		s.metrics.IncFailed(event)
		log.Error().Err(err).Str("event", event).Int64("product_id", product.ID).Msg("failed to publish product event")
		return
	}
	s.metrics.IncPublished(event)
}

// logger prefers the request-scoped logger stored in ctx.
func (s *ProductService) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.log
}
