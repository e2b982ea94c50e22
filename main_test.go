package main

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"produtos/internal/repositories"
	"produtos/internal/services"
	"produtos/internal/validation"
)

func TestSampleProductsAreValid(t *testing.T) {
	v := validation.New()
	for _, in := range sampleProducts() {
		assert.NoError(t, v.Struct(in), *in.Name)
	}
}

func TestSeedProductsOnlyFillsEmptyStore(t *testing.T) {
	repo := repositories.NewMemoryProductRepository()
	service := services.NewProductService(repo, nil, nil, zerolog.Nop())

	seedProducts(service, zerolog.Nop())
	seedProducts(service, zerolog.Nop())

	products, err := service.GetAllProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, len(sampleProducts()))
	assert.Equal(t, "Frango Frito", products[0].Name)
	assert.Equal(t, int64(1), products[0].ID)
}
