package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"produtos/internal/models"
	"produtos/internal/repositories"
	"produtos/internal/services"
	"produtos/internal/validation"
)

// Response texts clients depend on.
const (
	msgCreated     = "Produto inserido com sucesso"
	msgUpdated     = "Produto atualizado com sucesso"
	msgPatched     = "Alterado com sucesso"
	msgDeleted     = "Produto excluído com sucesso"
	msgNotFound    = "Produto não encontrado"
	msgInvalidBody = "Invalid request body"
	msgInvalidID   = "Invalid product id"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
	log     zerolog.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, log zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		log:     log,
	}
}

// RegisterRoutes registers the product routes under /produtos.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/produtos")
	productRoutes.Get("/selecionar", h.HandleListProducts)
	productRoutes.Post("/inserir", h.HandleCreateProduct)
	productRoutes.Put("/atualizar/:id", h.HandleUpdateProduct)
	productRoutes.Patch("/atualizarParcial/:id", h.HandlePatchProduct)
	productRoutes.Delete("/excluir/:id", h.HandleDeleteProduct)
}

// HandleListProducts returns every product.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		h.logger(c).Error().Err(err).Msg("error getting all products")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
			"error":   err.Error(),
		})
	}
	return c.JSON(products)
}

// HandleCreateProduct validates and stores a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var in models.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, msgInvalidBody, err)
	}

	product, err := h.service.CreateProduct(c.UserContext(), in)
	if err != nil {
		if fieldErrs, ok := asFieldErrors(err); ok {
			return c.Status(fiber.StatusBadRequest).JSON(fieldErrs)
		}
		h.logger(c).Error().Err(err).Msg("error creating product")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create product",
			"error":   err.Error(),
		})
	}

	h.logger(c).Info().Int64("product_id", product.ID).Msg("product created")
	return c.Status(fiber.StatusOK).SendString(msgCreated)
}

// HandleUpdateProduct replaces every mutable field of a product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return badRequest(c, msgInvalidID, err)
	}

	var in models.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, msgInvalidBody, err)
	}

	if _, err := h.service.UpdateProduct(c.UserContext(), id, in); err != nil {
		if fieldErrs, ok := asFieldErrors(err); ok {
			return c.Status(fiber.StatusBadRequest).JSON(fieldErrs)
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).SendString(msgNotFound)
		}
		h.logger(c).Error().Err(err).Int64("product_id", id).Msg("error updating product")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update product",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).SendString(msgUpdated)
}

// HandlePatchProduct applies a sparse set of changes to a product. A missing
// product answers 404 with an empty body whatever the payload holds.
func (h *ProductHandler) HandlePatchProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return badRequest(c, msgInvalidID, err)
	}

	changes, decodeErr := decodeChanges(c.Body())
	if decodeErr != nil {
		if _, err := h.service.GetProductByID(c.UserContext(), id); errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).Send(nil)
		}
		return badRequest(c, msgInvalidBody, decodeErr)
	}

	if _, err := h.service.PatchProduct(c.UserContext(), id, changes); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).Send(nil)
		}
		if fieldErrs, ok := asFieldErrors(err); ok {
			return c.Status(fiber.StatusBadRequest).JSON(fieldErrs)
		}
		h.logger(c).Error().Err(err).Int64("product_id", id).Msg("error patching product")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update product",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).SendString(msgPatched)
}

// HandleDeleteProduct removes a product after checking it exists.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return badRequest(c, msgInvalidID, err)
	}

	if _, err := h.service.DeleteProduct(c.UserContext(), id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).SendString(msgNotFound)
		}
		h.logger(c).Error().Err(err).Int64("product_id", id).Msg("error deleting product")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete product",
			"error":   err.Error(),
		})
	}

	h.logger(c).Info().Int64("product_id", id).Msg("product deleted")
	return c.Status(fiber.StatusOK).SendString(msgDeleted)
}

func (h *ProductHandler) logger(c *fiber.Ctx) *zerolog.Logger {
	if l := zerolog.Ctx(c.UserContext()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &h.log
}

func productID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id must be an integer: %w", err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("id must be positive, got %d", id)
	}
	return id, nil
}

// decodeChanges keeps numbers as json.Number so integers are not rounded
// through float64.
func decodeChanges(body []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var changes map[string]interface{}
	if err := dec.Decode(&changes); err != nil {
		return nil, err
	}
	if changes == nil {
		changes = map[string]interface{}{}
	}
	return changes, nil
}

func badRequest(c *fiber.Ctx, message string, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

func asFieldErrors(err error) (validation.FieldErrors, bool) {
	var fieldErrs validation.FieldErrors
	if errors.As(err, &fieldErrs) {
		return fieldErrs, true
	}
	return nil, false
}
