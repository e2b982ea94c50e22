package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cast"

	"produtos/internal/validation"
)

// Partial update keys. quantidadeestoque is the lowercase spelling older
// clients send.
const (
	fieldName       = "nome"
	fieldDesc       = "descricao"
	fieldPrice      = "preco"
	fieldStock      = "quantidadeEstoque"
	fieldStockLower = "quantidadeestoque"
)

// ProductPatch is a sparse update. A nil field was absent from the request.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *int
}

// ParseProductPatch reads a decoded JSON object into a ProductPatch.
// Numbers may arrive as JSON numbers or numeric strings. Objects decoded with
// json.Decoder.UseNumber keep integer precision. Unknown keys are ignored.
func ParseProductPatch(changes map[string]interface{}) (ProductPatch, error) {
	var patch ProductPatch
	errs := make(validation.FieldErrors)

	if raw, ok := changes[fieldName]; ok {
		s, isString := raw.(string)
		if !isString {
			errs.Add(fieldName, "O nome deve ser um texto")
		} else {
			patch.Name = &s
		}
	}

	if raw, ok := changes[fieldDesc]; ok {
		switch v := raw.(type) {
		case nil:
			empty := ""
			patch.Description = &empty
		case string:
			patch.Description = &v
		default:
			errs.Add(fieldDesc, "A descrição deve ser um texto")
		}
	}

	if raw, ok := changes[fieldPrice]; ok {
		price, err := toFloat(raw)
		if err != nil {
			errs.Add(fieldPrice, "O preço deve ser um número")
		} else {
			patch.Price = &price
		}
	}

	for _, key := range []string{fieldStock, fieldStockLower} {
		raw, ok := changes[key]
		if !ok {
			continue
		}
		stock, err := toInt(raw)
		if err != nil {
			errs.Add(fieldStock, "A quantidade deve ser um número inteiro")
			continue
		}
		patch.Stock = &stock
		break
	}

	if len(errs) > 0 {
		return ProductPatch{}, errs
	}
	return patch, nil
}

// Apply copies the present fields onto p.
func (patch ProductPatch) Apply(p *Product) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
}

// IsEmpty reports whether no field was present.
func (patch ProductPatch) IsEmpty() bool {
	return patch.Name == nil && patch.Description == nil && patch.Price == nil && patch.Stock == nil
}

func toFloat(raw interface{}) (float64, error) {
	var (
		f   float64
		err error
	)
	switch v := raw.(type) {
	case json.Number:
		f, err = cast.ToFloat64E(string(v))
	case string, float64, float32, int, int64:
		f, err = cast.ToFloat64E(v)
	default:
		return 0, fmt.Errorf("unsupported number %T", raw)
	}
	if err != nil {
		return 0, err
	}
	// ParseFloat accepts "Inf" and "NaN", which JSON cannot carry back out.
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%v is not a finite number", f)
	}
	return f, nil
}

func toInt(raw interface{}) (int, error) {
	switch v := raw.(type) {
	case json.Number:
		return parseDecimalInt(string(v))
	case string:
		return parseDecimalInt(v)
	case int:
		return v, nil
	case int64:
		return intInRange(v)
	case float64:
		if v != math.Trunc(v) || v < math.MinInt || v >= math.MaxInt {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("unsupported integer %T", raw)
	}
}

// parseDecimalInt reads s in base 10 only, so "010" is ten and "0x10" is rejected.
func parseDecimalInt(s string) (int, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return intInRange(n)
}

func intInRange(n int64) (int, error) {
	if n < math.MinInt || n > math.MaxInt {
		return 0, fmt.Errorf("%d overflows int", n)
	}
	return int(n), nil
}
