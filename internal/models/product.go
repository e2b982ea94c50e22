package models

// Product represents a product row in the produto table.
type Product struct {
	ID          int64   `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string  `json:"nome" gorm:"column:nome;not null"`
	Description string  `json:"descricao" gorm:"column:descricao"`
	Price       float64 `json:"preco" gorm:"column:preco;not null"`
	Stock       int     `json:"quantidadeEstoque" gorm:"column:quantidadeestoque;not null"`
}

// TableName keeps the legacy singular table name.
func (Product) TableName() string {
	return "produto"
}

// ProductInput is the body accepted by create and full update.
// Pointer fields let validation tell a missing value from a zero one.
type ProductInput struct {
	ID          *int64   `json:"id,omitempty"` // ignored
	Name        *string  `json:"nome" validate:"required,min=2"`
	Description *string  `json:"descricao"`
	Price       *float64 `json:"preco" validate:"required,gte=0"`
	Stock       *int     `json:"quantidadeEstoque" validate:"required,gte=0"`
}

// ApplyTo overwrites every mutable field of p. The id is never touched.
// The input must have passed validation first.
func (in ProductInput) ApplyTo(p *Product) {
	p.Name = *in.Name
	p.Description = ""
	if in.Description != nil {
		p.Description = *in.Description
	}
	p.Price = *in.Price
	p.Stock = *in.Stock
}

// InputFromProduct builds the input that would produce p, used to re-check
// records assembled from partial updates.
func InputFromProduct(p Product) ProductInput {
	return ProductInput{
		Name:        &p.Name,
		Description: &p.Description,
		Price:       &p.Price,
		Stock:       &p.Stock,
	}
}
