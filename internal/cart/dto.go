package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nmorales-dev/storefront-backend/pkg/db/models"
)

// LineItemDTO surfaces the catalog data a cart line needs to render.
type LineItemDTO struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	ImageURL *string         `json:"image_url,omitempty"`
}

// CartLineDTO is one user-item entry with its computed line total.
type CartLineDTO struct {
	ID        uuid.UUID       `json:"id"`
	Item      LineItemDTO     `json:"item"`
	Qty       int             `json:"qty"`
	LineTotal decimal.Decimal `json:"line_total"`
	AddedAt   time.Time       `json:"added_at"`
}

// CartDTO is the full cart with totals, returned by cart reads.
type CartDTO struct {
	Lines    []CartLineDTO   `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
	TotalQty int             `json:"total_qty"`
}

// NewCartLineDTO builds a line DTO from a persisted line and its item.
func NewCartLineDTO(line *models.CartLine) CartLineDTO {
	dto := CartLineDTO{
		ID:      line.ID,
		Qty:     line.Qty,
		AddedAt: line.CreatedAt,
	}
	if line.Item != nil {
		dto.Item = LineItemDTO{
			ID:       line.Item.ID,
			Name:     line.Item.Name,
			Category: line.Item.Category,
			Price:    line.Item.Price,
			Stock:    line.Item.Stock,
			ImageURL: line.Item.ImageURL,
		}
		dto.LineTotal = line.Item.Price.Mul(decimal.NewFromInt(int64(line.Qty)))
	}
	return dto
}

// NewCartDTO assembles the cart payload with its totals.
func NewCartDTO(lines []models.CartLine) *CartDTO {
	dto := &CartDTO{
		Lines:    make([]CartLineDTO, 0, len(lines)),
		Subtotal: decimal.Zero,
	}
	for i := range lines {
		line := NewCartLineDTO(&lines[i])
		dto.Lines = append(dto.Lines, line)
		dto.Subtotal = dto.Subtotal.Add(line.LineTotal)
		dto.TotalQty += line.Qty
	}
	return dto
}
