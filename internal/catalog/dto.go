package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/moritea/storefront/pkg/db/models"
)

// ProductDTO is the storefront view of a catalog product.
type ProductDTO struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Description  *string          `json:"description,omitempty"`
	Price        decimal.Decimal  `json:"price"`
	SalePrice    *decimal.Decimal `json:"sale_price,omitempty"`
	Stock        *int             `json:"stock"`
	Weight       *string          `json:"weight,omitempty"`
	Images       []string         `json:"images"`
	IsFeatured   bool             `json:"is_featured"`
	DisplayOrder int              `json:"display_order"`
}

func toDTO(p models.Product, images ImageResolver) ProductDTO {
	snap := ToSnapshot(p, images)
	imgs := snap.Images
	if imgs == nil {
		imgs = []string{}
	}
	return ProductDTO{
		ID:           snap.Key,
		Name:         p.Name,
		Description:  p.Description,
		Price:        snap.Price,
		SalePrice:    snap.DiscountPrice,
		Stock:        snap.Stock,
		Weight:       p.Weight,
		Images:       imgs,
		IsFeatured:   p.IsFeatured,
		DisplayOrder: p.DisplayOrder,
	}
}
