package catalog

import (
	"strings"

	"github.com/moritea/storefront/internal/cart"
	"github.com/moritea/storefront/pkg/db/models"
)

// ToSnapshot normalizes a catalog row into the snapshot the cart captures.
// The images column wins over the legacy image/hover_image pair. A sale price
// that is not strictly between zero and the base price is dropped, and
// negative stock reads as zero. NULL stock stays unconstrained.
func ToSnapshot(p models.Product, images ImageResolver) cart.Product {
	id := p.ID.String()
	snap := cart.Product{
		Key:    id,
		Name:   p.Name,
		Price:  p.Price,
		Images: resolveImages(p, id, images),
	}
	if p.SalePrice != nil && p.SalePrice.IsPositive() && p.SalePrice.LessThan(p.Price) {
		sale := *p.SalePrice
		snap.DiscountPrice = &sale
	}
	if p.Stock != nil {
		stock := *p.Stock
		if stock < 0 {
			stock = 0
		}
		snap.Stock = &stock
	}
	return snap
}

func resolveImages(p models.Product, id string, images ImageResolver) []string {
	var files []string
	for _, f := range p.Images {
		if strings.TrimSpace(f) != "" {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		for _, f := range []*string{p.Image, p.HoverImage} {
			if f != nil && strings.TrimSpace(*f) != "" {
				files = append(files, *f)
			}
		}
	}
	if len(files) == 0 {
		return nil
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, images.Resolve(id, f))
	}
	return out
}
