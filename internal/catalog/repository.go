package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/moritea/storefront/internal/repo"
	"github.com/moritea/storefront/pkg/db/models"
)

// ListParams filters the product listing.
type ListParams struct {
	Featured        bool
	IncludeInactive bool
}

// Repository reads and adjusts catalog rows.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// List returns products in storefront order.
func (r *Repository) List(ctx context.Context, params ListParams) ([]models.Product, error) {
	q := r.DB(ctx).Model(&models.Product{})
	if !params.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if params.Featured {
		q = q.Where("is_featured = ?", true)
	}

	var rows []models.Product
	err := q.Order("display_order ASC").Order("created_at ASC").Find(&rows).Error
	return rows, err
}

// Get loads a single product.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetMany loads the products with the given ids. Missing ids are absent from
// the result.
func (r *Repository) GetMany(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

// DecrementStock lowers the stock of a product by qty, clamped at zero, and
// returns the units the recorded stock could not cover. Products with
// unlimited (NULL) stock are left alone. tx may be nil.
func (r *Repository) DecrementStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) (int, error) {
	if qty <= 0 {
		return 0, nil
	}
	conn := r.Conn(ctx, tx)
	res := conn.Model(&models.Product{}).
		Where("id = ? AND stock IS NOT NULL AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		return 0, nil
	}

	var row models.Product
	err := conn.Select("id", "stock").Where("id = ?", id).Take(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return 0, nil
	case err != nil:
		return 0, err
	case row.Stock == nil:
		return 0, nil
	}
	if err := conn.Model(&models.Product{}).Where("id = ?", id).Update("stock", 0).Error; err != nil {
		return 0, err
	}
	return qty - *row.Stock, nil
}
