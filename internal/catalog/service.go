package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/moritea/storefront/internal/cart"
	"github.com/moritea/storefront/pkg/db/models"
	pkgerrors "github.com/moritea/storefront/pkg/errors"
)

// Service is the product record boundary for the API and checkout.
type Service struct {
	repo   *Repository
	images ImageResolver
}

// NewService constructs a catalog service.
func NewService(repo *Repository, images ImageResolver) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &Service{repo: repo, images: images}, nil
}

// ListProducts returns the storefront listing.
func (s *Service) ListProducts(ctx context.Context, params ListParams) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row, s.images))
	}
	return out, nil
}

// GetProduct returns one active product.
func (s *Service) GetProduct(ctx context.Context, id string) (*ProductDTO, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(*row, s.images)
	return &dto, nil
}

// Snapshot returns the cart snapshot of one active product.
func (s *Service) Snapshot(ctx context.Context, id string) (cart.Product, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return cart.Product{}, err
	}
	return ToSnapshot(*row, s.images), nil
}

// Snapshots returns current snapshots keyed by product id for the active
// products among ids. Unknown, malformed and inactive ids are left out.
func (s *Service) Snapshots(ctx context.Context, ids []string) (map[string]cart.Product, error) {
	parsed := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if u, err := uuid.Parse(strings.TrimSpace(id)); err == nil {
			parsed = append(parsed, u)
		}
	}
	rows, err := s.repo.GetMany(ctx, parsed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	out := make(map[string]cart.Product, len(rows))
	for _, row := range rows {
		if !row.IsActive {
			continue
		}
		snap := ToSnapshot(row, s.images)
		out[snap.Key] = snap
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.Product, error) {
	productID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	row, err := s.repo.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !row.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return row, nil
}
