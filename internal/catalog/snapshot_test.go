package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/moritea/storefront/pkg/db/models"
)

func strPtr(v string) *string { return &v }

func TestToSnapshotNormalizesDiscount(t *testing.T) {
	cases := []struct {
		name     string
		sale     string
		discount bool
	}{
		{name: "below price", sale: "8.00", discount: true},
		{name: "equal to price", sale: "10.00"},
		{name: "above price", sale: "12.00"},
		{name: "zero", sale: "0"},
		{name: "negative", sale: "-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sale := decimal.RequireFromString(tc.sale)
			snap := ToSnapshot(models.Product{ID: uuid.New(), Price: decimal.NewFromInt(10), SalePrice: &sale}, ImageResolver{})
			if got := snap.DiscountPrice != nil; got != tc.discount {
				t.Fatalf("discount present = %v, want %v", got, tc.discount)
			}
		})
	}
}

func TestToSnapshotStock(t *testing.T) {
	neg := -3
	snap := ToSnapshot(models.Product{ID: uuid.New(), Stock: &neg}, ImageResolver{})
	if snap.Stock == nil || *snap.Stock != 0 {
		t.Fatalf("negative stock should read as zero, got %v", snap.Stock)
	}
	if snap := ToSnapshot(models.Product{ID: uuid.New()}, ImageResolver{}); snap.Stock != nil {
		t.Fatalf("null stock should stay unconstrained")
	}
	neg = 4
	if *snap.Stock != 0 {
		t.Fatalf("snapshot must not alias the row")
	}
}

func TestToSnapshotImages(t *testing.T) {
	id := uuid.MustParse("5f1d7a2c-0a8e-4d31-9d7f-3fbbd1c2a001")
	resolver := NewImageResolver("https://cms.example.com/")

	snap := ToSnapshot(models.Product{
		ID:     id,
		Images: pq.StringArray{"front.jpg", " ", "https://cdn.example.com/back.jpg"},
		Image:  strPtr("legacy.jpg"),
	}, resolver)
	want := []string{
		"https://cms.example.com/api/files/products/" + id.String() + "/front.jpg",
		"https://cdn.example.com/back.jpg",
	}
	if len(snap.Images) != len(want) {
		t.Fatalf("unexpected images %v", snap.Images)
	}
	for i := range want {
		if snap.Images[i] != want[i] {
			t.Fatalf("image %d = %s, want %s", i, snap.Images[i], want[i])
		}
	}

	legacy := ToSnapshot(models.Product{ID: id, Image: strPtr("tin.png"), HoverImage: strPtr("tin-open.png")}, resolver)
	if len(legacy.Images) != 2 || legacy.Images[1] != "https://cms.example.com/api/files/products/"+id.String()+"/tin-open.png" {
		t.Fatalf("legacy columns should be used when images is empty, got %v", legacy.Images)
	}

	if none := ToSnapshot(models.Product{ID: id}, resolver); none.Images != nil {
		t.Fatalf("expected no images, got %v", none.Images)
	}
}

func TestImageResolverWithoutBase(t *testing.T) {
	got := NewImageResolver("").Resolve("abc", "/leaf.jpg")
	if got != "/api/files/products/abc/leaf.jpg" {
		t.Fatalf("unexpected url %s", got)
	}
	if got := NewImageResolver("").Resolve("abc", ""); got != "" {
		t.Fatalf("empty file should resolve to empty, got %s", got)
	}
}
