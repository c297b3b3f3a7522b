package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/models"
	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/repository"
	"go.uber.org/zap"
)

// productResolver memoizes part number lookups for a single import call. It is
// not safe for concurrent use; orders are processed one at a time.
type productResolver struct {
	repo   repository.ProductRepo
	logger *zap.Logger
	cache  map[string]*models.ProductResolution
}

func newProductResolver(repo repository.ProductRepo, logger *zap.Logger) *productResolver {
	return &productResolver{
		repo:   repo,
		logger: logger,
		cache:  make(map[string]*models.ProductResolution),
	}
}

// resolve returns the cached resolution for partNo, querying the product
// master on first sight. row supplies the derived fields of a product that
// does not exist yet.
func (r *productResolver) resolve(ctx context.Context, partNo string, row models.RawImportRow) (*models.ProductResolution, error) {
	if res, ok := r.cache[partNo]; ok {
		return res, nil
	}

	product, err := r.repo.FindByPartNo(ctx, partNo)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		res := newProductPlan(partNo, row)
		r.cache[partNo] = res
		return res, nil
	case err != nil:
		return nil, fmt.Errorf("lookup part %s: %w", partNo, err)
	}

	res := existingResolution(product)
	r.cache[partNo] = res
	return res, nil
}

// create persists the product planned in res and flips res to existing. A
// duplicate part number means another import created it first; that product
// is looked up and used instead. The returned bool reports whether this call
// inserted the product.
func (r *productResolver) create(ctx context.Context, res *models.ProductResolution, placement *models.Placement, createdBy string) (bool, error) {
	if res.Exists {
		return false, nil
	}

	product := &models.Product{
		Name:          res.Name,
		PartNo:        res.PartNo,
		Category:      res.Category,
		Dept:          res.Dept,
		HSNNumber:     res.HSNNumber,
		Price:         res.Price,
		GST:           res.DerivedGSTRate,
		MinStockLevel: 1,
		Quantity:      0,
		IsActive:      true,
		CreatedBy:     createdBy,
	}
	if placement != nil {
		product.Location = placement.LocationID
		product.Room = placement.RoomID
		product.Rack = placement.RackID
	}

	err := r.repo.Create(ctx, product)
	if errors.Is(err, repository.ErrDuplicate) {
		existing, findErr := r.repo.FindByPartNo(ctx, res.PartNo)
		if findErr != nil {
			return false, fmt.Errorf("re-resolve part %s after duplicate: %w", res.PartNo, findErr)
		}
		r.logger.Info("product created concurrently, using existing record",
			zap.String("part_no", res.PartNo),
			zap.String("product_id", existing.ID.Hex()),
		)
		*res = *existingResolution(existing)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create product %s: %w", res.PartNo, err)
	}

	res.Exists = true
	res.WillCreate = false
	res.ProductID = product.ID
	return true, nil
}

func existingResolution(p *models.Product) *models.ProductResolution {
	return &models.ProductResolution{
		PartNo:    p.PartNo,
		Exists:    true,
		ProductID: p.ID,
		Name:      p.Name,
		Category:  p.Category,
		Price:     p.Price,
		HSNNumber: p.HSNNumber,
		Dept:      p.Dept,
	}
}

func newProductPlan(partNo string, row models.RawImportRow) *models.ProductResolution {
	name := row.Get(models.ColPartDescription)
	if name == "" {
		name = partNo
	}
	return &models.ProductResolution{
		PartNo:         partNo,
		Name:           name,
		Category:       models.ProductCategorySparePart,
		Price:          parseNumber(row.Get(models.ColPrice)),
		WillCreate:     true,
		DerivedGSTRate: ExtractGSTRate(row.Get(models.ColTax)),
		HSNNumber:      row.Get(models.ColHSNNo),
		Dept:           normalizeDept(row.Get(models.ColDept)),
	}
}
