package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/cartstore/internal/domain/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrProductNotFound 商品不存在
	ErrProductNotFound = errors.New("product not found")
)

type ProductRepo struct {
	db *DbDao
}

func NewProductRepo(db *DbDao) *ProductRepo {
	if db == nil {
		panic("ProductRepo dependency db is nil")
	}
	return &ProductRepo{db: db}
}

func (r *ProductRepo) GetProductByCode(ctx context.Context, code string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, code)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepo) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Order("code").Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// SeedProducts 只新增不存在的 code，已存在的不覆蓋
func (r *ProductRepo) SeedProducts(ctx context.Context, products []model.Product) (int64, error) {
	if len(products) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
		Create(&products)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
