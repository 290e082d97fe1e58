package db

import (
	"github.com/RoyceAzure/lab/cartstore/internal/domain/model"
	"gorm.io/gorm"
)

type DbDao struct {
	*gorm.DB
}

func NewDbDao(conn *gorm.DB) *DbDao {
	return &DbDao{
		DB: conn,
	}
}

// InitMigrate 初始化 db schema，冪等
func (d *DbDao) InitMigrate() error {
	return d.AutoMigrate(
		&model.Product{},
	)
}

func (d *DbDao) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
