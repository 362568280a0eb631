package database

import (
	"errors"

	"gorm.io/gorm"
)

// ErrInsufficientStock is returned when a reservation would drive stock negative
var ErrInsufficientStock = errors.New("insufficient stock")

// ReserveStock decrements a genset's stock by qty as a single conditional
// update. The decrement only applies when the resulting stock stays >= 0, so
// concurrent confirmations cannot race stock below zero. Returns
// ErrInsufficientStock when the condition fails, gorm.ErrRecordNotFound when
// the genset does not exist.
func ReserveStock(tx *gorm.DB, gensetID uint, qty int) error {
	result := tx.Model(&Genset{}).
		Where("id = ? AND stock >= ?", gensetID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&Genset{}).Where("id = ?", gensetID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

// ReleaseStock increments a genset's stock by qty, restoring a reservation
func ReleaseStock(tx *gorm.DB, gensetID uint, qty int) error {
	result := tx.Model(&Genset{}).
		Where("id = ?", gensetID).
		Update("stock", gorm.Expr("stock + ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
