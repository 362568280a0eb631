package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// NextSequence atomically increments and returns the named counter. The
// increment runs as a single UPDATE so the row lock it takes covers the
// read-back; two concurrent creates can never observe the same value.
func NextSequence(db *gorm.DB, name string) (int64, error) {
	var value int64
	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Sequence{}).
			Where("name = ?", name).
			Update("value", gorm.Expr("value + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			seq := Sequence{Name: name, Value: 1}
			if err := tx.Create(&seq).Error; err != nil {
				return err
			}
			value = 1
			return nil
		}

		var seq Sequence
		if err := tx.Where("name = ?", name).First(&seq).Error; err != nil {
			return err
		}
		value = seq.Value
		return nil
	})
	return value, err
}

// NextOrderNumber returns a unique SO-<millis>-NNNN order number
func NextOrderNumber(db *gorm.DB) (string, error) {
	seq, err := NextSequence(db, SequenceOrders)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SO-%d-%04d", time.Now().UnixMilli(), seq), nil
}

// NextTicketNumber returns a unique SR-<millis>-NNNN ticket number
func NextTicketNumber(db *gorm.DB) (string, error) {
	seq, err := NextSequence(db, SequenceTickets)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SR-%d-%04d", time.Now().UnixMilli(), seq), nil
}
