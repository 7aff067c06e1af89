package models

import "gorm.io/gorm"

// Gateway — точка входа в сеть с уникальным IPv4-адресом.
// Уникальность ipv4 дополнительно закреплена индексом (см. db.MigrateUniqueIndexes).
type Gateway struct {
	gorm.Model
	SerialNumber string `gorm:"column:serial_number"`
	Name         string
	IPv4         string `gorm:"column:ipv4;index"`
}
