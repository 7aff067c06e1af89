package models

import "gorm.io/gorm"

// Статусы устройства.
const (
	DeviceOnline  = "online"
	DeviceOffline = "offline"
)

// Device — конечное устройство, привязанное к шлюзу.
// Пара (gateway_id, vendor) уникальна (см. db.MigrateUniqueIndexes).
type Device struct {
	gorm.Model
	GatewayID uint  `gorm:"column:gateway_id;index"`
	UID       int64 `gorm:"column:uid"`
	Vendor    string
	Status    string `gorm:"type:varchar(16)"`
}
