// internal/db/migrations.go
package db

import (
	"fmt"

	"gorm.io/gorm"
)

// MigrateUniqueIndexes ставит уникальные индексы-страховки:
// gateways.ipv4 и пара devices.(gateway_id, vendor). Индексы включают
// deleted_at, иначе soft-delete ломает уникальность.
func MigrateUniqueIndexes(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	dialect := db.Dialector.Name()

	switch dialect {
	case "mysql":
		if err := db.Exec("CREATE UNIQUE INDEX `ux_gateways_ipv4_del` ON `gateways` (`ipv4`, `deleted_at`)").Error; err != nil && !indexExists(db, "gateways", "ux_gateways_ipv4_del") {
			return err
		}
		if err := db.Exec("CREATE UNIQUE INDEX `ux_devices_gw_vendor_del` ON `devices` (`gateway_id`, `vendor`, `deleted_at`)").Error; err != nil && !indexExists(db, "devices", "ux_devices_gw_vendor_del") {
			return err
		}
		return nil

	case "postgres":
		// partial unique index (куда лучше для soft-delete)
		if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_gateways_ipv4_null ON "gateways" ("ipv4") WHERE "deleted_at" IS NULL`).Error; err != nil {
			return err
		}
		return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_devices_gw_vendor_null ON "devices" ("gateway_id", "vendor") WHERE "deleted_at" IS NULL`).Error

	case "sqlite":
		if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_gateways_ipv4_del ON gateways (ipv4, deleted_at)`).Error; err != nil {
			return err
		}
		return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_devices_gw_vendor_del ON devices (gateway_id, vendor, deleted_at)`).Error

	default:
		return fmt.Errorf("unsupported dialect: %s", dialect)
	}
}

func indexExists(db *gorm.DB, table, name string) bool {
	return db.Migrator().HasIndex(table, name)
}
