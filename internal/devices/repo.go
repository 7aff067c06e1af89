package devices

import (
	"errors"
	"iotgw/internal/models"

	"gorm.io/gorm"
)

// Ошибки бизнес-правил; текст уходит клиенту как есть.
var (
	ErrNotFound      = errors.New("Device not found")
	ErrDuplicate     = errors.New("Duplicate device")
	ErrLimitExceeded = errors.New("Gateway devices count is exceeded")
)

type Repo struct {
	db *gorm.DB
	// maxPerGateway задаётся конфигом при конструировании, не глобально.
	maxPerGateway int
}

func NewRepo(db *gorm.DB, maxPerGateway int) *Repo {
	return &Repo{db: db, maxPerGateway: maxPerGateway}
}

// Create сохраняет устройство; лимит на шлюз и дубликат (gateway, vendor)
// проверяются в одной транзакции с записью.
func (r *Repo) Create(d *models.Device) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Device{}).Where("gateway_id = ?", d.GatewayID).Count(&n).Error; err != nil {
			return err
		}
		if n >= int64(r.maxPerGateway) {
			return ErrLimitExceeded
		}

		var dup models.Device
		err := tx.Where(&models.Device{GatewayID: d.GatewayID, Vendor: d.Vendor}).First(&dup).Error
		if err == nil {
			return ErrDuplicate
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(d).Error
	})
}

// Update переписывает gateway/vendor/status. Лимит устройств на целевой шлюз
// здесь не проверяется — только дубликат пары (gateway, vendor) среди чужих
// записей (исключая и id, и uid самого устройства).
func (r *Repo) Update(id uint, gatewayID uint, vendor, status string) (*models.Device, error) {
	var out *models.Device
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var d models.Device
		if err := tx.First(&d, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var dup models.Device
		err := tx.Where("gateway_id = ? AND vendor = ? AND uid <> ? AND id <> ?",
			gatewayID, vendor, d.UID, id).First(&dup).Error
		if err == nil {
			return ErrDuplicate
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		d.GatewayID = gatewayID
		d.Vendor = vendor
		d.Status = status
		if err := tx.Save(&d).Error; err != nil {
			return err
		}
		out = &d
		return nil
	})
	return out, err
}

func (r *Repo) List() ([]models.Device, error) {
	var out []models.Device
	err := r.db.Order("id").Find(&out).Error
	return out, err
}

func (r *Repo) Get(id uint) (*models.Device, error) {
	var d models.Device
	if err := r.db.First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Gateway резолвит шлюз устройства; (nil, nil) если шлюза уже нет.
func (r *Repo) Gateway(id uint) (*models.Gateway, error) {
	var g models.Gateway
	if err := r.db.First(&g, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (r *Repo) Delete(id uint) (*models.Device, error) {
	var d models.Device
	if err := r.db.First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := r.db.Delete(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}
