package gateways

import (
	"errors"
	"iotgw/internal/models"

	"gorm.io/gorm"
)

// Ошибки бизнес-правил; текст уходит клиенту как есть.
var (
	ErrNotFound      = errors.New("Gateway not found")
	ErrDuplicateIPv4 = errors.New("Duplicate IPv4 address")
	ErrAlreadyExists = errors.New("Gateway is already exists")
	ErrHasDevices    = errors.New("Gateway has assigned devices")
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// Create сохраняет шлюз; проверка дубликата ipv4 и запись — в одной транзакции.
func (r *Repo) Create(g *models.Gateway) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var dup models.Gateway
		err := tx.Where(&models.Gateway{IPv4: g.IPv4}).First(&dup).Error
		if err == nil {
			return ErrDuplicateIPv4
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(g).Error
	})
}

// Update переписывает name/ipv4; ipv4 не должен принадлежать другому шлюзу.
func (r *Repo) Update(id uint, name, ipv4 string) (*models.Gateway, error) {
	var out *models.Gateway
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var dup models.Gateway
		err := tx.Where("ipv4 = ? AND id <> ?", ipv4, id).First(&dup).Error
		if err == nil {
			return ErrAlreadyExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var g models.Gateway
		if err := tx.First(&g, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		g.Name = name
		g.IPv4 = ipv4
		if err := tx.Save(&g).Error; err != nil {
			return err
		}
		out = &g
		return nil
	})
	return out, err
}

func (r *Repo) List() ([]models.Gateway, error) {
	var out []models.Gateway
	err := r.db.Order("id").Find(&out).Error
	return out, err
}

func (r *Repo) Get(id uint) (*models.Gateway, error) {
	var g models.Gateway
	if err := r.db.First(&g, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// Devices — устройства, ссылающиеся на шлюз.
func (r *Repo) Devices(gatewayID uint) ([]models.Device, error) {
	var out []models.Device
	err := r.db.Where("gateway_id = ?", gatewayID).Order("id").Find(&out).Error
	return out, err
}

// Delete удаляет шлюз, если на него не ссылается ни одно устройство.
// Порядок проверок: сначала устройства, потом существование шлюза.
func (r *Repo) Delete(id uint) (*models.Gateway, error) {
	var out *models.Gateway
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Device{}).Where("gateway_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrHasDevices
		}

		var g models.Gateway
		if err := tx.First(&g, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Delete(&g).Error; err != nil {
			return err
		}
		out = &g
		return nil
	})
	return out, err
}
