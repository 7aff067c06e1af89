package devices

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"iotgw/internal/api"
	"iotgw/internal/genid"
	"iotgw/internal/models"

	"github.com/gorilla/mux"
)

type HTTP struct{ repo *Repo }

func NewHTTP(r *Repo) *HTTP { return &HTTP{repo: r} }

func (h *HTTP) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/devices", h.list).Methods(http.MethodGet)
	r.HandleFunc("/devices", h.create).Methods(http.MethodPost)
	r.HandleFunc("/devices", h.update).Methods(http.MethodPatch)
	r.HandleFunc("/devices", h.delete).Methods(http.MethodDelete)
	r.HandleFunc("/devices/{id}", h.get).Methods(http.MethodGet)
}

// Ответные формы внешнего API.
type deviceOut struct {
	ID        uint      `json:"_id"`
	Gateway   uint      `json:"gateway"`
	UID       int64     `json:"uid"`
	Vendor    string    `json:"vendor"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type gatewayOut struct {
	ID           uint      `json:"_id"`
	SerialNumber string    `json:"serialNumber"`
	Name         string    `json:"name"`
	IPv4         string    `json:"ipv4"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// deviceWithGateway — устройство с полностью развёрнутым шлюзом (GET one).
type deviceWithGateway struct {
	ID        uint        `json:"_id"`
	Gateway   *gatewayOut `json:"gateway"`
	UID       int64       `json:"uid"`
	Vendor    string      `json:"vendor"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func viewDevice(d *models.Device) deviceOut {
	return deviceOut{
		ID:        d.ID,
		Gateway:   d.GatewayID,
		UID:       d.UID,
		Vendor:    d.Vendor,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func validStatus(s string) bool {
	return s == models.DeviceOnline || s == models.DeviceOffline
}

func (h *HTTP) create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Gateway uint   `json:"gateway"`
		Vendor  string `json:"vendor"`
		Status  string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.Gateway == 0 || in.Vendor == "" || !validStatus(in.Status) {
		api.WriteError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	d := &models.Device{
		GatewayID: in.Gateway,
		UID:       genid.UID(),
		Vendor:    in.Vendor,
		Status:    in.Status,
	}
	if err := h.repo.Create(d); err != nil {
		switch {
		case errors.Is(err, ErrLimitExceeded), errors.Is(err, ErrDuplicate):
			api.WriteError(w, http.StatusBadRequest, err.Error())
		default:
			api.WriteError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	api.WriteJSON(w, http.StatusCreated, viewDevice(d))
}

func (h *HTTP) update(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ID      uint   `json:"_id"`
		Gateway uint   `json:"gateway"`
		Vendor  string `json:"vendor"`
		Status  string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.ID == 0 || in.Gateway == 0 || in.Vendor == "" || !validStatus(in.Status) {
		api.WriteError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	d, err := h.repo.Update(in.ID, in.Gateway, in.Vendor, in.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrDuplicate):
			api.WriteError(w, http.StatusBadRequest, err.Error())
		default:
			api.WriteError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	api.WriteJSON(w, http.StatusOK, viewDevice(d))
}

func (h *HTTP) list(w http.ResponseWriter, _ *http.Request) {
	ds, err := h.repo.List()
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]deviceOut, 0, len(ds))
	for i := range ds {
		d := &ds[i]
		v := viewDevice(d)
		// в списке шлюз отдаётся только идентификатором, но через резолв
		g, err := h.repo.Gateway(d.GatewayID)
		if err != nil {
			api.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if g != nil {
			v.Gateway = g.ID
		}
		out = append(out, v)
	}
	api.WriteJSON(w, http.StatusOK, out)
}

func (h *HTTP) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		api.WriteError(w, http.StatusBadRequest, ErrNotFound.Error())
		return
	}

	d, err := h.repo.Get(uint(id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			api.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := deviceWithGateway{
		ID:        d.ID,
		UID:       d.UID,
		Vendor:    d.Vendor,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	g, err := h.repo.Gateway(d.GatewayID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if g != nil {
		out.Gateway = &gatewayOut{
			ID:           g.ID,
			SerialNumber: g.SerialNumber,
			Name:         g.Name,
			IPv4:         g.IPv4,
			CreatedAt:    g.CreatedAt,
			UpdatedAt:    g.UpdatedAt,
		}
	}
	api.WriteJSON(w, http.StatusOK, out)
}

func (h *HTTP) delete(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ID uint `json:"_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.ID == 0 {
		api.WriteError(w, http.StatusBadRequest, "Device id is required")
		return
	}

	d, err := h.repo.Delete(in.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			api.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	api.WriteJSON(w, http.StatusOK, fmt.Sprintf("Device %d is deleted", d.UID))
}
