package gateways

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"iotgw/internal/api"
	"iotgw/internal/genid"
	"iotgw/internal/models"

	"github.com/gorilla/mux"
)

type HTTP struct{ repo *Repo }

func NewHTTP(r *Repo) *HTTP { return &HTTP{repo: r} }

func (h *HTTP) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/gateways", h.list).Methods(http.MethodGet)
	r.HandleFunc("/gateways", h.create).Methods(http.MethodPost)
	r.HandleFunc("/gateways", h.update).Methods(http.MethodPatch)
	r.HandleFunc("/gateways", h.delete).Methods(http.MethodDelete)
	r.HandleFunc("/gateways/{id}", h.get).Methods(http.MethodGet)
}

// Ответные формы; _id/serialNumber/ipv4 — имена полей внешнего API.
type gatewayOut struct {
	ID           uint      `json:"_id"`
	SerialNumber string    `json:"serialNumber"`
	Name         string    `json:"name"`
	IPv4         string    `json:"ipv4"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type deviceOut struct {
	ID        uint      `json:"_id"`
	Gateway   uint      `json:"gateway"`
	UID       int64     `json:"uid"`
	Vendor    string    `json:"vendor"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type gatewayWithDevices struct {
	gatewayOut
	Devices []deviceOut `json:"devices"`
}

func viewGateway(g *models.Gateway) gatewayOut {
	return gatewayOut{
		ID:           g.ID,
		SerialNumber: g.SerialNumber,
		Name:         g.Name,
		IPv4:         g.IPv4,
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
}

func viewDevices(ds []models.Device) []deviceOut {
	out := make([]deviceOut, 0, len(ds))
	for i := range ds {
		d := &ds[i]
		out = append(out, deviceOut{
			ID:        d.ID,
			Gateway:   d.GatewayID,
			UID:       d.UID,
			Vendor:    d.Vendor,
			Status:    d.Status,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		})
	}
	return out
}

// validIPv4 — строгая проверка точечной записи IPv4.
func validIPv4(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() != nil && strings.Count(s, ".") == 3
}

func (h *HTTP) create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
		IPv4 string `json:"ipv4"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.Name == "" || in.IPv4 == "" {
		api.WriteError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	if !validIPv4(in.IPv4) {
		api.WriteError(w, http.StatusBadRequest, "IPv4 address is not valid")
		return
	}

	g := &models.Gateway{
		SerialNumber: genid.Serial(),
		Name:         in.Name,
		IPv4:         in.IPv4,
	}
	if err := h.repo.Create(g); err != nil {
		if errors.Is(err, ErrDuplicateIPv4) {
			api.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	api.WriteJSON(w, http.StatusCreated, viewGateway(g))
}

func (h *HTTP) update(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ID   uint   `json:"_id"`
		Name string `json:"name"`
		IPv4 string `json:"ipv4"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.ID == 0 || in.Name == "" || in.IPv4 == "" {
		api.WriteError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	g, err := h.repo.Update(in.ID, in.Name, in.IPv4)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrNotFound):
			api.WriteError(w, http.StatusBadRequest, err.Error())
		default:
			api.WriteError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	api.WriteJSON(w, http.StatusOK, viewGateway(g))
}

func (h *HTTP) list(w http.ResponseWriter, _ *http.Request) {
	gs, err := h.repo.List()
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]gatewayWithDevices, 0, len(gs))
	for i := range gs {
		g := &gs[i]
		ds, err := h.repo.Devices(g.ID)
		if err != nil {
			api.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out = append(out, gatewayWithDevices{gatewayOut: viewGateway(g), Devices: viewDevices(ds)})
	}
	api.WriteJSON(w, http.StatusOK, out)
}

func (h *HTTP) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		api.WriteError(w, http.StatusBadRequest, ErrNotFound.Error())
		return
	}

	g, err := h.repo.Get(uint(id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			api.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ds, err := h.repo.Devices(g.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	api.WriteJSON(w, http.StatusOK, gatewayWithDevices{gatewayOut: viewGateway(g), Devices: viewDevices(ds)})
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
		api.WriteError(w, http.StatusBadRequest, "Gateway id is required")
		return
	}

	g, err := h.repo.Delete(in.ID)
	if err != nil {
		switch {
		case errors.Is(err, ErrHasDevices), errors.Is(err, ErrNotFound):
			api.WriteError(w, http.StatusBadRequest, err.Error())
		default:
			api.WriteError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	reply := fmt.Sprintf("Gateway %s with serial number %s is deleted", g.IPv4, g.SerialNumber)
	api.WriteJSON(w, http.StatusOK, reply)
}
