package gateways

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"iotgw/internal/db"
	"iotgw/internal/models"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestEnv(t *testing.T) (*mux.Router, *gorm.DB) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&models.Gateway{}, &models.Device{}))
	require.NoError(t, db.MigrateUniqueIndexes(gdb))

	r := mux.NewRouter()
	NewHTTP(NewRepo(gdb)).RegisterRoutes(r)
	return r, gdb
}

func do(t *testing.T, r *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Message
}

func gatewayCount(t *testing.T, gdb *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(&models.Gateway{}).Count(&n).Error)
	return n
}

func TestCreateGatewayInvalidIPv4(t *testing.T) {
	r, gdb := newTestEnv(t)

	for _, bad := range []string{"999.1.2", "10.0.0.256", "abcd", "10.0.0", "::1"} {
		w := do(t, r, http.MethodPost, "/gateways", map[string]string{"name": "gw1", "ipv4": bad})
		require.Equal(t, http.StatusBadRequest, w.Code, "ipv4 %q", bad)
		require.Equal(t, "IPv4 address is not valid", errMessage(t, w))
	}
	require.EqualValues(t, 0, gatewayCount(t, gdb))
}

func TestCreateGatewayMissingFields(t *testing.T) {
	r, gdb := newTestEnv(t)

	w := do(t, r, http.MethodPost, "/gateways", map[string]string{"name": "gw1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "All fields are required", errMessage(t, w))

	w = do(t, r, http.MethodPost, "/gateways", map[string]string{"ipv4": "10.0.0.1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "All fields are required", errMessage(t, w))

	require.EqualValues(t, 0, gatewayCount(t, gdb))
}

func TestCreateGatewayDuplicateIPv4(t *testing.T) {
	r, gdb := newTestEnv(t)

	w := do(t, r, http.MethodPost, "/gateways", map[string]string{"name": "gw1", "ipv4": "10.0.0.1"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, r, http.MethodPost, "/gateways", map[string]string{"name": "gw2", "ipv4": "10.0.0.1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Duplicate IPv4 address", errMessage(t, w))

	require.EqualValues(t, 1, gatewayCount(t, gdb))
}

func TestGatewayRoundTrip(t *testing.T) {
	r, _ := newTestEnv(t)

	w := do(t, r, http.MethodPost, "/gateways", map[string]string{"name": "gw1", "ipv4": "10.0.0.1"})
	require.Equal(t, http.StatusCreated, w.Code)

	var created gatewayOut
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotZero(t, created.ID)
	require.NotEmpty(t, created.SerialNumber)

	w = do(t, r, http.MethodGet, "/gateways/"+strconv.FormatUint(uint64(created.ID), 10), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got gatewayWithDevices
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, "gw1", got.Name)
	require.Equal(t, "10.0.0.1", got.IPv4)
	require.Equal(t, created.SerialNumber, got.SerialNumber)
	require.NotNil(t, got.Devices)
	require.Empty(t, got.Devices)
}

func TestGetGatewayNotFound(t *testing.T) {
	r, _ := newTestEnv(t)

	w := do(t, r, http.MethodGet, "/gateways/777", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Gateway not found", errMessage(t, w))
}

func TestListGatewaysEmpty(t *testing.T) {
	r, _ := newTestEnv(t)

	w := do(t, r, http.MethodGet, "/gateways", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got []gatewayWithDevices
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Empty(t, got)
}

func TestListGatewaysWithDevices(t *testing.T) {
	r, gdb := newTestEnv(t)

	w := do(t, r, http.MethodPost, "/gateways", map[string]string{"name": "gw1", "ipv4": "10.0.0.1"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created gatewayOut
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	require.NoError(t, gdb.Create(&models.Device{
		GatewayID: created.ID, UID: 1234567890, Vendor: "Acme", Status: models.DeviceOnline,
	}).Error)

	w = do(t, r, http.MethodGet, "/gateways", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got []gatewayWithDevices
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	require.Len(t, got[0].Devices, 1)
	require.Equal(t, "Acme", got[0].Devices[0].Vendor)
	require.Equal(t, created.ID, got[0].Devices[0].Gateway)
}

func TestUpdateGateway(t *testing.T) {
	r, _ := newTestEnv(t)

	w := do(t, r, http.MethodPost, "/gateways", map[string]string{"name": "gw1", "ipv4": "10.0.0.1"})
	require.Equal(t, http.StatusCreated, w.Code)
	var first gatewayOut
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))

	w = do(t, r, http.MethodPost, "/gateways", map[string]string{"name": "gw2", "ipv4": "10.0.0.2"})
	require.Equal(t, http.StatusCreated, w.Code)
	var second gatewayOut
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))

	// занятый другим шлюзом ipv4
	w = do(t, r, http.MethodPatch, "/gateways", map[string]any{
		"_id": second.ID, "name": "gw2", "ipv4": "10.0.0.1",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Gateway is already exists", errMessage(t, w))

	// несуществующий id
	w = do(t, r, http.MethodPatch, "/gateways", map[string]any{
		"_id": 777, "name": "gw", "ipv4": "10.0.0.9",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Gateway not found", errMessage(t, w))

	// неполное тело
	w = do(t, r, http.MethodPatch, "/gateways", map[string]any{"_id": second.ID, "name": "gw2"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "All fields are required", errMessage(t, w))

	// валидное обновление
	w = do(t, r, http.MethodPatch, "/gateways", map[string]any{
		"_id": second.ID, "name": "renamed", "ipv4": "10.0.0.3",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var updated gatewayOut
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	require.Equal(t, "renamed", updated.Name)
	require.Equal(t, "10.0.0.3", updated.IPv4)
	require.Equal(t, second.SerialNumber, updated.SerialNumber)
}

func TestDeleteGateway(t *testing.T) {
	r, gdb := newTestEnv(t)

	w := do(t, r, http.MethodPost, "/gateways", map[string]string{"name": "gw1", "ipv4": "10.0.0.1"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created gatewayOut
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// без id
	w = do(t, r, http.MethodDelete, "/gateways", map[string]any{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Gateway id is required", errMessage(t, w))

	// с привязанным устройством удаление блокируется
	dev := models.Device{GatewayID: created.ID, UID: 1234567890, Vendor: "Acme", Status: models.DeviceOnline}
	require.NoError(t, gdb.Create(&dev).Error)

	w = do(t, r, http.MethodDelete, "/gateways", map[string]any{"_id": created.ID})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Gateway has assigned devices", errMessage(t, w))
	require.EqualValues(t, 1, gatewayCount(t, gdb))

	// без устройств удаляется, ответ содержит ipv4 и серийник
	require.NoError(t, gdb.Delete(&dev).Error)

	w = do(t, r, http.MethodDelete, "/gateways", map[string]any{"_id": created.ID})
	require.Equal(t, http.StatusOK, w.Code)
	var reply string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	require.Contains(t, reply, "10.0.0.1")
	require.Contains(t, reply, created.SerialNumber)
	require.EqualValues(t, 0, gatewayCount(t, gdb))

	// повторное удаление — уже нет
	w = do(t, r, http.MethodDelete, "/gateways", map[string]any{"_id": created.ID})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Gateway not found", errMessage(t, w))
}
