package genid

import (
	"math/rand"
	"strconv"
	"time"
)

// Serial — серийный номер шлюза из текущего таймштампа (мс).
func Serial() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// UID — случайный 10-значный числовой идентификатор устройства.
// Глобальная уникальность не гарантируется, только случайность.
func UID() int64 {
	return rand.Int63n(9_000_000_000) + 1_000_000_000
}
