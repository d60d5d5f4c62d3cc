package handle

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"floorlens/api/internal/measure"
)

type Handle struct {
	svc   *measure.Service
	httpc *http.Client
}

func New(svc *measure.Service) *Handle {
	return &Handle{
		svc:   svc,
		httpc: &http.Client{Timeout: 60 * time.Second},
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// requestDeadline — клиент может поджать общий дедлайн заголовком или query-параметром.
func requestDeadline(r *http.Request) time.Duration {
	deadline := 180 * time.Second
	if ts := r.Header.Get("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	} else if ts := r.URL.Query().Get("timeoutSec"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	}
	return deadline
}
