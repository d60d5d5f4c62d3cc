package handle

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"floorlens/api/internal/measure"
	"floorlens/api/internal/measure/types"
	"floorlens/api/internal/util"

	"github.com/google/uuid"
)

type measureReq struct {
	RoomImageURL   string  `json:"room_image_url"`
	GenerationID   string  `json:"generation_id"`
	ResultImageURL string  `json:"result_image_url"`
	TileWidth      float64 `json:"tile_width"`
	TileHeight     float64 `json:"tile_height"`
	SurfaceType    string  `json:"surface_type"`
}

type measureResp struct {
	GenerationID string `json:"generation_id"`
	types.Measurement
}

// Measure — POST /v1/measure. Качает картинки по URL, прогоняет оркестратор и
// всегда отвечает полным измерением; 501 только когда не настроен ни один провайдер.
func (h *Handle) Measure(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req measureReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.RoomImageURL) == "" {
		http.Error(w, "room_image_url is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestDeadline(r))
	defer cancel()

	// Без generation id кэшировать не по чему; чеканим свой и возвращаем клиенту,
	// чтобы повторный запрос попал в кэш.
	generationID := strings.TrimSpace(req.GenerationID)
	if generationID == "" {
		generationID = uuid.NewString()
	}

	roomImg, roomMIME, err := util.DownloadImage(ctx, h.httpc, req.RoomImageURL)
	if err != nil {
		http.Error(w, "cannot fetch room image: "+err.Error(), http.StatusBadGateway)
		return
	}

	var resultImg []byte
	var resultMIME string
	if u := strings.TrimSpace(req.ResultImageURL); u != "" {
		// Рендер — вспомогательный ракурс: если не скачался, меряем без него.
		if b, mime, err := util.DownloadImage(ctx, h.httpc, u); err != nil {
			log.Printf("measure: result image fetch failed: %v", err)
		} else {
			resultImg, resultMIME = b, mime
		}
	}

	m, err := h.svc.Measure(ctx, measure.Request{
		GenerationID: generationID,
		RoomImage:    roomImg,
		RoomMIME:     roomMIME,
		ResultImage:  resultImg,
		ResultMIME:   resultMIME,
		TileWidthCM:  req.TileWidth,
		TileHeightCM: req.TileHeight,
		Surface:      types.ParseSurface(req.SurfaceType),
	})
	if err != nil {
		if errors.Is(err, measure.ErrNotConfigured) {
			http.Error(w, err.Error(), http.StatusNotImplemented)
			return
		}
		http.Error(w, "measure error: "+err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, measureResp{GenerationID: generationID, Measurement: m})
}
