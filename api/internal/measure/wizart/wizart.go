package wizart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"floorlens/api/internal/measure/types"
	"floorlens/api/internal/util"
)

const defaultBaseURL = "https://vision.wizart.ai/api"

// Client — адаптер Wizart Vision: 3D-реконструкция комнаты по одному фото.
// Сам ничего не оценивает, только переводит стены/проёмы реконструкции в площади.
type Client struct {
	APIKey  string
	BaseURL string

	httpc *http.Client
}

func New(apiKey, baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		APIKey:  strings.TrimSpace(apiKey),
		BaseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) Name() string { return "wizart" }

type surface struct {
	ID     int     `json:"id"`
	WallID int     `json:"wall_id,omitempty"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Area   float64 `json:"area"`
}

type response struct {
	Reconstruction *struct {
		Walls   []surface `json:"walls"`
		Windows []surface `json:"windows"`
		Doors   []surface `json:"doors"`
		Floors  []surface `json:"floors"`
	} `json:"reconstruction"`
	Analysis *struct {
		InteriorType string `json:"interior_type"`
		ImageInfo    struct {
			BadTargetConfidence float64 `json:"bad_target_confidence"`
		} `json:"image_info"`
	} `json:"analysis"`
}

// MeasureRoom загружает фото и переводит реконструкцию в RawEstimate.
// Любой сбой (не-2xx, кривой JSON, пустая реконструкция) — восстановимая ошибка:
// оркестратор поймает её и уйдёт на Vision Estimator.
func (c *Client) MeasureRoom(ctx context.Context, image []byte) (*types.RawEstimate, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("wizart: WIZART_API_KEY is empty")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", "room.jpg")
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(image); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, _ := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/interior/reconstruction", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("vision-api-key", c.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("wizart reconstruction %d: %s", resp.StatusCode, string(x))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("wizart reconstruction: bad JSON: %w", err)
	}
	if out.Reconstruction == nil {
		return nil, fmt.Errorf("wizart reconstruction: empty payload")
	}
	return toEstimate(&out), nil
}

func toEstimate(out *response) *types.RawEstimate {
	rec := out.Reconstruction

	var floorArea float64
	for _, f := range rec.Floors {
		floorArea += f.Area
	}

	// Чистая площадь стен = стены минус окна и двери, не ниже нуля.
	var wallArea float64
	for _, w := range rec.Walls {
		wallArea += w.Area
	}
	for _, w := range rec.Windows {
		wallArea -= w.Area
	}
	for _, d := range rec.Doors {
		wallArea -= d.Area
	}
	if wallArea < 0 {
		wallArea = 0
	}

	// Высота — средняя по стенам. Если стен нет, берём стандартный потолок 2.5 м.
	height := 2.5
	if len(rec.Walls) > 0 {
		var sum float64
		for _, w := range rec.Walls {
			sum += w.Height
		}
		height = sum / float64(len(rec.Walls))
	}

	// Длина — самая широкая стена; ширина — из площади пола. Стороны округляем
	// и пересчитываем площадь, чтобы floorArea == round(width*length, 1).
	var width, length float64
	for _, w := range rec.Walls {
		if w.Width > length {
			length = w.Width
		}
	}
	if floorArea > 0 {
		if length <= 0 {
			length = math.Sqrt(floorArea)
		}
		length = types.Round1(length)
		width = types.Round1(floorArea / length)
		floorArea = types.Round1(width * length)
	}

	e := &types.RawEstimate{
		RoomWidth:  width,
		RoomLength: length,
		RoomHeight: types.Round1(height),
		FloorArea:  floorArea,
		WallArea:   types.Round1(wallArea),
		WallCount:  len(rec.Walls),
		Confidence: 0.9,
	}
	for _, w := range rec.Walls {
		e.WallWidths = append(e.WallWidths, w.Width)
	}
	if out.Analysis != nil {
		e.RoomType = util.NormalizeRoomType(out.Analysis.InteriorType)
		// bad_target_confidence — уверенность, что на фото вообще не комната.
		e.Confidence = 1 - out.Analysis.ImageInfo.BadTargetConfidence
	}
	e.Clamp()
	return e
}
