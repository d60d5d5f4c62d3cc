package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"floorlens/api/internal/measure"
	"floorlens/api/internal/measure/types"
	"floorlens/api/internal/util"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Engine — двухпроходный оценщик размеров комнаты поверх Gemini.
type Engine struct {
	APIKey string
	Model  string
}

func New(apiKey, model string) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (e *Engine) Name() string { return "gemini" }

// Estimate запускает оба прохода одновременно и дожидается обоих.
// Проходы независимы: падение одного не отменяет второй, merge дальше сам
// разберётся с 0/1/2 удачными результатами.
func (e *Engine) Estimate(ctx context.Context, in measure.EstimateInput) (measure.Pass, measure.Pass) {
	var p1, p2 measure.Pass
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		p1 = e.runPass(ctx, deepPrompt(in), in)
	}()
	go func() {
		defer wg.Done()
		p2 = e.runPass(ctx, quickPrompt(in), in)
	}()
	wg.Wait()
	return p1, p2
}

func (e *Engine) runPass(ctx context.Context, userPrompt string, in measure.EstimateInput) measure.Pass {
	est, err := e.generate(ctx, userPrompt, in)
	return measure.Pass{Estimate: est, Err: err}
}

func (e *Engine) generate(ctx context.Context, userPrompt string, in measure.EstimateInput) (*types.RawEstimate, error) {
	if e.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return nil, err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return nil, fmt.Errorf("gemini: model is nil")
	}
	// Детеминированный JSON-ответ без прозы.
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	parts := []genai.Part{
		genai.Text(userPrompt),
		&genai.Blob{MIMEType: pickMIME(in.RoomMIME, in.RoomImage), Data: in.RoomImage},
	}
	if len(in.ResultImage) > 0 {
		parts = append(parts,
			genai.Text("The second image is the same room rendered with the material already applied; use it as an extra viewpoint."),
			&genai.Blob{MIMEType: pickMIME(in.ResultMIME, in.ResultImage), Data: in.ResultImage},
		)
	}

	// Ретраи только на транзиентные сбои вызова; кривой JSON не ретраим.
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt) * 300 * time.Millisecond)
			continue
		}
		txt := firstText(resp)
		if txt == "" {
			return nil, fmt.Errorf("gemini estimate: empty response")
		}
		return parseEstimate(txt)
	}
	return nil, lastErr
}

// parseEstimate разбирает ответ модели. Лишние поля игнорируем, отсутствующие
// остаются нулями; числа принимаем и как строки — модели иногда кавычат их.
// Все значения прижимаются к физическим границам сразу после разбора.
func parseEstimate(txt string) (*types.RawEstimate, error) {
	txt = util.StripCodeFences(strings.TrimSpace(txt))

	var raw rawEstimateJSON
	if err := json.Unmarshal([]byte(txt), &raw); err != nil {
		return nil, fmt.Errorf("gemini estimate: bad JSON: %w", err)
	}

	e := &types.RawEstimate{
		RoomWidth:        float64(raw.RoomWidth),
		RoomLength:       float64(raw.RoomLength),
		RoomHeight:       float64(raw.RoomHeight),
		FloorArea:        float64(raw.FloorArea),
		WallArea:         float64(raw.WallArea),
		Confidence:       float64(raw.Confidence),
		RoomType:         util.NormalizeRoomType(raw.RoomType),
		Notes:            strings.TrimSpace(raw.Notes),
		ReferenceObjects: raw.ReferenceObjects,
		WallCount:        int(raw.WallCount),
	}
	for _, w := range raw.WallWidths {
		e.WallWidths = append(e.WallWidths, float64(w))
	}
	if raw.TileCount != nil && (raw.TileCount.Horizontal > 0 || raw.TileCount.Vertical > 0) {
		e.TileCount = &types.TileCount{
			Horizontal: int(raw.TileCount.Horizontal),
			Vertical:   int(raw.TileCount.Vertical),
			TileSize:   strings.TrimSpace(raw.TileCount.TileSize),
		}
	}
	e.Clamp()
	return e, nil
}

type rawEstimateJSON struct {
	RoomWidth  flexFloat `json:"room_width"`
	RoomLength flexFloat `json:"room_length"`
	RoomHeight flexFloat `json:"room_height"`
	FloorArea  flexFloat `json:"floor_area"`
	WallArea   flexFloat `json:"wall_area"`
	Confidence flexFloat `json:"confidence"`
	RoomType   string    `json:"room_type"`
	Notes      string    `json:"notes"`

	ReferenceObjects []string `json:"reference_objects"`
	TileCount        *struct {
		Horizontal flexFloat `json:"horizontal"`
		Vertical   flexFloat `json:"vertical"`
		TileSize   string    `json:"tile_size"`
	} `json:"tile_count"`
	WallCount  flexFloat   `json:"wall_count"`
	WallWidths []flexFloat `json:"wall_widths"`
}

// flexFloat терпит число, число-строку и null. Мусор превращается в 0 («нет данных»),
// а не в ошибку всего прохода.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	s = strings.ReplaceAll(s, ",", ".")
	var v float64
	if _, err := fmt.Sscanf(s, "%g", &v); err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

func pickMIME(mime string, data []byte) string {
	if strings.TrimSpace(mime) != "" {
		return mime
	}
	return util.SniffMimeHTTP(data)
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
