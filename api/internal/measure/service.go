package measure

import (
	"context"
	"log"

	"floorlens/api/internal/measure/types"
)

// Service — оркестратор измерений: кэш → Wizart → Gemini → умолчание.
// Провайдеры и кэш — явные зависимости; nil означает «не настроен».
type Service struct {
	Geometry GeometryProvider
	Vision   VisionEstimator
	Store    MeasurementStore
}

// Request — один запрос на измерение. Ключ кэша — GenerationID.
type Request struct {
	GenerationID string

	RoomImage []byte
	RoomMIME  string

	ResultImage []byte
	ResultMIME  string

	TileWidthCM  float64
	TileHeightCM float64

	Surface types.SurfaceType
}

func (r Request) hasTileSize() bool {
	return r.TileWidthCM > 0 && r.TileHeightCM > 0
}

// hasNewInformation — появились ли данные, которых не было при прошлом замере.
// Только в этом случае имеет смысл перемеривать просроченный фолбэк.
func (r Request) hasNewInformation() bool {
	return len(r.ResultImage) > 0 || r.hasTileSize()
}

// Measure выполняет одно разрешение измерения. Для штатных провалов провайдеров
// клиент всё равно получает полный Measurement (с низкой уверенностью) — ошибку
// возвращаем только когда вообще нечем мерить.
func (s *Service) Measure(ctx context.Context, req Request) (types.Measurement, error) {
	if m, ok := s.fromCache(ctx, req); ok {
		return m, nil
	}

	if s.Geometry == nil && s.Vision == nil {
		return types.Measurement{}, ErrNotConfigured
	}

	if s.Geometry != nil {
		est, err := s.Geometry.MeasureRoom(ctx, req.RoomImage)
		if err == nil {
			m := Validate(est, req.Surface)
			m.Source = types.SourceWizart
			s.persist(ctx, req.GenerationID, m)
			return m, nil
		}
		// Ошибка геометрии восстановимая: логируем и пробуем оценщик.
		log.Printf("measure: %s failed: %v; falling through to vision estimator", s.Geometry.Name(), err)
	}

	if s.Vision != nil {
		p1, p2 := s.Vision.Estimate(ctx, EstimateInput{
			RoomImage:    req.RoomImage,
			RoomMIME:     req.RoomMIME,
			ResultImage:  req.ResultImage,
			ResultMIME:   req.ResultMIME,
			TileWidthCM:  req.TileWidthCM,
			TileHeightCM: req.TileHeightCM,
			Surface:      req.Surface,
		})
		merged, err := Merge(p1, p2, req.hasTileSize())
		if err == nil {
			m := Validate(merged, req.Surface)
			m.Source = types.SourceGemini
			// Шум с копеечной уверенностью в кэш не пишем, иначе он прикинется замером.
			if m.Confidence > 0.1 {
				s.persist(ctx, req.GenerationID, m)
			}
			return m, nil
		}
		log.Printf("measure: %s estimation failed entirely (pass1: %v; pass2: %v)", s.Vision.Name(), p1.Err, p2.Err)
	}

	// Все стратегии исчерпаны. Отдаём консервативное умолчание; его пара площадей —
	// сентинел, поэтому в кэш оно не попадает и при новых данных замер повторится.
	m := smartFallbackDefaults(req.Surface)
	if s.Vision != nil {
		m.Source = types.SourceGemini
	} else {
		m.Source = types.SourceWizart
	}
	return m, nil
}

func (s *Service) fromCache(ctx context.Context, req Request) (types.Measurement, bool) {
	if s.Store == nil || req.GenerationID == "" {
		return types.Measurement{}, false
	}
	m, err := s.Store.Find(ctx, req.GenerationID)
	if err != nil || m == nil {
		return types.Measurement{}, false
	}
	if m.FloorArea <= 0 || m.WallArea <= 0 {
		return types.Measurement{}, false
	}
	if types.IsFallbackPair(m.FloorArea, m.WallArea) && req.hasNewInformation() {
		// Сохранённая пара — бывший дефолт, а не замер, и теперь есть чем мерить лучше.
		log.Printf("measure: cached value for %s is a stale fallback, re-measuring", req.GenerationID)
		return types.Measurement{}, false
	}
	out := *m
	out.Source = types.SourceCache
	out.Cached = true
	return out, true
}

func (s *Service) persist(ctx context.Context, generationID string, m types.Measurement) {
	if s.Store == nil || generationID == "" {
		return
	}
	if err := s.Store.Save(ctx, generationID, m); err != nil {
		// Кэш совещательный: неудачная запись не должна ломать ответ.
		log.Printf("measure: save for %s failed: %v", generationID, err)
	}
}

// smartFallbackDefaults — маленькая ванная: наименее рискованное предположение,
// когда автоматика не справилась. Пара (5, 15) намеренно совпадает с сентинелом.
func smartFallbackDefaults(surface types.SurfaceType) types.Measurement {
	notes := "Automatic measurement failed; these are conservative small-bathroom defaults, please correct the numbers manually."
	if surface == types.SurfaceWall {
		notes = "Automatic wall measurement failed; these are conservative small-bathroom defaults, please correct the wall area manually."
	}
	return types.Measurement{
		FloorArea:  5,
		WallArea:   15,
		RoomWidth:  2.2,
		RoomLength: 2.3,
		RoomHeight: 2.5,
		Confidence: 0.1,
		RoomType:   "bathroom",
		Notes:      notes,
	}
}
