package measure

import (
	"context"
	"errors"

	"floorlens/api/internal/measure/types"
)

var (
	// ErrNotConfigured — не настроен ни один провайдер измерений.
	// Наверху превращается в 501, число не выдумываем.
	ErrNotConfigured = errors.New("measure: no measurement provider configured")

	// ErrNoEstimate — оба прохода оценщика провалились, усреднять нечего.
	ErrNoEstimate = errors.New("measure: both estimation passes failed")
)

// Pass — исход одного прохода Vision Estimator. Проходы падают независимо,
// поэтому ошибка едет рядом с результатом, а не вместо него.
type Pass struct {
	Estimate *types.RawEstimate
	Err      error
}

func (p Pass) OK() bool { return p.Err == nil && p.Estimate != nil }

// EstimateInput — картинки уже скачаны и приходят байтами: провайдерам не нужно
// знать про URL-ы.
type EstimateInput struct {
	RoomImage []byte
	RoomMIME  string

	// Рендер с уже наложенным материалом; пусто, если его ещё нет.
	ResultImage []byte
	ResultMIME  string

	// Известный размер плитки/доски в сантиметрах; 0 — размер неизвестен.
	TileWidthCM  float64
	TileHeightCM float64

	Surface types.SurfaceType
}

// HasTileSize — известен ли реальный размер материала (нужны обе стороны).
func (in EstimateInput) HasTileSize() bool {
	return in.TileWidthCM > 0 && in.TileHeightCM > 0
}

// GeometryProvider — внешний сервис 3D-реконструкции (Wizart).
// Любая его ошибка восстановимая: оркестратор падает на Vision Estimator.
type GeometryProvider interface {
	Name() string
	MeasureRoom(ctx context.Context, image []byte) (*types.RawEstimate, error)
}

// VisionEstimator — двухпроходный оценщик на vision-модели.
// Всегда возвращает оба исхода; 0, 1 или 2 удачных прохода разруливает Merge.
type VisionEstimator interface {
	Name() string
	Estimate(ctx context.Context, in EstimateInput) (Pass, Pass)
}

// MeasurementStore — кэш измерений по generation id.
// Отсутствие записи — ошибка store.ErrNotFound; оркестратор трактует любую ошибку
// Find как промах кэша.
type MeasurementStore interface {
	Find(ctx context.Context, generationID string) (*types.Measurement, error)
	Save(ctx context.Context, generationID string, m types.Measurement) error
}
