package types

import "math"

// SurfaceType — какую поверхность меряем: пол, стены или обе сразу.
type SurfaceType string

const (
	SurfaceFloor SurfaceType = "floor"
	SurfaceWall  SurfaceType = "wall"
	SurfaceBoth  SurfaceType = "both"
)

// ParseSurface нормализует строку из запроса. Неизвестное значение считаем полом —
// это основной сценарий у клиентов.
func ParseSurface(s string) SurfaceType {
	switch SurfaceType(s) {
	case SurfaceWall:
		return SurfaceWall
	case SurfaceBoth:
		return SurfaceBoth
	default:
		return SurfaceFloor
	}
}

// Жёсткие физические границы. Всё, что модель вернула за их пределами,
// прижимается к границе ещё до merge.
const (
	MinSide   = 0.5
	MaxSide   = 30.0
	MinHeight = 1.8
	MaxHeight = 5.0

	MinFloorArea = 0.5
	MaxFloorArea = 200.0
	MinWallArea  = 1.0
	MaxWallArea  = 500.0
)

// Провенанс финального измерения.
const (
	SourceCache  = "cache"
	SourceWizart = "wizart"
	SourceGemini = "gemini"
)

// TileCount — сколько плиток/досок модель насчитала по горизонтали и вертикали.
// Заполняется только когда клиент передал реальный размер материала.
type TileCount struct {
	Horizontal int    `json:"horizontal"`
	Vertical   int    `json:"vertical"`
	TileSize   string `json:"tile_size,omitempty"`
}

// RawEstimate — сырой результат одного прохода оценщика (или адаптера Wizart).
// Живёт только до merge; наружу не отдаётся.
type RawEstimate struct {
	RoomWidth  float64 `json:"room_width"`
	RoomLength float64 `json:"room_length"`
	RoomHeight float64 `json:"room_height"`
	FloorArea  float64 `json:"floor_area"`
	WallArea   float64 `json:"wall_area"`
	Confidence float64 `json:"confidence"`
	RoomType   string  `json:"room_type"`
	Notes      string  `json:"notes"`

	ReferenceObjects []string   `json:"reference_objects,omitempty"`
	TileCount        *TileCount `json:"tile_count,omitempty"`
	WallCount        int        `json:"wall_count,omitempty"`
	WallWidths       []float64  `json:"wall_widths,omitempty"`
}

// Clamp прижимает все числовые поля к физическим границам.
// Нулевое или отрицательное значение трактуем как «поле отсутствует» и оставляем нулём,
// чтобы merge не тянул среднее к нулю.
func (e *RawEstimate) Clamp() {
	e.RoomWidth = clampAbsent(e.RoomWidth, MinSide, MaxSide)
	e.RoomLength = clampAbsent(e.RoomLength, MinSide, MaxSide)
	e.RoomHeight = clampAbsent(e.RoomHeight, MinHeight, MaxHeight)
	e.FloorArea = clampAbsent(e.FloorArea, MinFloorArea, MaxFloorArea)
	e.WallArea = clampAbsent(e.WallArea, MinWallArea, MaxWallArea)
	e.Confidence = math.Min(math.Max(e.Confidence, 0), 1)
}

func clampAbsent(v, lo, hi float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Min(math.Max(v, lo), hi)
}

// Measurement — финальный провалидированный результат, который храним и отдаём клиенту.
type Measurement struct {
	FloorArea  float64 `json:"floor_area"`
	WallArea   float64 `json:"wall_area"`
	RoomWidth  float64 `json:"room_width"`
	RoomLength float64 `json:"room_length"`
	RoomHeight float64 `json:"room_height"`
	Confidence float64 `json:"confidence"`
	RoomType   string  `json:"room_type,omitempty"`
	Notes      string  `json:"notes,omitempty"`
	Source     string  `json:"source"`
	Cached     bool    `json:"cached"`
}

// Пары (floorArea, wallArea), которые исторически подставлялись как дефолт вместо
// настоящего замера. Совпадение с ними означает «на самом деле не мерили».
var fallbackSentinels = [...][2]float64{
	{12, 28}, // старый дефолт
	{5, 15},  // текущий дефолт (маленькая ванная)
}

// IsFallbackPair сообщает, является ли сохранённая пара площадей сентинелом фолбэка.
func IsFallbackPair(floorArea, wallArea float64) bool {
	for _, p := range fallbackSentinels {
		if floorArea == p[0] && wallArea == p[1] {
			return true
		}
	}
	return false
}

// Round1 — округление до одного знака; единое для всех площадей и размеров.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
