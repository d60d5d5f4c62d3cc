package types

import "strings"

// RoomTypeRange — типичные диапазоны площадей для типа помещения.
// Справочник статический, на рантайме не меняется.
type RoomTypeRange struct {
	FloorMin     float64
	FloorMax     float64
	FloorTypical float64
	WallMin      float64
	WallMax      float64
	WallTypical  float64
}

// Диапазоны подобраны по типовым квартирам, с которыми работают клиенты:
// нижняя граница — очень тесное помещение, верхняя — просторное.
var roomRanges = map[string]RoomTypeRange{
	"bathroom":    {FloorMin: 3, FloorMax: 10, FloorTypical: 5, WallMin: 12, WallMax: 35, WallTypical: 18},
	"toilet":      {FloorMin: 1, FloorMax: 4, FloorTypical: 2, WallMin: 8, WallMax: 20, WallTypical: 12},
	"kitchen":     {FloorMin: 6, FloorMax: 25, FloorTypical: 10, WallMin: 18, WallMax: 60, WallTypical: 30},
	"bedroom":     {FloorMin: 9, FloorMax: 30, FloorTypical: 14, WallMin: 25, WallMax: 70, WallTypical: 40},
	"living_room": {FloorMin: 15, FloorMax: 50, FloorTypical: 20, WallMin: 30, WallMax: 100, WallTypical: 50},
	"hallway":     {FloorMin: 3, FloorMax: 15, FloorTypical: 6, WallMin: 12, WallMax: 45, WallTypical: 20},
	"balcony":     {FloorMin: 2, FloorMax: 10, FloorTypical: 4, WallMin: 8, WallMax: 30, WallTypical: 14},
}

// RangeFor возвращает диапазон для типа помещения.
// Модели пишут тип по-разному ("Living Room", "living-room"), поэтому нормализуем.
func RangeFor(roomType string) (RoomTypeRange, bool) {
	key := strings.ToLower(strings.TrimSpace(roomType))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	switch key {
	case "wc", "restroom":
		key = "toilet"
	case "livingroom", "lounge":
		key = "living_room"
	case "corridor", "entrance", "entrance_hall":
		key = "hallway"
	}
	r, ok := roomRanges[key]
	return r, ok
}
