package measure

import (
	"strings"

	"floorlens/api/internal/measure/types"
)

// Пороги согласия проходов: относительная разница по ширине/длине и по высоте.
const (
	sideAgreeTol   = 0.30
	heightAgreeTol = 0.15
)

// Merge сводит два прохода оценщика в одну оценку.
//
// Первый проход — «глубокий» (пошаговое рассуждение с опорными объектами), ему даём
// бонус к весу; второй — короткая перекрёстная проверка. Если клиент передал размер
// плитки и первый проход реально посчитал плитки в обе стороны, его вес растёт ещё
// в полтора раза: пересчёт плиток почти ground truth.
func Merge(p1, p2 Pass, tileSizeKnown bool) (*types.RawEstimate, error) {
	switch {
	case !p1.OK() && !p2.OK():
		return nil, ErrNoEstimate
	case p1.OK() && !p2.OK():
		return p1.Estimate, nil
	case !p1.OK():
		return p2.Estimate, nil
	}

	e1, e2 := p1.Estimate, p2.Estimate

	w1 := (e1.Confidence + 0.15) * 1.2
	w2 := e2.Confidence
	tileCounted := tileSizeKnown && e1.TileCount != nil &&
		e1.TileCount.Horizontal > 0 && e1.TileCount.Vertical > 0
	if tileCounted {
		w1 *= 1.5
	}

	merged := &types.RawEstimate{
		RoomType:         pickNonEmpty(e1.RoomType, e2.RoomType),
		Notes:            joinNotes(e1.Notes, e2.Notes),
		ReferenceObjects: e1.ReferenceObjects,
		TileCount:        e1.TileCount,
		WallCount:        e1.WallCount,
		WallWidths:       e1.WallWidths,
	}
	merged.RoomWidth = types.Round1(weightedAvg(e1.RoomWidth, e2.RoomWidth, w1, w2))
	merged.RoomLength = types.Round1(weightedAvg(e1.RoomLength, e2.RoomLength, w1, w2))
	merged.RoomHeight = types.Round1(weightedAvg(e1.RoomHeight, e2.RoomHeight, w1, w2))
	merged.WallArea = types.Round1(weightedAvg(e1.WallArea, e2.WallArea, w1, w2))

	// Площадь пола не усредняем: пересчитываем из округлённых сторон, чтобы
	// floorArea == round(width*length, 1) держалось всегда.
	if merged.RoomWidth > 0 && merged.RoomLength > 0 {
		merged.FloorArea = types.Round1(merged.RoomWidth * merged.RoomLength)
	} else {
		merged.FloorArea = types.Round1(weightedAvg(e1.FloorArea, e2.FloorArea, w1, w2))
	}

	conf := weightedAvg(e1.Confidence, e2.Confidence, w1, w2)
	if agree(e1.RoomWidth, e2.RoomWidth, sideAgreeTol) &&
		agree(e1.RoomLength, e2.RoomLength, sideAgreeTol) &&
		agree(e1.RoomHeight, e2.RoomHeight, heightAgreeTol) {
		conf += 0.15
	} else {
		conf -= 0.10
	}
	if tileCounted {
		conf += 0.10
	}
	if conf > 1 {
		conf = 1
	}
	if conf < 0.15 {
		conf = 0.15
	}
	merged.Confidence = conf

	return merged, nil
}

// weightedAvg уважает отсутствующие поля: ноль в одном из проходов не тянет
// среднее к нулю, берём то, что есть.
func weightedAvg(v1, v2, w1, w2 float64) float64 {
	switch {
	case v1 > 0 && v2 > 0:
		if w1+w2 <= 0 {
			return (v1 + v2) / 2
		}
		return (v1*w1 + v2*w2) / (w1 + w2)
	case v1 > 0:
		return v1
	case v2 > 0:
		return v2
	default:
		return 0
	}
}

// agree — относительная разница меньше порога. Если одно из значений отсутствует,
// несогласие не засчитываем: нет данных — нет противоречия.
func agree(a, b, tol float64) bool {
	if a <= 0 || b <= 0 {
		return true
	}
	max := a
	if b > max {
		max = b
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff/max < tol
}

func pickNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func joinNotes(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "":
		return b
	case b == "" || b == a:
		return a
	default:
		return a + "; " + b
	}
}
