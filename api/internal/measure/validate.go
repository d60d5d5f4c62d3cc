package measure

import (
	"fmt"
	"strings"

	"floorlens/api/internal/measure/types"
)

// Validate прогоняет оценку через справочник типичных площадей и возвращает
// финальное измерение. Каждая правка снижает уверенность и дописывает заметку —
// клиент должен видеть, что число исправлено автоматикой, и иметь шанс поправить его руками.
func Validate(e *types.RawEstimate, surface types.SurfaceType) types.Measurement {
	m := types.Measurement{
		FloorArea:  e.FloorArea,
		WallArea:   e.WallArea,
		RoomWidth:  e.RoomWidth,
		RoomLength: e.RoomLength,
		RoomHeight: e.RoomHeight,
		Confidence: e.Confidence,
		RoomType:   e.RoomType,
		Notes:      e.Notes,
	}

	// Сначала межполевая проверка: стены физически не могут быть заметно меньше
	// пола. Если так вышло, модель почти наверняка переписала в wallArea площадь
	// пола — пересчитываем от периметра и высоты (0.85 — типичная поправка на
	// двери и окна) и берём большее. Проверяем до диапазонов, чтобы подменённое
	// число не спряталось за клампом.
	if surface == types.SurfaceWall && m.WallArea > 0 && m.FloorArea > 0 && m.WallArea < 0.8*m.FloorArea {
		h := m.RoomHeight
		if h <= 0 {
			h = 2.5
		}
		if m.RoomWidth > 0 && m.RoomLength > 0 {
			recomputed := types.Round1(2 * (m.RoomWidth + m.RoomLength) * h * 0.85)
			if recomputed > m.WallArea {
				appendNote(&m, fmt.Sprintf("wall area %.1f m² was below the floor area, recomputed from room perimeter as %.1f m²", m.WallArea, recomputed))
				m.WallArea = recomputed
			}
		}
	}

	r, ok := types.RangeFor(e.RoomType)
	if !ok {
		// Тип помещения не распознан — не на что опереться дальше, оценку не трогаем.
		return m
	}

	if m.FloorArea > 0 && m.FloorArea < 0.5*r.FloorMin {
		appendNote(&m, fmt.Sprintf("floor area %.1f m² looked too small for a %s, raised to the typical minimum %.1f m²", m.FloorArea, m.RoomType, r.FloorMin))
		m.FloorArea = r.FloorMin
		reduceConfidence(&m)
	} else if m.FloorArea > 1.5*r.FloorMax {
		appendNote(&m, fmt.Sprintf("floor area %.1f m² looked too large for a %s, lowered to the typical maximum %.1f m²", m.FloorArea, m.RoomType, r.FloorMax))
		m.FloorArea = r.FloorMax
		reduceConfidence(&m)
	}

	if m.WallArea > 0 && m.WallArea < 0.5*r.WallMin {
		appendNote(&m, fmt.Sprintf("wall area %.1f m² looked too small for a %s, raised to the typical minimum %.1f m²", m.WallArea, m.RoomType, r.WallMin))
		m.WallArea = r.WallMin
		reduceConfidence(&m)
	} else if m.WallArea > 1.5*r.WallMax {
		appendNote(&m, fmt.Sprintf("wall area %.1f m² looked too large for a %s, lowered to the typical maximum %.1f m²", m.WallArea, m.RoomType, r.WallMax))
		m.WallArea = r.WallMax
		reduceConfidence(&m)
	}

	return m
}

func reduceConfidence(m *types.Measurement) {
	m.Confidence -= 0.2
	if m.Confidence < 0.15 {
		m.Confidence = 0.15
	}
}

func appendNote(m *types.Measurement, note string) {
	if strings.TrimSpace(m.Notes) == "" {
		m.Notes = note
		return
	}
	m.Notes += "; " + note
}
