package gemini

import (
	"fmt"
	"strings"

	"floorlens/api/internal/measure"
	"floorlens/api/internal/measure/types"
)

// Общие правила формата. Сами инструкции прохода — в deepPrompt/quickPrompt;
// формулировки двух проходов намеренно независимы, чтобы второй не «подпевал» первому.
const systemPrompt = `You are a room measurement assistant for a flooring and wall covering company.
You look at interior photos and estimate real-world room dimensions in meters.
Answer with a single JSON object and nothing else. Fields:
room_width, room_length, room_height (meters), floor_area, wall_area (square meters),
confidence (0..1), room_type (bathroom|toilet|kitchen|bedroom|living_room|hallway|balcony|other),
notes (string), reference_objects (array of strings),
tile_count ({"horizontal": int, "vertical": int, "tile_size": string}, only if you actually counted tiles),
wall_count (int), wall_widths (array of meters).
Omit fields you cannot estimate instead of guessing zero.`

// deepPrompt — «глубокий» проход: пошаговое рассуждение с опорными объектами
// известного размера и внутренней проверкой на типичные диапазоны.
func deepPrompt(in measure.EstimateInput) string {
	var b strings.Builder
	b.WriteString(`Measure this room step by step:
1. Classify the room type.
2. Find reference objects with known real-world sizes and list them in reference_objects:
   a standard interior door is 2.04 m tall and 0.83 m wide, a toilet bowl is about 0.65 m deep,
   a sink is about 0.55 m wide, kitchen counters are 0.9 m tall, a bathtub is 1.7 m long.
3. Use the references to estimate room width, length and ceiling height in meters.
`)
	b.WriteString(tileInstruction(in, 4))
	b.WriteString(surfaceInstruction(in.Surface, 5))
	b.WriteString(`6. Sanity-check your numbers against typical sizes for the room type
   (a bathroom floor is usually 3-10 m2, a kitchen 6-25 m2, a living room 15-50 m2)
   and adjust confidence down if your estimate falls outside.
Report honest confidence: 0.9 only when references are clearly visible.`)
	return b.String()
}

// quickPrompt — короткая перекрёстная проверка, сформулированная иначе.
func quickPrompt(in measure.EstimateInput) string {
	var b strings.Builder
	b.WriteString("Give a quick independent size estimate of the room in this photo, in meters and square meters.\n")
	switch in.Surface {
	case types.SurfaceWall:
		b.WriteString("Focus on total wall surface suitable for wall covering, openings excluded.\n")
	case types.SurfaceBoth:
		b.WriteString("Report both floor_area and wall_area; derive them separately.\n")
	default:
		b.WriteString("Focus on the floor surface.\n")
	}
	if in.HasTileSize() {
		fmt.Fprintf(&b, "Visible tiles/planks are %.0fx%.0f cm if that helps.\n", in.TileWidthCM, in.TileHeightCM)
	}
	b.WriteString("Fill room_width, room_length, room_height, floor_area, wall_area, room_type and confidence.")
	return b.String()
}

func tileInstruction(in measure.EstimateInput, step int) string {
	if !in.HasTileSize() {
		return fmt.Sprintf("%d. No known material size is available; skip tile counting.\n", step)
	}
	return fmt.Sprintf(`%d. The material on the photo has a known size of %.0fx%.0f cm.
   Count whole tiles/planks along two perpendicular directions and report the counts
   in tile_count; prefer dimensions derived from the counts over visual guessing.
`, step, in.TileWidthCM, in.TileHeightCM)
}

func surfaceInstruction(surface types.SurfaceType, step int) string {
	switch surface {
	case types.SurfaceWall:
		return fmt.Sprintf(`%d. Compute wall_area per visible wall: wall width times ceiling height,
   minus door and window openings. Sum the walls; do NOT reuse the floor area.
`, step)
	case types.SurfaceBoth:
		return fmt.Sprintf(`%d. Compute floor_area as width times length AND wall_area from the wall
   geometry (perimeter, height, minus openings). Justify the two numbers independently;
   they must not be the same value.
`, step)
	default:
		return fmt.Sprintf("%d. Compute floor_area as room width times room length.\n", step)
	}
}
