package measure

import (
	"errors"
	"testing"

	"floorlens/api/internal/measure/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pass(e types.RawEstimate) Pass {
	e.Clamp()
	return Pass{Estimate: &e}
}

func failedPass() Pass {
	return Pass{Err: errors.New("timeout")}
}

func TestMerge_BothFailed(t *testing.T) {
	_, err := Merge(failedPass(), failedPass(), false)
	assert.ErrorIs(t, err, ErrNoEstimate)
}

func TestMerge_SinglePassPassthrough(t *testing.T) {
	p1 := pass(types.RawEstimate{
		RoomWidth: 3, RoomLength: 4, RoomHeight: 2.5,
		FloorArea: 12, WallArea: 29.8, Confidence: 0.8, RoomType: "bedroom",
	})
	got, err := Merge(p1, failedPass(), false)
	require.NoError(t, err)

	// Единственный живой проход едет как есть, без усреднения с чем-либо.
	assert.Equal(t, 3.0, got.RoomWidth)
	assert.Equal(t, 4.0, got.RoomLength)
	assert.Equal(t, 2.5, got.RoomHeight)
	assert.Equal(t, 29.8, got.WallArea)
	assert.Equal(t, 0.8, got.Confidence)
	assert.Equal(t, "bedroom", got.RoomType)

	got2, err := Merge(failedPass(), p1, false)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got2.RoomWidth)
}

func TestMerge_AgreementBoost(t *testing.T) {
	p1 := pass(types.RawEstimate{RoomWidth: 3.0, RoomLength: 4.0, RoomHeight: 2.5, Confidence: 0.6})
	p2 := pass(types.RawEstimate{RoomWidth: 3.1, RoomLength: 4.1, RoomHeight: 2.5, Confidence: 0.6})

	got, err := Merge(p1, p2, false)
	require.NoError(t, err)

	assert.Greater(t, got.Confidence, 0.6, "agreeing passes must raise confidence")
	assert.InDelta(t, 0.75, got.Confidence, 1e-9)
	assert.GreaterOrEqual(t, got.RoomWidth, 3.0)
	assert.LessOrEqual(t, got.RoomWidth, 3.1)
}

func TestMerge_DisagreementPenalty(t *testing.T) {
	p1 := pass(types.RawEstimate{RoomWidth: 2.0, RoomLength: 4.0, RoomHeight: 2.5, Confidence: 0.5})
	p2 := pass(types.RawEstimate{RoomWidth: 6.0, RoomLength: 4.0, RoomHeight: 2.5, Confidence: 0.5})

	got, err := Merge(p1, p2, false)
	require.NoError(t, err)

	assert.Less(t, got.Confidence, 0.5, "disagreeing widths must be flagged low-confidence")
	assert.InDelta(t, 0.4, got.Confidence, 1e-9)
}

func TestMerge_ConfidenceFloor(t *testing.T) {
	p1 := pass(types.RawEstimate{RoomWidth: 2.0, RoomLength: 4.0, Confidence: 0.1})
	p2 := pass(types.RawEstimate{RoomWidth: 6.0, RoomLength: 4.0, Confidence: 0.1})

	got, err := Merge(p1, p2, false)
	require.NoError(t, err)
	assert.Equal(t, 0.15, got.Confidence)
}

func TestMerge_FloorAreaRecomputedFromSides(t *testing.T) {
	// Площади пола в проходах нарочно неконсистентны со сторонами.
	p1 := pass(types.RawEstimate{RoomWidth: 3.0, RoomLength: 4.0, FloorArea: 20, Confidence: 0.7})
	p2 := pass(types.RawEstimate{RoomWidth: 3.0, RoomLength: 4.0, FloorArea: 7, Confidence: 0.7})

	got, err := Merge(p1, p2, false)
	require.NoError(t, err)
	assert.Equal(t, types.Round1(got.RoomWidth*got.RoomLength), got.FloorArea)
	assert.Equal(t, 12.0, got.FloorArea)
}

func TestMerge_TileCountBoostsDeepPass(t *testing.T) {
	p1 := pass(types.RawEstimate{
		RoomWidth: 2.0, RoomLength: 3.0, RoomHeight: 2.5, Confidence: 0.6,
		TileCount: &types.TileCount{Horizontal: 10, Vertical: 15, TileSize: "20x30cm"},
	})
	p2 := pass(types.RawEstimate{RoomWidth: 4.0, RoomLength: 3.0, RoomHeight: 2.5, Confidence: 0.6})

	withTiles, err := Merge(p1, p2, true)
	require.NoError(t, err)
	withoutTiles, err := Merge(p1, p2, false)
	require.NoError(t, err)

	// С известным размером плитки первый проход тяжелее: среднее ближе к его ширине.
	assert.Less(t, withTiles.RoomWidth, withoutTiles.RoomWidth)
	// И сверху бонус за пересчёт плиток.
	assert.Greater(t, withTiles.Confidence, withoutTiles.Confidence)
}

func TestMerge_TileCountIgnoredWithoutKnownSize(t *testing.T) {
	p1 := pass(types.RawEstimate{
		RoomWidth: 3.0, RoomLength: 3.0, Confidence: 0.6,
		TileCount: &types.TileCount{Horizontal: 10, Vertical: 15},
	})
	p2 := pass(types.RawEstimate{RoomWidth: 3.0, RoomLength: 3.0, Confidence: 0.6})

	got, err := Merge(p1, p2, false)
	require.NoError(t, err)
	// Без известного размера материала плиточного бонуса быть не должно:
	// согласие даёт ровно +0.15.
	assert.InDelta(t, weightedAvg(0.6, 0.6, (0.6+0.15)*1.2, 0.6)+0.15, got.Confidence, 1e-9)
}

func TestMerge_AbsentFieldDoesNotPullToZero(t *testing.T) {
	// Первый проход мерил только стены, второй — только пол.
	p1 := pass(types.RawEstimate{WallArea: 24, RoomHeight: 2.7, Confidence: 0.7})
	p2 := pass(types.RawEstimate{RoomWidth: 3.0, RoomLength: 4.0, FloorArea: 12, Confidence: 0.6})

	got, err := Merge(p1, p2, false)
	require.NoError(t, err)
	assert.Equal(t, 24.0, got.WallArea, "missing wall area in pass 2 must not halve the value")
	assert.Equal(t, 3.0, got.RoomWidth)
	assert.Equal(t, 12.0, got.FloorArea)
	assert.Equal(t, 2.7, got.RoomHeight)
}

func TestWeightedAvg(t *testing.T) {
	assert.InDelta(t, 3.04, weightedAvg(3.0, 3.1, 0.9, 0.6), 1e-9)
	assert.Equal(t, 5.0, weightedAvg(5, 0, 1, 1))
	assert.Equal(t, 5.0, weightedAvg(0, 5, 1, 1))
	assert.Zero(t, weightedAvg(0, 0, 1, 1))
	assert.Equal(t, 4.0, weightedAvg(3, 5, 0, 0), "zero weights fall back to the plain mean")
}

func TestAgree(t *testing.T) {
	assert.True(t, agree(3.0, 3.1, 0.30))
	assert.False(t, agree(2.0, 6.0, 0.30))
	assert.True(t, agree(2.5, 2.5, 0.15))
	assert.False(t, agree(2.0, 2.5, 0.15))
	assert.True(t, agree(0, 2.5, 0.15), "absent value is not a disagreement")
}
