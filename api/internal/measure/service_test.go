package measure

import (
	"context"
	"errors"
	"testing"

	"floorlens/api/internal/measure/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- фейки ----

type fakeGeometry struct {
	est   *types.RawEstimate
	err   error
	calls int
}

func (f *fakeGeometry) Name() string { return "wizart" }
func (f *fakeGeometry) MeasureRoom(ctx context.Context, image []byte) (*types.RawEstimate, error) {
	f.calls++
	return f.est, f.err
}

type fakeVision struct {
	p1, p2 Pass
	calls  int
}

func (f *fakeVision) Name() string { return "gemini" }
func (f *fakeVision) Estimate(ctx context.Context, in EstimateInput) (Pass, Pass) {
	f.calls++
	return f.p1, f.p2
}

type fakeStore struct {
	data  map[string]types.Measurement
	saves int
}

func newFakeStore() *fakeStore { return &fakeStore{data: map[string]types.Measurement{}} }

func (f *fakeStore) Find(ctx context.Context, id string) (*types.Measurement, error) {
	m, ok := f.data[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &m, nil
}

func (f *fakeStore) Save(ctx context.Context, id string, m types.Measurement) error {
	f.saves++
	f.data[id] = m
	return nil
}

func goodEstimate() *types.RawEstimate {
	e := &types.RawEstimate{
		RoomWidth: 3.0, RoomLength: 4.0, RoomHeight: 2.6,
		FloorArea: 12, WallArea: 31, Confidence: 0.8, RoomType: "bedroom",
	}
	e.Clamp()
	return e
}

func baseRequest() Request {
	return Request{
		GenerationID: "gen-1",
		RoomImage:    []byte{0xFF, 0xD8, 0x01},
		RoomMIME:     "image/jpeg",
		Surface:      types.SurfaceFloor,
	}
}

// ---- тесты ----

func TestService_NoProvidersConfigured(t *testing.T) {
	svc := &Service{}
	_, err := svc.Measure(context.Background(), baseRequest())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestService_GeometryProviderWins(t *testing.T) {
	geo := &fakeGeometry{est: goodEstimate()}
	vis := &fakeVision{}
	st := newFakeStore()
	svc := &Service{Geometry: geo, Vision: vis, Store: st}

	m, err := svc.Measure(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.Equal(t, types.SourceWizart, m.Source)
	assert.False(t, m.Cached)
	assert.Equal(t, 12.0, m.FloorArea)
	assert.Zero(t, vis.calls, "vision estimator must not run when geometry succeeded")
	assert.Equal(t, 1, st.saves)
}

func TestService_GeometryFailureFallsThrough(t *testing.T) {
	geo := &fakeGeometry{err: errors.New("503 from wizart")}
	vis := &fakeVision{p1: Pass{Estimate: goodEstimate()}, p2: Pass{Err: errors.New("timeout")}}
	st := newFakeStore()
	svc := &Service{Geometry: geo, Vision: vis, Store: st}

	m, err := svc.Measure(context.Background(), baseRequest())
	require.NoError(t, err, "geometry failure is recoverable, never surfaces to the caller")

	assert.Equal(t, types.SourceGemini, m.Source)
	assert.Equal(t, 1, geo.calls)
	assert.Equal(t, 1, vis.calls)
	assert.Equal(t, 1, st.saves)
}

func TestService_TotalFailureReturnsSmartFallback(t *testing.T) {
	geo := &fakeGeometry{err: errors.New("down")}
	vis := &fakeVision{p1: Pass{Err: errors.New("down")}, p2: Pass{Err: errors.New("down")}}
	st := newFakeStore()
	svc := &Service{Geometry: geo, Vision: vis, Store: st}

	m, err := svc.Measure(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.Equal(t, 5.0, m.FloorArea)
	assert.Equal(t, 15.0, m.WallArea)
	assert.Equal(t, 0.1, m.Confidence)
	assert.Equal(t, "bathroom", m.RoomType)
	assert.Contains(t, m.Notes, "Automatic")
	assert.True(t, types.IsFallbackPair(m.FloorArea, m.WallArea))
	assert.Zero(t, st.saves, "fallback defaults must never be cached")
}

func TestService_LowConfidenceNotCached(t *testing.T) {
	low := goodEstimate()
	low.Confidence = 0.05
	vis := &fakeVision{p1: Pass{Estimate: low}, p2: Pass{Err: errors.New("timeout")}}
	st := newFakeStore()
	svc := &Service{Vision: vis, Store: st}

	m, err := svc.Measure(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.Equal(t, types.SourceGemini, m.Source)
	assert.Zero(t, st.saves, "confidence <= 0.1 is noise, not a trustworthy answer")
}

func TestService_CacheHit(t *testing.T) {
	st := newFakeStore()
	st.data["gen-1"] = types.Measurement{
		FloorArea: 12, WallArea: 31, RoomWidth: 3, RoomLength: 4,
		Confidence: 0.8, Source: types.SourceWizart,
	}
	geo := &fakeGeometry{est: goodEstimate()}
	svc := &Service{Geometry: geo, Store: st}

	m, err := svc.Measure(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.Equal(t, types.SourceCache, m.Source)
	assert.True(t, m.Cached)
	assert.Zero(t, geo.calls, "cached measurement must short-circuit the providers")
}

func TestService_IncompleteCacheEntryRemeasures(t *testing.T) {
	st := newFakeStore()
	st.data["gen-1"] = types.Measurement{FloorArea: 12, Confidence: 0.8}
	geo := &fakeGeometry{est: goodEstimate()}
	svc := &Service{Geometry: geo, Store: st}

	m, err := svc.Measure(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.Equal(t, types.SourceWizart, m.Source)
	assert.Equal(t, 1, geo.calls, "cache entry without wall area is not a complete measurement")
}

func TestService_SentinelWithNewDataIsStale(t *testing.T) {
	st := newFakeStore()
	st.data["gen-1"] = types.Measurement{FloorArea: 5, WallArea: 15, Confidence: 0.1}
	geo := &fakeGeometry{est: goodEstimate()}
	svc := &Service{Geometry: geo, Store: st}

	req := baseRequest()
	req.ResultImage = []byte{0xFF, 0xD8, 0x02} // появился рендер — можно мерить заново

	m, err := svc.Measure(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, types.SourceWizart, m.Source)
	assert.Equal(t, 1, geo.calls)
	assert.Equal(t, 12.0, st.data["gen-1"].FloorArea, "fresh measurement overwrites the stale fallback")
}

func TestService_SentinelWithTileSizeIsStale(t *testing.T) {
	st := newFakeStore()
	st.data["gen-1"] = types.Measurement{FloorArea: 12, WallArea: 28, Confidence: 0.1}
	geo := &fakeGeometry{est: goodEstimate()}
	svc := &Service{Geometry: geo, Store: st}

	req := baseRequest()
	req.TileWidthCM, req.TileHeightCM = 20, 30

	_, err := svc.Measure(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, geo.calls, "historical (12, 28) sentinel must also count as stale")
}

func TestService_SentinelWithoutNewDataServedFromCache(t *testing.T) {
	st := newFakeStore()
	st.data["gen-1"] = types.Measurement{FloorArea: 5, WallArea: 15, Confidence: 0.1}
	geo := &fakeGeometry{est: goodEstimate()}
	svc := &Service{Geometry: geo, Store: st}

	m, err := svc.Measure(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.Equal(t, types.SourceCache, m.Source)
	assert.True(t, m.Cached)
	assert.Zero(t, geo.calls, "without new information the sentinel is still the best we have")
}

func TestService_WorksWithoutStore(t *testing.T) {
	vis := &fakeVision{p1: Pass{Estimate: goodEstimate()}, p2: Pass{Err: errors.New("timeout")}}
	svc := &Service{Vision: vis}

	m, err := svc.Measure(context.Background(), baseRequest())
	require.NoError(t, err)
	assert.Equal(t, types.SourceGemini, m.Source)
}

func TestService_VisionResultIsValidated(t *testing.T) {
	tiny := &types.RawEstimate{FloorArea: 0.8, Confidence: 0.7, RoomType: "bathroom"}
	tiny.Clamp()
	vis := &fakeVision{p1: Pass{Estimate: tiny}, p2: Pass{Err: errors.New("timeout")}}
	svc := &Service{Vision: vis}

	m, err := svc.Measure(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, m.FloorArea, 3.0, "sanity validator runs on the merged result")
	assert.Contains(t, m.Notes, "too small")
}
