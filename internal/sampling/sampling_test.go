package sampling

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func testHotspots() []domain.Hotspot {
	return []domain.Hotspot{
		{ID: "h1", Name: "Nyabugogo", Latitude: -1.939, Longitude: 30.044, Weight: 3, NodeID: ptr(int64(11))},
		{ID: "h2", Name: "Kimironko", Latitude: -1.949, Longitude: 30.125, Weight: 1, NodeID: ptr(int64(12)), RegionID: ptr("gasabo")},
	}
}

func testNodes() []domain.NodeRecord {
	return []domain.NodeRecord{
		{NodeID: 1, Latitude: -1.95, Longitude: 30.06, RegionID: ptr("nyarugenge")},
		{NodeID: 2, Latitude: -1.96, Longitude: 30.07},
		{NodeID: 3, Latitude: -1.97, Longitude: 30.08, RegionID: ptr("kicukiro")},
	}
}

// fixedSource replays scripted variates
type fixedSource struct {
	floats []float64
	ints   []int
}

func (f *fixedSource) Float64() float64 {
	v := f.floats[0]
	f.floats = f.floats[1:]
	return v
}

func (f *fixedSource) IntN(n int) int {
	v := f.ints[0]
	f.ints = f.ints[1:]
	return v % n
}

func TestChooseLocationFractionZeroNeverHotspot(t *testing.T) {
	src := NewSource(1)
	s, err := NewLocationSampler(testHotspots(), testNodes(), 0)
	require.NoError(t, err)

	for i := 0; i < 10000; i++ {
		loc, err := s.Choose(src)
		require.NoError(t, err)
		_, isNode := loc.(domain.NodeDraw)
		require.True(t, isNode)
		require.Nil(t, loc.Hotspot())
	}
}

func TestChooseLocationFractionOneAlwaysHotspot(t *testing.T) {
	src := NewSource(2)
	s, err := NewLocationSampler(testHotspots(), testNodes(), 1)
	require.NoError(t, err)

	for i := 0; i < 10000; i++ {
		loc, err := s.Choose(src)
		require.NoError(t, err)
		_, isHotspot := loc.(domain.HotspotDraw)
		require.True(t, isHotspot)
		require.NotNil(t, loc.Hotspot())
	}
}

func TestChooseLocationInvalidFraction(t *testing.T) {
	for _, f := range []float64{-0.1, 1.0001, math.NaN(), math.Inf(1)} {
		_, err := ChooseLocation(NewSource(1), testHotspots(), testNodes(), f)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidFraction), "fraction %v", f)
	}
}

func TestChooseLocationEmptyCatalog(t *testing.T) {
	_, err := ChooseLocation(NewSource(1), testHotspots(), nil, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyCatalog))
}

func TestChooseLocationEmptyHotspotsFallsBackToUniform(t *testing.T) {
	src := NewSource(3)
	for i := 0; i < 100; i++ {
		loc, err := ChooseLocation(src, nil, testNodes(), 1)
		require.NoError(t, err)
		assert.Nil(t, loc.Hotspot())
	}
}

func TestChooseLocationBranchBoundary(t *testing.T) {
	// u == fraction takes the uniform branch
	src := &fixedSource{floats: []float64{0.5}, ints: []int{2}}
	loc, err := ChooseLocation(src, testHotspots(), testNodes(), 0.5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), loc.NodeID())
	assert.Equal(t, "kicukiro", *loc.Region())

	// u just below fraction, then 0.8*4=3.2 lands on h2
	src = &fixedSource{floats: []float64{0.49, 0.8}}
	loc, err = ChooseLocation(src, testHotspots(), testNodes(), 0.5)
	require.NoError(t, err)
	assert.Equal(t, "h2", *loc.Hotspot())
	assert.Equal(t, int64(12), loc.NodeID())
	assert.Equal(t, 1.0, loc.Weight())
}

func TestChooseLocationHotspotProportions(t *testing.T) {
	src := NewSource(4)
	s, err := NewLocationSampler(testHotspots(), testNodes(), 1)
	require.NoError(t, err)

	const trials = 20000
	h1 := 0
	for i := 0; i < trials; i++ {
		loc, err := s.Choose(src)
		require.NoError(t, err)
		if *loc.Hotspot() == "h1" {
			h1++
		}
	}
	assert.InDelta(t, 0.75, float64(h1)/trials, 0.02)
}

func TestLocationSamplerFloorsWeights(t *testing.T) {
	spots := testHotspots()
	spots[1].Weight = 0
	s, err := NewLocationSampler(spots, testNodes(), 1)
	require.NoError(t, err)
	assert.Equal(t, WeightFloor, s.weights[1])
	assert.InDelta(t, 3+WeightFloor, s.total, 1e-12)
}

func TestUniformReachable(t *testing.T) {
	s, _ := NewLocationSampler(testHotspots(), nil, 1)
	assert.False(t, s.UniformReachable())
	s, _ = NewLocationSampler(nil, nil, 1)
	assert.True(t, s.UniformReachable())
	s, _ = NewLocationSampler(testHotspots(), nil, 0.99)
	assert.True(t, s.UniformReachable())
}

func TestChooseLocationReproducible(t *testing.T) {
	draw := func() []int64 {
		src := NewSource(42)
		s, err := NewLocationSampler(testHotspots(), testNodes(), 0.6)
		require.NoError(t, err)
		out := make([]int64, 0, 200)
		for i := 0; i < 200; i++ {
			loc, err := s.Choose(src)
			require.NoError(t, err)
			out = append(out, loc.NodeID())
		}
		return out
	}
	assert.Equal(t, draw(), draw())
}

func TestSampleTimeMinuteRange(t *testing.T) {
	src := NewSource(5)
	seen := make(map[int]bool)
	for i := 0; i < 5000; i++ {
		m := SampleTimeMinute(src, 60)
		require.GreaterOrEqual(t, m, 0)
		require.Less(t, m, 60)
		seen[m] = true
	}
	assert.Len(t, seen, 60)
	assert.Equal(t, 0, SampleTimeMinute(src, 1))
}

func TestSampleSeverityDefaultMix(t *testing.T) {
	src := NewSource(6)
	counts := map[domain.Severity]int{}
	const trials = 50000
	for i := 0; i < trials; i++ {
		counts[SampleSeverity(src, nil)]++
	}
	assert.InDelta(t, 0.60, float64(counts[domain.SeverityLow])/trials, 0.015)
	assert.InDelta(t, 0.30, float64(counts[domain.SeverityMedium])/trials, 0.015)
	assert.InDelta(t, 0.10, float64(counts[domain.SeverityHigh])/trials, 0.015)
}

func TestSampleSeverityOverride(t *testing.T) {
	table := SeverityTable{
		{Severity: domain.SeverityLow, Probability: 0},
		{Severity: domain.SeverityHigh, Probability: 2},
	}
	require.NoError(t, table.Validate())

	src := NewSource(7)
	for i := 0; i < 100; i++ {
		assert.Equal(t, domain.SeverityHigh, SampleSeverity(src, table))
	}
}

func TestSeverityTableValidate(t *testing.T) {
	require.NoError(t, DefaultSeverityTable.Validate())
	require.Error(t, SeverityTable{}.Validate())
	require.Error(t, SeverityTable{{Severity: "critical", Probability: 1}}.Validate())
	require.Error(t, SeverityTable{{Severity: domain.SeverityLow, Probability: -1}}.Validate())
	require.Error(t, SeverityTable{{Severity: domain.SeverityLow, Probability: 0}}.Validate())
	require.Error(t, SeverityTable{{Severity: domain.SeverityLow, Probability: math.NaN()}}.Validate())
	require.Error(t, SeverityTable{
		{Severity: domain.SeverityLow, Probability: 0.5},
		{Severity: domain.SeverityHigh, Probability: math.Inf(1)},
	}.Validate())
}
