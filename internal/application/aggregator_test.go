package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bnema/anicord/internal/domain"
	"github.com/bnema/anicord/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateMixedRosterScenario(t *testing.T) {
	t.Parallel()

	catalog := newEntryCatalog()
	catalog.entries[1] = domain.ListEntry{Status: domain.StatusCompleted, Score: 90}
	catalog.entries[2] = domain.ListEntry{Status: domain.StatusCurrent, Score: 0, Progress: 4}

	aggregator := NewAggregator(catalog, testAggregatorConfig(), &recordingClock{}, nil)
	report, err := aggregator.Aggregate(context.Background(), []domain.LinkedIdentity{
		linked(1, "A"),
		linked(2, "B"),
		linked(3, "C"),
	}, domain.MediaRef{ID: 42, Type: domain.MediaTypeAnime})
	require.NoError(t, err)

	assert.Equal(t, []domain.BucketLines{
		{Bucket: domain.BucketCompleted, Lines: []string{"A (90)"}},
		{Bucket: domain.BucketCurrent, Lines: []string{"B [4] (?)"}},
		{Bucket: domain.BucketNotOnList, Lines: []string{"C"}},
	}, report.Buckets)
	require.True(t, report.HasAverage())
	assert.Equal(t, 90.0, report.Average)
	assert.Equal(t, 1, report.Contributors)
}

func TestAggregateDroppedBelowThresholdIsExcludedFromAverage(t *testing.T) {
	t.Parallel()

	catalog := newEntryCatalog()
	catalog.entries[1] = domain.ListEntry{Status: domain.StatusDropped, Score: 70, Progress: 3}

	aggregator := NewAggregator(catalog, testAggregatorConfig(), &recordingClock{}, nil)
	report, err := aggregator.Aggregate(context.Background(), []domain.LinkedIdentity{linked(1, "D")}, domain.MediaRef{ID: 7, Type: domain.MediaTypeAnime})
	require.NoError(t, err)

	assert.Equal(t, []string{"D [3] (70)"}, report.Lines(domain.BucketDropped))
	assert.False(t, report.HasAverage())
	assert.Len(t, report.Buckets, 1)
}

func TestBuildReportDropThresholdDependsOnMediaType(t *testing.T) {
	t.Parallel()

	roster := []domain.LinkedIdentity{linked(1, "D")}
	entries := []*domain.ListEntry{{Status: domain.StatusDropped, Score: 60, Progress: 10}}
	thresholds := DropThresholds{Anime: 5, Manga: 25}

	anime := BuildReport(roster, entries, domain.MediaRef{Type: domain.MediaTypeAnime}, thresholds)
	assert.True(t, anime.HasAverage())
	assert.Equal(t, 60.0, anime.Average)

	manga := BuildReport(roster, entries, domain.MediaRef{Type: domain.MediaTypeManga}, thresholds)
	assert.False(t, manga.HasAverage())

	noThreshold := BuildReport(roster, []*domain.ListEntry{{Status: domain.StatusDropped, Score: 60}}, domain.MediaRef{Type: domain.MediaTypeManga}, DropThresholds{})
	assert.True(t, noThreshold.HasAverage())
}

func TestBuildReportReclassifiesRepeatingAndPausedAsCurrent(t *testing.T) {
	t.Parallel()

	roster := []domain.LinkedIdentity{linked(1, "R"), linked(2, "P"), linked(3, "W")}
	entries := []*domain.ListEntry{
		{Status: domain.StatusRepeating, Score: 80, Progress: 12},
		{Status: domain.StatusPaused, Score: 0, Progress: 3},
		{Status: domain.StatusCurrent, Score: 70, Progress: 5},
	}

	report := BuildReport(roster, entries, domain.MediaRef{Type: domain.MediaTypeAnime}, DropThresholds{})

	require.Len(t, report.Buckets, 1)
	assert.Equal(t, domain.BucketCurrent, report.Buckets[0].Bucket)
	assert.Equal(t, []string{"R [12/R] (80)", "P [3/P] (?)", "W [5] (70)"}, report.Buckets[0].Lines)
	assert.Equal(t, 75.0, report.Average)
	assert.Equal(t, 2, report.Contributors)
}

func TestBuildReportPlanningNeverContributes(t *testing.T) {
	t.Parallel()

	report := BuildReport(
		[]domain.LinkedIdentity{linked(1, "Plan")},
		[]*domain.ListEntry{{Status: domain.StatusPlanning, Score: 100}},
		domain.MediaRef{Type: domain.MediaTypeAnime},
		DropThresholds{},
	)

	assert.Equal(t, []string{"Plan"}, report.Lines(domain.BucketPlanning))
	assert.False(t, report.HasAverage())
}

func TestBuildReportBucketOrderAndLineCount(t *testing.T) {
	t.Parallel()

	statuses := []domain.ListStatus{
		domain.StatusPlanning,
		domain.StatusDropped,
		"",
		domain.StatusCurrent,
		domain.StatusCompleted,
		domain.StatusPaused,
		domain.StatusRepeating,
	}

	roster := make([]domain.LinkedIdentity, 0, 21)
	entries := make([]*domain.ListEntry, 0, 21)
	for i := 0; i < 21; i++ {
		roster = append(roster, linked(i+1, fmt.Sprintf("m%d", i)))
		status := statuses[i%len(statuses)]
		if status == "" {
			entries = append(entries, nil)
			continue
		}
		entries = append(entries, &domain.ListEntry{Status: status, Score: i % 3 * 40, Progress: i})
	}

	report := BuildReport(roster, entries, domain.MediaRef{Type: domain.MediaTypeAnime}, DropThresholds{Anime: 5})

	assert.Equal(t, len(roster), report.TotalLines())
	got := make([]domain.Bucket, 0, len(report.Buckets))
	for _, bucket := range report.Buckets {
		assert.NotEmpty(t, bucket.Lines)
		got = append(got, bucket.Bucket)
	}
	assert.Equal(t, domain.BucketOrder, got)
}

func TestAggregateRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	catalog := newEntryCatalog()
	catalog.entries[1] = domain.ListEntry{Status: domain.StatusCompleted, Score: 65}
	catalog.failures[1] = 2

	clock := &recordingClock{}
	aggregator := NewAggregator(catalog, testAggregatorConfig(), clock, nil)
	report, err := aggregator.Aggregate(context.Background(), []domain.LinkedIdentity{linked(1, "A")}, domain.MediaRef{ID: 1, Type: domain.MediaTypeAnime})
	require.NoError(t, err)

	assert.Equal(t, []string{"A (65)"}, report.Lines(domain.BucketCompleted))
	assert.Equal(t, 3, catalog.callsFor(1))
	assert.Equal(t, []time.Duration{time.Second, time.Second}, clock.sleeps())
}

func TestAggregateDegradesToNotOnListAfterExhaustingRetries(t *testing.T) {
	t.Parallel()

	catalog := newEntryCatalog()
	catalog.entries[1] = domain.ListEntry{Status: domain.StatusCompleted, Score: 65}
	catalog.failures[1] = 100
	catalog.entries[2] = domain.ListEntry{Status: domain.StatusCompleted, Score: 80}

	aggregator := NewAggregator(catalog, testAggregatorConfig(), &recordingClock{}, nil)
	report, err := aggregator.Aggregate(context.Background(), []domain.LinkedIdentity{linked(1, "A"), linked(2, "B")}, domain.MediaRef{ID: 1, Type: domain.MediaTypeAnime})
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, report.Lines(domain.BucketNotOnList))
	assert.Equal(t, []string{"B (80)"}, report.Lines(domain.BucketCompleted))
	assert.Equal(t, DefaultRetryAttempts, catalog.callsFor(1))
	assert.Equal(t, 80.0, report.Average)
}

func TestAggregateDoesNotRetryNotFound(t *testing.T) {
	t.Parallel()

	catalog := newEntryCatalog()
	aggregator := NewAggregator(catalog, testAggregatorConfig(), &recordingClock{}, nil)

	report, err := aggregator.Aggregate(context.Background(), []domain.LinkedIdentity{linked(9, "Z")}, domain.MediaRef{ID: 1, Type: domain.MediaTypeManga})
	require.NoError(t, err)

	assert.Equal(t, []string{"Z"}, report.Lines(domain.BucketNotOnList))
	assert.Equal(t, 1, catalog.callsFor(9))
}

func TestAggregateDoesNotRetryPermanentErrors(t *testing.T) {
	t.Parallel()

	catalog := newEntryCatalog()
	catalog.permanent[1] = errors.New("graphql: Validation error of type FieldUndefined")
	catalog.entries[2] = domain.ListEntry{Status: domain.StatusCurrent, Score: 70, Progress: 2}

	clock := &recordingClock{}
	aggregator := NewAggregator(catalog, testAggregatorConfig(), clock, nil)
	report, err := aggregator.Aggregate(context.Background(), []domain.LinkedIdentity{linked(1, "A"), linked(2, "B")}, domain.MediaRef{ID: 1, Type: domain.MediaTypeAnime})
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, report.Lines(domain.BucketNotOnList))
	assert.Equal(t, []string{"B [2] (70)"}, report.Lines(domain.BucketCurrent))
	assert.Equal(t, 1, catalog.callsFor(1))
	assert.Empty(t, clock.sleeps())
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	assert.True(t, isTransient(fmt.Errorf("post graphql query: %w: %w", ports.ErrTransient, errBoom)))
	assert.False(t, isTransient(ports.ErrNotFound))
	assert.False(t, isTransient(errBoom))
	assert.False(t, isTransient(errors.New("graphql: status 400")))
}

func TestAggregatePreservesRosterOrderAcrossBatches(t *testing.T) {
	t.Parallel()

	catalog := newEntryCatalog()
	roster := make([]domain.LinkedIdentity, 0, 10)
	want := make([]string, 0, 10)
	for i := 1; i <= 10; i++ {
		catalog.entries[i] = domain.ListEntry{Status: domain.StatusCompleted, Score: 50 + i}
		roster = append(roster, linked(i, fmt.Sprintf("u%02d", i)))
		want = append(want, fmt.Sprintf("u%02d (%d)", i, 50+i))
	}

	clock := &recordingClock{}
	cfg := testAggregatorConfig()
	cfg.Concurrency = 4
	cfg.BatchDelay = 100 * time.Millisecond
	aggregator := NewAggregator(catalog, cfg, clock, nil)

	report, err := aggregator.Aggregate(context.Background(), roster, domain.MediaRef{ID: 3, Type: domain.MediaTypeAnime})
	require.NoError(t, err)

	assert.Equal(t, want, report.Lines(domain.BucketCompleted))
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 100 * time.Millisecond}, clock.sleeps())
}

func TestAggregateWithProgressCountsEveryMember(t *testing.T) {
	t.Parallel()

	catalog := newEntryCatalog()
	catalog.entries[1] = domain.ListEntry{Status: domain.StatusCompleted, Score: 60}
	catalog.failures[2] = 100
	roster := []domain.LinkedIdentity{linked(1, "A"), linked(2, "B"), linked(3, "C"), linked(4, "D"), linked(5, "E")}

	var mu sync.Mutex
	var seen []int
	cfg := testAggregatorConfig()
	cfg.Concurrency = 2
	aggregator := NewAggregator(catalog, cfg, &recordingClock{}, nil)

	_, err := aggregator.AggregateWithProgress(context.Background(), roster, domain.MediaRef{ID: 1, Type: domain.MediaTypeAnime}, func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, len(roster), total)
		seen = append(seen, done)
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5}, seen)
}

func TestAggregateFailsWhenContextIsCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	aggregator := NewAggregator(newEntryCatalog(), testAggregatorConfig(), &recordingClock{}, nil)
	_, err := aggregator.Aggregate(ctx, []domain.LinkedIdentity{linked(1, "A")}, domain.MediaRef{ID: 1, Type: domain.MediaTypeAnime})
	require.ErrorIs(t, err, context.Canceled)
}

func TestAggregateEmptyRoster(t *testing.T) {
	t.Parallel()

	aggregator := NewAggregator(newEntryCatalog(), testAggregatorConfig(), &recordingClock{}, nil)
	report, err := aggregator.Aggregate(context.Background(), nil, domain.MediaRef{ID: 1, Type: domain.MediaTypeAnime})
	require.NoError(t, err)

	assert.Empty(t, report.Buckets)
	assert.False(t, report.HasAverage())
}

func testAggregatorConfig() AggregatorConfig {
	cfg := DefaultAggregatorConfig()
	cfg.BatchDelay = 0
	return cfg
}

func linked(catalogID int, name string) domain.LinkedIdentity {
	return domain.LinkedIdentity{
		ChatUserID:      fmt.Sprintf("chat-%d", catalogID),
		CatalogUserID:   catalogID,
		CatalogUserName: "al_" + name,
		DisplayName:     name,
	}
}

// entryCatalog serves list entries keyed by catalog user ID. failures holds
// how many calls fail transiently before the entry is returned; permanent
// holds an error returned on every call.
type entryCatalog struct {
	ports.Catalog

	mu        sync.Mutex
	entries   map[int]domain.ListEntry
	failures  map[int]int
	permanent map[int]error
	calls     map[int]int
}

func newEntryCatalog() *entryCatalog {
	return &entryCatalog{
		entries:   map[int]domain.ListEntry{},
		failures:  map[int]int{},
		permanent: map[int]error{},
		calls:     map[int]int{},
	}
}

func (c *entryCatalog) GetListEntry(ctx context.Context, catalogUserID int, _ int) (domain.ListEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.ListEntry{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls[catalogUserID]++
	if err, ok := c.permanent[catalogUserID]; ok {
		return domain.ListEntry{}, err
	}
	if c.failures[catalogUserID] > 0 {
		c.failures[catalogUserID]--
		return domain.ListEntry{}, fmt.Errorf("%w: status 500", ports.ErrTransient)
	}

	entry, ok := c.entries[catalogUserID]
	if !ok {
		return domain.ListEntry{}, ports.ErrNotFound
	}
	return entry, nil
}

func (c *entryCatalog) callsFor(catalogUserID int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[catalogUserID]
}

type recordingClock struct {
	mu     sync.Mutex
	slept  []time.Duration
	nowVal time.Time
}

func (c *recordingClock) Now() time.Time {
	return c.nowVal
}

func (c *recordingClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.slept = append(c.slept, d)
	c.mu.Unlock()
	return ctx.Err()
}

func (c *recordingClock) sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.slept...)
}

var errBoom = errors.New("boom")
