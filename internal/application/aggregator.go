package application

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bnema/anicord/internal/domain"
	"github.com/bnema/anicord/internal/ports"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMinDropAnime     = 5
	DefaultMinDropManga     = 25
	DefaultConcurrency      = 4
	DefaultBatchDelay       = 250 * time.Millisecond
	unscoredPlaceholder     = "?"
	repeatingProgressSuffix = "/R"
	pausedProgressSuffix    = "/P"
)

// DropThresholds is the minimum progress a dropped entry needs before its
// score counts toward the guild average. Zero disables the threshold.
type DropThresholds struct {
	Anime int
	Manga int
}

func (t DropThresholds) For(mediaType domain.MediaType) int {
	if mediaType == domain.MediaTypeManga {
		return t.Manga
	}
	return t.Anime
}

type AggregatorConfig struct {
	Thresholds  DropThresholds
	Retry       RetryPolicy
	Concurrency int
	BatchDelay  time.Duration
}

func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		Thresholds:  DropThresholds{Anime: DefaultMinDropAnime, Manga: DefaultMinDropManga},
		Retry:       DefaultRetryPolicy(),
		Concurrency: DefaultConcurrency,
		BatchDelay:  DefaultBatchDelay,
	}
}

type Aggregator struct {
	catalog ports.Catalog
	cfg     AggregatorConfig
	clock   ports.Clock
	logger  *zap.Logger
}

func NewAggregator(catalog ports.Catalog, cfg AggregatorConfig, clock ports.Clock, logger *zap.Logger) *Aggregator {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	return &Aggregator{catalog: catalog, cfg: cfg, clock: clock, logger: logger}
}

func (a *Aggregator) Thresholds() DropThresholds {
	return a.cfg.Thresholds
}

// ProgressFunc is told how many of total members have been fetched. It may be
// called from several goroutines.
type ProgressFunc func(done, total int)

// Aggregate fetches the list entry of every roster member for media and builds
// the guild report. Members whose entry cannot be fetched are reported as not
// on list; only context cancellation fails the whole aggregation.
func (a *Aggregator) Aggregate(ctx context.Context, roster []domain.LinkedIdentity, media domain.MediaRef) (domain.AggregateReport, error) {
	return a.AggregateWithProgress(ctx, roster, media, nil)
}

// AggregateWithProgress is Aggregate reporting each finished member fetch to
// progress.
func (a *Aggregator) AggregateWithProgress(ctx context.Context, roster []domain.LinkedIdentity, media domain.MediaRef, progress ProgressFunc) (domain.AggregateReport, error) {
	entries, err := a.fetchEntries(ctx, roster, media.ID, progress)
	if err != nil {
		return domain.AggregateReport{}, err
	}

	return BuildReport(roster, entries, media, a.cfg.Thresholds), nil
}

// fetchEntries returns one entry per roster member, nil meaning not on list.
// Members are fetched in batches of cfg.Concurrency with cfg.BatchDelay
// between batches.
func (a *Aggregator) fetchEntries(ctx context.Context, roster []domain.LinkedIdentity, mediaID int, progress ProgressFunc) ([]*domain.ListEntry, error) {
	entries := make([]*domain.ListEntry, len(roster))
	var done atomic.Int64

	for start := 0; start < len(roster); start += a.cfg.Concurrency {
		if start > 0 {
			if err := a.clock.Sleep(ctx, a.cfg.BatchDelay); err != nil {
				return nil, err
			}
		}

		end := min(start+a.cfg.Concurrency, len(roster))
		group, groupCtx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			group.Go(func() error {
				entry, err := a.fetchEntry(groupCtx, roster[i], mediaID)
				if err != nil {
					return err
				}
				entries[i] = entry
				if progress != nil {
					progress(int(done.Add(1)), len(roster))
				}
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
	}

	return entries, nil
}

func (a *Aggregator) fetchEntry(ctx context.Context, identity domain.LinkedIdentity, mediaID int) (*domain.ListEntry, error) {
	var entry domain.ListEntry
	attempts, err := a.cfg.Retry.Do(ctx, a.clock, isTransient, func(ctx context.Context) error {
		var fetchErr error
		entry, fetchErr = a.catalog.GetListEntry(ctx, identity.CatalogUserID, mediaID)
		return fetchErr
	})

	switch {
	case err == nil:
		return &entry, nil
	case errors.Is(err, ports.ErrNotFound):
		return nil, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		a.logger.Warn("list entry unavailable, reporting member as not on list",
			zap.Int("catalog_user_id", identity.CatalogUserID),
			zap.String("catalog_user", identity.CatalogUserName),
			zap.Int("media_id", mediaID),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return nil, nil
	}
}

// isTransient reports whether a list entry fetch is worth retrying. Permanent
// catalog errors degrade the member on the first attempt.
func isTransient(err error) bool {
	return errors.Is(err, ports.ErrTransient)
}

// BuildReport renders and buckets one line per roster member. entries[i]
// belongs to roster[i]; a nil entry means the member does not list the media.
func BuildReport(roster []domain.LinkedIdentity, entries []*domain.ListEntry, media domain.MediaRef, thresholds DropThresholds) domain.AggregateReport {
	lines := make(map[domain.Bucket][]string, len(domain.BucketOrder))
	sum := 0
	contributors := 0

	for i, identity := range roster {
		var entry *domain.ListEntry
		if i < len(entries) {
			entry = entries[i]
		}

		if entry == nil {
			lines[domain.BucketNotOnList] = append(lines[domain.BucketNotOnList], identity.DisplayName)
			continue
		}

		line, contributes := memberLine(identity.DisplayName, *entry, thresholds.For(media.Type))
		if contributes {
			sum += entry.Score
			contributors++
		}

		bucket := entry.Status.DisplayBucket()
		lines[bucket] = append(lines[bucket], line)
	}

	report := domain.AggregateReport{Media: media, Contributors: contributors}
	if contributors > 0 {
		report.Average = float64(sum) / float64(contributors)
	}
	for _, bucket := range domain.BucketOrder {
		if len(lines[bucket]) == 0 {
			continue
		}
		report.Buckets = append(report.Buckets, domain.BucketLines{Bucket: bucket, Lines: lines[bucket]})
	}

	return report
}

// memberLine renders one member and reports whether the score counts toward
// the average.
func memberLine(name string, entry domain.ListEntry, dropThreshold int) (string, bool) {
	score := unscoredPlaceholder
	if entry.Scored() {
		score = fmt.Sprint(entry.Score)
	}

	switch entry.Status {
	case domain.StatusCompleted:
		return fmt.Sprintf("%s (%s)", name, score), entry.Scored()
	case domain.StatusCurrent:
		return fmt.Sprintf("%s [%d] (%s)", name, entry.Progress, score), entry.Scored()
	case domain.StatusRepeating:
		return fmt.Sprintf("%s [%d%s] (%s)", name, entry.Progress, repeatingProgressSuffix, score), entry.Scored()
	case domain.StatusPaused:
		return fmt.Sprintf("%s [%d%s] (%s)", name, entry.Progress, pausedProgressSuffix, score), entry.Scored()
	case domain.StatusDropped:
		return fmt.Sprintf("%s [%d] (%s)", name, entry.Progress, score), entry.Scored() && entry.Progress >= dropThreshold
	default:
		return name, false
	}
}
