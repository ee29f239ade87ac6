package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Recorder is the fire-and-forget usage writer. Record never blocks and
// never surfaces storage errors to the caller: a full buffer drops the
// record, a failed write is logged and ignored. Feature checks stay
// available no matter what the analytics backend does.
type Recorder struct {
	storage      Storage
	logger       *slog.Logger
	clock        func() time.Time
	writeTimeout time.Duration

	records   chan Record
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets the logger for dropped records and write failures.
func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithBufferSize sets the in-memory record buffer (default 1024).
func WithBufferSize(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.records = make(chan Record, n)
		}
	}
}

// WithClock overrides the recorder's time source.
func WithClock(clock func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithWriteTimeout bounds each storage append (default 5s).
func WithWriteTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.writeTimeout = d
		}
	}
}

// NewRecorder creates a usage recorder and starts its background writer.
func NewRecorder(storage Storage, opts ...RecorderOption) (*Recorder, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	r := &Recorder{
		storage:      storage,
		logger:       slog.Default(),
		clock:        time.Now,
		writeTimeout: 5 * time.Second,
		records:      make(chan Record, 1024),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.wg.Add(1)
	go r.worker()
	return r, nil
}

// Record queues a usage record. Missing IDs and timestamps are filled in.
// The call never blocks: if the buffer is full or the recorder is closed,
// the record is dropped and the drop is logged.
func (r *Recorder) Record(rec Record) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = r.clock()
	}

	select {
	case <-r.done:
		r.logger.Warn("usage record dropped, recorder closed",
			slog.String("flag", rec.FlagName))
		return
	default:
	}

	select {
	case r.records <- rec:
	default:
		r.logger.Warn("usage record dropped, buffer full",
			slog.String("flag", rec.FlagName))
	}
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case rec := <-r.records:
			r.append(rec)
		case <-r.done:
			// Drain whatever is buffered before exiting.
			for {
				select {
				case rec := <-r.records:
					r.append(rec)
				default:
					return
				}
			}
		}
	}
}

// append writes one record with a bounded, detached context so a slow
// backend cannot stall the drain loop.
func (r *Recorder) append(rec Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	if err := r.storage.Append(ctx, rec); err != nil {
		r.logger.Error("failed to append usage record",
			slog.String("flag", rec.FlagName),
			slog.String("error", err.Error()))
	}
}

// Close stops the recorder, draining buffered records. The context bounds
// how long the drain may take.
func (r *Recorder) Close(ctx context.Context) error {
	r.closeOnce.Do(func() { close(r.done) })

	drained := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Report scans the day buckets in [from, to] and aggregates usage of the
// flag, optionally restricted to one environment. Days are interpreted in
// UTC; malformed log entries are skipped and counted.
func (r *Recorder) Report(ctx context.Context, flagName string, from, to time.Time, environment string) (Report, error) {
	fromDay := from.UTC().Truncate(24 * time.Hour)
	toDay := to.UTC().Truncate(24 * time.Hour)
	if toDay.Before(fromDay) {
		return Report{}, ErrInvalidRange
	}

	report := Report{
		FlagName:    flagName,
		Environment: environment,
		From:        fromDay,
		To:          toDay,
		Variants:    make(map[string]int),
	}
	users := make(map[string]struct{})

	for day := fromDay; !day.After(toDay); day = day.Add(24 * time.Hour) {
		records, malformed, err := r.storage.Scan(ctx, flagName, day)
		if err != nil {
			return Report{}, err
		}
		report.Malformed += malformed

		stats := DayStats{Date: day.Format(dayFormat)}
		for _, rec := range records {
			if environment != "" && rec.Environment != environment {
				continue
			}
			stats.Total++
			report.Total++
			if rec.Enabled {
				stats.Enabled++
				report.Enabled++
			} else {
				stats.Disabled++
				report.Disabled++
			}
			if rec.Variant != "" {
				report.Variants[rec.Variant]++
			}
			if rec.UserID != "" {
				users[rec.UserID] = struct{}{}
			}
		}
		report.Days = append(report.Days, stats)
	}

	report.UniqueUsers = len(users)
	return report, nil
}
