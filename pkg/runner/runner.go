// Package runner orchestrates one collection run: optional startup delay,
// fetch from the vendor cloud, snapshot, projection into the state tree,
// publish, then terminate.
package runner

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/levenlabs/go-lflag"
	"github.com/sofarbridge/sofarbridge/pkg/log"
	"github.com/sofarbridge/sofarbridge/pkg/projector"
	"github.com/sofarbridge/sofarbridge/pkg/snapshot"
	"github.com/sofarbridge/sofarbridge/pkg/sofar"
	"github.com/sofarbridge/sofarbridge/pkg/statetree"
	"github.com/sofarbridge/sofarbridge/pkg/types"
)

const defaultStartupDelayMax = 57 * time.Second

// Fetcher loads the full current dataset from the vendor cloud.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]types.StationRecord, error)
}

// Bus is the outbound message bus for station readings.
type Bus interface {
	Enabled() bool
	BrokerConfigured() bool
	Connect(ctx context.Context) error
	PublishStations(ctx context.Context, records []types.StationRecord)
	Close()
}

// Terminator receives the final reason and exit code of a run. It is called
// exactly once per run.
type Terminator func(reason string, code int)

// Runner executes one collection run and then terminates the process.
type Runner struct {
	fetcher Fetcher
	store   statetree.Store
	bus     Bus

	delayMax        time.Duration
	snapshotEnabled bool
	snapshotDir     string

	terminate     Terminator
	terminateOnce sync.Once
}

// Configured sets up the runner based on flags. The fetcher, store, and bus
// come from their own Configured constructors.
func Configured(fetcher *sofar.Client, store statetree.Store, bus Bus) *Runner {
	delayMax := lflag.Duration("startup-delay-max", defaultStartupDelayMax, "Upper bound for the random startup delay")
	snapshotEnabled := lflag.Bool("snapshot-enabled", false, "Write the fetched dataset to a JSON snapshot file")
	snapshotDir := lflag.String("snapshot-dir", "", "Directory for the snapshot file (empty for the working directory)")

	r := &Runner{
		fetcher: fetcher,
		store:   store,
		bus:     bus,
		terminate: func(reason string, code int) {
			os.Exit(code)
		},
	}

	lflag.Do(func() {
		r.delayMax = *delayMax
		r.snapshotEnabled = *snapshotEnabled
		r.snapshotDir = *snapshotDir
	})

	return r
}

// SetTerminator replaces the default process-exit termination hook.
func (r *Runner) SetTerminator(t Terminator) {
	r.terminate = t
}

// Run executes one collection run. It always terminates, on every path,
// exactly once.
func (r *Runner) Run(ctx context.Context) {
	ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("runID", uuid.NewString())))
	reason := r.run(ctx)
	r.bus.Close()
	r.signalDone(ctx, reason)
}

func (r *Runner) run(ctx context.Context) string {
	if err := r.delay(ctx); err != nil {
		return "shutdown requested"
	}

	if r.bus.Enabled() && !r.bus.BrokerConfigured() {
		log.Ctx(ctx).ErrorContext(ctx, "MQTT broker address is empty")
		return "MQTT broker address is empty"
	}
	if r.bus.Enabled() {
		if err := r.bus.Connect(ctx); err != nil {
			// readings still reach the state tree without the bus
			log.Ctx(ctx).WarnContext(ctx, "failed to connect to MQTT broker", slog.Any("error", err))
		}
	}

	records, err := r.fetcher.FetchAll(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "fetch failed", slog.Any("error", err))
		if errors.Is(err, sofar.ErrAuth) {
			return "no token received"
		}
		return "no data received"
	}
	if len(records) == 0 {
		log.Ctx(ctx).ErrorContext(ctx, "no stations in response")
		return "no data received"
	}
	log.Ctx(ctx).InfoContext(ctx, "dataset fetched", slog.Int("stations", len(records)))

	if r.snapshotEnabled {
		if path, err := snapshot.Write(r.snapshotDir, records); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to write snapshot", slog.Any("error", err))
		} else {
			log.Ctx(ctx).DebugContext(ctx, "snapshot written", slog.String("path", path))
		}
	}

	for idx, record := range records {
		if err := projector.Project(ctx, r.store, record, idx); err != nil {
			// a broken station must not block the others
			log.Ctx(ctx).WarnContext(ctx, "failed to project station",
				slog.Int("index", idx), slog.Any("error", err))
		}
	}

	r.bus.PublishStations(ctx, records)

	return "everything done, going to terminate until next schedule"
}

// delay sleeps a random duration in [0, delayMax] so a fleet of collectors
// does not hit the vendor API at the same instant.
func (r *Runner) delay(ctx context.Context) error {
	if r.delayMax <= 0 {
		return nil
	}
	d := time.Duration(rand.Int64N(int64(r.delayMax) + 1))
	log.Ctx(ctx).DebugContext(ctx, "delaying startup", slog.Duration("delay", d))
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// signalDone fires the termination hook. The reason string is the failure
// signal; the code passed to the host is 0 on every path.
func (r *Runner) signalDone(ctx context.Context, reason string) {
	r.terminateOnce.Do(func() {
		log.Ctx(ctx).InfoContext(ctx, "terminating", slog.String("reason", reason))
		r.terminate(reason, 0)
	})
}
