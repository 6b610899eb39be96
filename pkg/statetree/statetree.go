// Package statetree is the boundary to the external hierarchical state
// store. One container entry exists per station and one leaf entry per
// telemetry field, addressed as <stationID>.<fieldName>.
package statetree

import (
	"context"
	"fmt"

	"github.com/levenlabs/go-lflag"
	"github.com/sofarbridge/sofarbridge/pkg/types"
)

// Store persists typed, named values under hierarchical keys, creating
// structure lazily. Ensure operations are create-if-absent and never rewrite
// existing metadata; WriteValue always overwrites and marks the update
// acknowledged.
type Store interface {
	// EnsureContainer creates the container entry for a station if it does
	// not exist yet.
	EnsureContainer(ctx context.Context, id, name string) error
	// EnsureLeaf creates the leaf entry <containerID>.<leaf.Field> if it does
	// not exist yet. Leaf metadata is set once and kept stable afterwards.
	EnsureLeaf(ctx context.Context, containerID string, leaf types.Leaf) error
	// WriteValue writes the current reading into an existing leaf.
	WriteValue(ctx context.Context, containerID, field string, value types.Value) error

	// Lifecycle
	Close() error
}

// Configured sets up the state tree provider based on flags.
func Configured() Store {
	provider := lflag.String("statetree-provider", "redis", "State tree provider to use (available: redis, firestore)")

	var p struct{ Store }

	r := configuredRedis()
	fs := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "redis":
			if err := r.Validate(); err != nil {
				panic(fmt.Sprintf("redis validation failed: %v", err))
			}
			if err := r.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("redis init failed: %v", err))
			}
			p.Store = r
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
			p.Store = fs
		default:
			panic(fmt.Sprintf("unknown statetree provider: %s", *provider))
		}
	})

	return &p
}
