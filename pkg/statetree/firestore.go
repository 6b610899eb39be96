package statetree

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"github.com/sofarbridge/sofarbridge/pkg/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements the Store interface using Google Cloud Firestore.
// Containers are documents in the configured collection; leaves are documents
// in a "fields" subcollection of their container.
type FirestoreStore struct {
	client     *firestore.Client
	projectID  string
	database   string
	collection string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreStore {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")
	collection := lflag.String("firestore-collection", "stations", "Collection holding the station containers")

	f := &FirestoreStore{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database
		f.collection = *collection

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreStore) Validate() error {
	// Project ID verification could be here, but we allow empty if inferred.
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreStore) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreStore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *FirestoreStore) containerDoc(id string) *firestore.DocumentRef {
	return f.client.Collection(f.collection).Doc(id)
}

func (f *FirestoreStore) leafDoc(containerID, field string) *firestore.DocumentRef {
	return f.containerDoc(containerID).Collection("fields").Doc(field)
}

// EnsureContainer creates the container document if it does not exist.
// An existing container is left untouched.
func (f *FirestoreStore) EnsureContainer(ctx context.Context, id, name string) error {
	if id == "" {
		return fmt.Errorf("container id cannot be empty")
	}
	_, err := f.containerDoc(id).Create(ctx, map[string]interface{}{
		"type": "channel",
		"name": name,
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("failed to ensure container %s: %w", id, err)
	}
	return nil
}

// EnsureLeaf creates the leaf metadata document if it does not exist.
func (f *FirestoreStore) EnsureLeaf(ctx context.Context, containerID string, leaf types.Leaf) error {
	_, err := f.leafDoc(containerID, leaf.Field).Create(ctx, map[string]interface{}{
		"name":  leaf.Name,
		"type":  string(leaf.Type),
		"role":  string(leaf.Role),
		"unit":  leaf.Unit,
		"read":  leaf.Read,
		"write": leaf.Write,
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("failed to ensure leaf %s.%s: %w", containerID, leaf.Field, err)
	}
	return nil
}

// WriteValue merges the current reading into the leaf document without
// touching its metadata fields. Stored as a JSON string for portability.
func (f *FirestoreStore) WriteValue(ctx context.Context, containerID, field string, value types.Value) error {
	jsonBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value %s.%s: %w", containerID, field, err)
	}
	_, err = f.leafDoc(containerID, field).Set(ctx, map[string]interface{}{
		"val": string(jsonBytes),
		"ack": true,
		"ts":  time.Now(),
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to write value %s.%s: %w", containerID, field, err)
	}
	return nil
}
