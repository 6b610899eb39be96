package statetreemock

import (
	"context"

	"github.com/sofarbridge/sofarbridge/pkg/statetree"
	"github.com/sofarbridge/sofarbridge/pkg/types"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

var _ statetree.Store = (*MockStore)(nil)

func (m *MockStore) EnsureContainer(ctx context.Context, id, name string) error {
	args := m.Called(ctx, id, name)
	return args.Error(0)
}

func (m *MockStore) EnsureLeaf(ctx context.Context, containerID string, leaf types.Leaf) error {
	args := m.Called(ctx, containerID, leaf)
	return args.Error(0)
}

func (m *MockStore) WriteValue(ctx context.Context, containerID, field string, value types.Value) error {
	args := m.Called(ctx, containerID, field, value)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
