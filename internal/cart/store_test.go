package cart

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/domain"
	"storefront-service/internal/store"
)

// MockRecordStorer is a mock implementation of store.RecordStorer
type MockRecordStorer struct {
	mock.Mock
}

func (m *MockRecordStorer) GetRecord(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockRecordStorer) PutRecord(ctx context.Context, key string, value []byte) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockRecordStorer) DeleteRecord(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockRecordStorer) Ping(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockRecordStorer) Close() error { return nil }

var discard = log.New(io.Discard, "", 0)

func newFileBackedStore(t *testing.T, dir string) *Store {
	records, err := store.NewFileStore(dir)
	require.NoError(t, err)
	return NewStore(records, DefaultKey, discard)
}

func product(id string, price int64) domain.Product {
	return domain.Product{ID: id, Name: "Product " + id, Price: decimal.NewFromInt(price)}
}

func ids(items []domain.Product) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.ID
	}
	return out
}

func TestStore_AddAllowsDuplicates(t *testing.T) {
	s := newFileBackedStore(t, t.TempDir())
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, product("p1", 10)))
	require.NoError(t, s.Add(ctx, product("p1", 10)))
	require.NoError(t, s.Add(ctx, product("p2", 5)))

	assert.Equal(t, []string{"p1", "p1", "p2"}, ids(s.Items()))
	assert.Equal(t, 3, s.Len())
}

func TestStore_RemoveFirstMatchOnly(t *testing.T) {
	s := newFileBackedStore(t, t.TempDir())
	ctx := context.Background()
	for _, id := range []string{"p1", "p2", "p1", "p3"} {
		require.NoError(t, s.Add(ctx, product(id, 1)))
	}

	removed, err := s.Remove(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []string{"p2", "p1", "p3"}, ids(s.Items()))

	removed, err = s.Remove(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, []string{"p2", "p1", "p3"}, ids(s.Items()))
}

func TestStore_AddThenRemoveRestoresCart(t *testing.T) {
	s := newFileBackedStore(t, t.TempDir())
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, product("p1", 1)))
	require.NoError(t, s.Add(ctx, product("p2", 2)))
	before := s.Items()

	require.NoError(t, s.Add(ctx, product("p9", 9)))
	removed, err := s.Remove(ctx, "p9")
	require.NoError(t, err)
	require.True(t, removed)

	assert.Equal(t, before, s.Items())
}

func TestStore_HydrateAcrossSessions(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := newFileBackedStore(t, dir)
	require.NoError(t, first.Add(ctx, product("p1", 10)))
	require.NoError(t, first.Add(ctx, product("p2", 20)))

	second := newFileBackedStore(t, dir)
	require.NoError(t, second.Hydrate(ctx))
	items := second.Items()
	require.Equal(t, []string{"p1", "p2"}, ids(items))
	assert.True(t, items[1].Price.Equal(decimal.NewFromInt(20)))
}

func TestStore_HydrateAbsentOrMalformed(t *testing.T) {
	ctx := context.Background()

	absent := new(MockRecordStorer)
	absent.On("GetRecord", mock.Anything, DefaultKey).Return(nil, store.ErrRecordNotFound).Once()
	s := NewStore(absent, DefaultKey, discard)
	require.NoError(t, s.Hydrate(ctx))
	assert.Empty(t, s.Items())
	absent.AssertExpectations(t)

	for _, raw := range []string{`not json`, `{"_id":"p1"}`, `null`} {
		malformed := new(MockRecordStorer)
		malformed.On("GetRecord", mock.Anything, DefaultKey).Return([]byte(raw), nil).Once()
		s := NewStore(malformed, DefaultKey, discard)
		require.NoError(t, s.Hydrate(ctx), "record %q", raw)
		assert.NotNil(t, s.Items())
		assert.Empty(t, s.Items(), "record %q", raw)
	}
}

func TestStore_HydrateBackendFailure(t *testing.T) {
	records := new(MockRecordStorer)
	records.On("GetRecord", mock.Anything, DefaultKey).Return(nil, errors.New("connection refused")).Once()
	s := NewStore(records, DefaultKey, discard)

	err := s.Hydrate(context.Background())
	require.Error(t, err)
	assert.Empty(t, s.Items())
}

func TestStore_PersistFailureRollsBack(t *testing.T) {
	records := new(MockRecordStorer)
	records.On("PutRecord", mock.Anything, DefaultKey, mock.Anything).Return(nil).Once()
	records.On("PutRecord", mock.Anything, DefaultKey, mock.Anything).Return(errors.New("disk full")).Once()
	s := NewStore(records, DefaultKey, discard)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, product("p1", 1)))
	require.Error(t, s.Add(ctx, product("p2", 2)))

	assert.Equal(t, []string{"p1"}, ids(s.Items()))
	records.AssertExpectations(t)
}

func TestStore_PersistsEveryMutation(t *testing.T) {
	records := new(MockRecordStorer)
	records.On("PutRecord", mock.Anything, DefaultKey, []byte(`[{"_id":"p1","name":"Product p1","description":"","category":"","price":10}]`)).Return(nil).Once()
	records.On("PutRecord", mock.Anything, DefaultKey, []byte(`[]`)).Return(nil).Twice()
	s := NewStore(records, DefaultKey, discard)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, product("p1", 10)))
	removed, err := s.Remove(ctx, "p1")
	require.NoError(t, err)
	require.True(t, removed)
	require.NoError(t, s.Clear(ctx))

	records.AssertExpectations(t)
}

func TestStore_Subscribe(t *testing.T) {
	s := newFileBackedStore(t, t.TempDir())
	ctx := context.Background()

	var seen []int
	unsubscribe := s.Subscribe(func(items []domain.Product) { seen = append(seen, len(items)) })

	require.NoError(t, s.Add(ctx, product("p1", 1)))
	require.NoError(t, s.Add(ctx, product("p2", 1)))
	_, err := s.Remove(ctx, "p1")
	require.NoError(t, err)
	_, err = s.Remove(ctx, "nope") // No change, no notification
	require.NoError(t, err)

	unsubscribe()
	require.NoError(t, s.Clear(ctx))

	assert.Equal(t, []int{1, 2, 1}, seen)
}
