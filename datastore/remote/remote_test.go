package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/terrastore/datastore"
	"github.com/hupe1980/terrastore/internal/resource"
)

var errTimeout = errors.New("i/o timeout")

func TestNew_RequiresProvider(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, datastore.ErrConnection)
}

func TestStore_ReadProbesBeforeFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing", func(t *testing.T) {
		p := new(MockProvider)
		s, err := New(p, WithFolder("plans"))
		require.NoError(t, err)

		p.On("Stat", mock.Anything, "plans/arizona/territory-data.json").
			Return(datastore.ObjectInfo{}, ErrObjectNotFound).Once()

		raw, err := s.Read(ctx, "arizona/territory-data.json")
		require.NoError(t, err)
		assert.Nil(t, raw)
		p.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
		p.AssertExpectations(t)
	})

	t.Run("Present", func(t *testing.T) {
		p := new(MockProvider)
		s, err := New(p, WithFolder("plans"))
		require.NoError(t, err)

		p.On("Stat", mock.Anything, "plans/a.json").Return(datastore.ObjectInfo{Size: 2}, nil).Once()
		p.On("Get", mock.Anything, "plans/a.json").Return([]byte(`{}`), nil).Once()

		raw, err := s.Read(ctx, "a.json")
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(raw))
		p.AssertExpectations(t)
	})

	t.Run("VanishedAfterProbe", func(t *testing.T) {
		p := new(MockProvider)
		s, err := New(p)
		require.NoError(t, err)

		p.On("Stat", mock.Anything, "a.json").Return(datastore.ObjectInfo{}, nil).Once()
		p.On("Get", mock.Anything, "a.json").Return(nil, ErrObjectNotFound).Once()

		raw, err := s.Read(ctx, "a.json")
		require.NoError(t, err)
		assert.Nil(t, raw)
	})
}

func TestStore_ReadClassifiesErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("ProbeFailure", func(t *testing.T) {
		p := new(MockProvider)
		s, err := New(p, WithBreaker(nil))
		require.NoError(t, err)
		p.On("Stat", mock.Anything, "a.json").Return(datastore.ObjectInfo{}, errTimeout).Once()

		_, err = s.Read(ctx, "a.json")
		assert.ErrorIs(t, err, datastore.ErrNetwork)
		assert.ErrorIs(t, err, errTimeout)
	})

	t.Run("FetchFailure", func(t *testing.T) {
		p := new(MockProvider)
		s, err := New(p, WithBreaker(nil))
		require.NoError(t, err)
		p.On("Stat", mock.Anything, "a.json").Return(datastore.ObjectInfo{}, nil).Once()
		p.On("Get", mock.Anything, "a.json").Return(nil, errTimeout).Once()

		_, err = s.Read(ctx, "a.json")
		assert.Equal(t, datastore.CodeNetwork, datastore.CodeOf(err))
	})

	t.Run("Malformed", func(t *testing.T) {
		mp := NewMemoryProvider()
		mp.PutRaw("broken.json", []byte(`{"zip":`))
		s, err := New(mp)
		require.NoError(t, err)

		_, err = s.Read(ctx, "broken.json")
		assert.ErrorIs(t, err, datastore.ErrParse)

		var se *datastore.StorageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "broken.json", se.Key)
	})
}

func TestStore_ExistsAndGetMetadataTranslateNotFound(t *testing.T) {
	ctx := context.Background()
	p := new(MockProvider)
	s, err := New(p)
	require.NoError(t, err)

	p.On("Stat", mock.Anything, "gone.json").Return(datastore.ObjectInfo{}, ErrObjectNotFound)
	p.On("Stat", mock.Anything, "flaky.json").Return(datastore.ObjectInfo{}, errTimeout)

	ok, err := s.Exists(ctx, "gone.json")
	require.NoError(t, err)
	assert.False(t, ok)

	info, err := s.GetMetadata(ctx, "gone.json")
	require.NoError(t, err)
	assert.Nil(t, info)

	_, err = s.Exists(ctx, "flaky.json")
	assert.ErrorIs(t, err, datastore.ErrNetwork)

	_, err = s.GetMetadata(ctx, "flaky.json")
	assert.ErrorIs(t, err, datastore.ErrNetwork)
}

func TestStore_WriteMetadataOnlyWhenNonEmpty(t *testing.T) {
	ctx := context.Background()
	p := new(MockProvider)
	s, err := New(p, WithFolder("f"))
	require.NoError(t, err)

	p.On("Put", mock.Anything, "f/plain.json", []byte(`{"a":1}`), datastore.ContentTypeJSON, map[string]string(nil)).
		Return(nil).Twice()
	p.On("Put", mock.Anything, "f/tagged.json", []byte(`{"a":1}`), datastore.ContentTypeJSON,
		map[string]string{"location": "arizona"}).Return(nil).Once()

	res := s.Write(ctx, "plain.json", map[string]int{"a": 1})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, int64(7), res.Size)

	res = s.Write(ctx, "plain.json", map[string]int{"a": 1}, datastore.WithMetadata(datastore.Metadata{}))
	require.True(t, res.Success, res.Error)

	res = s.Write(ctx, "tagged.json", map[string]int{"a": 1},
		datastore.WithMetadata(datastore.Metadata{"location": "arizona"}))
	require.True(t, res.Success, res.Error)
	p.AssertExpectations(t)
}

func TestStore_WriteAndDeleteNeverRaise(t *testing.T) {
	ctx := context.Background()
	p := new(MockProvider)
	s, err := New(p, WithBreaker(nil))
	require.NoError(t, err)

	p.On("Put", mock.Anything, "a.json", mock.Anything, mock.Anything, mock.Anything).Return(errTimeout).Once()
	p.On("Delete", mock.Anything, "a.json").Return(errTimeout).Once()
	p.On("Delete", mock.Anything, "b.json").Return(nil).Once()

	res := s.Write(ctx, "a.json", 1)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, string(datastore.CodeNetwork))

	del := s.Delete(ctx, "a.json")
	assert.False(t, del.Success)
	assert.Contains(t, del.Error, "i/o timeout")

	// Deleting a missing object succeeds on blob services.
	assert.True(t, s.Delete(ctx, "b.json").Success)
}

func TestStore_ListStripsFolder(t *testing.T) {
	ctx := context.Background()
	p := new(MockProvider)
	s, err := New(p, WithFolder("prod/"))
	require.NoError(t, err)

	now := time.Now().UTC()
	p.On("List", mock.Anything, "prod/arizona/", datastore.DefaultListLimit).Return([]datastore.ObjectInfo{
		{Key: "prod/arizona/territory-data.json", Size: 10, LastModified: now},
		{Key: "prod/arizona/customer-data.json", Size: 20, ContentType: "text/plain"},
		{Key: "elsewhere/arizona/x.json"},
	}, nil).Once()

	list, err := s.List(ctx, "arizona/", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "arizona/customer-data.json", list[0].Key)
	assert.Equal(t, "text/plain", list[0].ContentType)
	assert.Equal(t, "arizona/territory-data.json", list[1].Key)
	assert.Equal(t, datastore.ContentTypeJSON, list[1].ContentType)
	assert.Equal(t, now, list[1].LastModified)
	assert.NotNil(t, list[1].Metadata)
}

func TestStore_ListFailure(t *testing.T) {
	p := new(MockProvider)
	s, err := New(p)
	require.NoError(t, err)
	p.On("List", mock.Anything, "", 5).Return(nil, errTimeout).Once()

	_, err = s.List(context.Background(), "", 5)
	assert.ErrorIs(t, err, datastore.ErrNetwork)
}

func TestStore_BreakerOpensOnFailures(t *testing.T) {
	ctx := context.Background()
	p := new(MockProvider)
	s, err := New(p, WithBreaker(&gobreaker.Settings{
		Name:    "test",
		Timeout: time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 2
		},
	}))
	require.NoError(t, err)

	p.On("Stat", mock.Anything, "missing.json").Return(datastore.ObjectInfo{}, ErrObjectNotFound)
	p.On("Stat", mock.Anything, "a.json").Return(datastore.ObjectInfo{}, errTimeout).Twice()

	// Not-found answers are healthy responses.
	for range 3 {
		ok, err := s.Exists(ctx, "missing.json")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, "closed", s.BreakerState())

	for range 2 {
		_, err := s.Exists(ctx, "a.json")
		require.Error(t, err)
	}
	assert.Equal(t, "open", s.BreakerState())

	// Open: the provider is not called.
	_, err = s.Exists(ctx, "a.json")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.ErrorIs(t, err, datastore.ErrNetwork)
	p.AssertNumberOfCalls(t, "Stat", 5)
}

func TestStore_Limits(t *testing.T) {
	p := NewMemoryProvider()
	s, err := New(p, WithLimits(resource.Config{RequestsPerSecond: 0.001, Burst: 1}))
	require.NoError(t, err)

	require.True(t, s.Write(context.Background(), "a.json", 1).Success)

	// The single token is spent; the next call cannot be admitted in time.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = s.Exists(ctx, "a.json")
	assert.ErrorIs(t, err, datastore.ErrNetwork)
	assert.Contains(t, err.Error(), "0 in flight")
}

func TestStore_ConcurrencyLimit(t *testing.T) {
	p := &MockProvider{}
	entered := make(chan struct{})
	release := make(chan struct{})
	p.On("Stat", mock.Anything, "slow.json").Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(datastore.ObjectInfo{}, ErrObjectNotFound).Once()

	s, err := New(p, WithLimits(resource.Config{MaxConcurrent: 1}))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Exists(context.Background(), "slow.json")
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = s.Exists(ctx, "other.json")
	assert.ErrorIs(t, err, datastore.ErrNetwork)
	assert.Contains(t, err.Error(), "1 in flight")

	close(release)
	<-done
	p.AssertExpectations(t)
}

func TestStore_Close(t *testing.T) {
	s, err := New(NewMemoryProvider())
	require.NoError(t, err)
	assert.NoError(t, s.Close())
	assert.Equal(t, "memory", s.Provider().Name())
	assert.Empty(t, s.Folder())
}
