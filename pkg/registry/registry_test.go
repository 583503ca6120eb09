package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishAndGet(t *testing.T) {
	reg := New()

	instance := struct{ name string }{"db"}
	registration, err := reg.Publish("database", instance, map[string]string{"env": "prod"})
	require.NoError(t, err)
	require.NotNil(t, registration)
	require.NotEmpty(t, registration.ID())

	component, exists := reg.Get(registration.ID())
	require.True(t, exists)
	assert.Equal(t, "database", component.Type)
	assert.Equal(t, "prod", component.Properties["env"])
	assert.Equal(t, instance, component.Instance)
	assert.False(t, component.RegisteredAt.IsZero())
}

func TestPublishEmptyType(t *testing.T) {
	reg := New()
	_, err := reg.Publish("", nil, nil)
	assert.Error(t, err)
}

func TestPublishCopiesProperties(t *testing.T) {
	reg := New()
	props := map[string]string{"env": "prod"}
	registration, err := reg.Publish("database", nil, props)
	require.NoError(t, err)

	// Mutating the caller's map must not affect the registered record.
	props["env"] = "dev"
	component, _ := reg.Get(registration.ID())
	assert.Equal(t, "prod", component.Properties["env"])
}

func TestUnpublish(t *testing.T) {
	reg := New()
	registration, err := reg.Publish("cache", nil, nil)
	require.NoError(t, err)

	require.NoError(t, registration.Unpublish())

	_, exists := reg.Get(registration.ID())
	assert.False(t, exists)

	// Unpublishing twice is an error.
	assert.Error(t, reg.Unpublish(registration.ID()))
}

func TestListByType(t *testing.T) {
	reg := New()
	_, err := reg.Publish("database", nil, nil)
	require.NoError(t, err)
	_, err = reg.Publish("database", nil, nil)
	require.NoError(t, err)
	_, err = reg.Publish("cache", nil, nil)
	require.NoError(t, err)

	assert.Len(t, reg.ListByType("database"), 2)
	assert.Len(t, reg.ListByType("cache"), 1)
	assert.Empty(t, reg.ListByType("queue"))
	assert.Len(t, reg.List(), 3)
}

func TestSubscribeSeesExistingComponent(t *testing.T) {
	reg := New()
	_, err := reg.Publish("database", "the-db", nil)
	require.NoError(t, err)

	sub, err := reg.Subscribe("database", "")
	require.NoError(t, err)
	defer sub.Close()

	ctx := context.Background()
	component, err := sub.WaitForMatch(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "the-db", component.Instance)
}

func TestSubscribeSeesLateArrival(t *testing.T) {
	reg := New()

	sub, err := reg.Subscribe("database", "")
	require.NoError(t, err)
	defer sub.Close()

	go func() {
		time.Sleep(50 * time.Millisecond)
		_, _ = reg.Publish("database", "late-db", nil)
	}()

	start := time.Now()
	component, err := sub.WaitForMatch(context.Background(), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "late-db", component.Instance)
	// Must return as soon as the component arrives, well before the deadline.
	assert.Less(t, time.Since(start), time.Second)
}

func TestSubscribeFilterNarrowsMatches(t *testing.T) {
	reg := New()
	_, err := reg.Publish("database", "dev-db", map[string]string{"env": "dev"})
	require.NoError(t, err)
	_, err = reg.Publish("database", "prod-db", map[string]string{"env": "prod"})
	require.NoError(t, err)

	sub, err := reg.Subscribe("database", "(env=prod)")
	require.NoError(t, err)
	defer sub.Close()

	component, err := sub.WaitForMatch(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "prod-db", component.Instance)
}

func TestSubscribeFilterMatchingNothingTimesOut(t *testing.T) {
	reg := New()
	_, err := reg.Publish("database", nil, map[string]string{"env": "dev"})
	require.NoError(t, err)
	_, err = reg.Publish("database", nil, map[string]string{"env": "staging"})
	require.NoError(t, err)

	sub, err := reg.Subscribe("database", "(env=prod)")
	require.NoError(t, err)
	defer sub.Close()

	_, err = sub.WaitForMatch(context.Background(), 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrWaitTimeout)
}

func TestSubscribeInvalidFilter(t *testing.T) {
	reg := New()
	_, err := reg.Subscribe("database", "env=prod")
	assert.Error(t, err)
}

func TestSubscriptionFilterString(t *testing.T) {
	reg := New()

	sub, err := reg.Subscribe("database", "(env=prod)")
	require.NoError(t, err)
	defer sub.Close()
	assert.Equal(t, "(&(type=database)(env=prod))", sub.Filter())

	plain, err := reg.Subscribe("database", "")
	require.NoError(t, err)
	defer plain.Close()
	assert.Equal(t, "(type=database)", plain.Filter())
}

func TestWaitForMatchTimeout(t *testing.T) {
	reg := New()
	sub, err := reg.Subscribe("missing", "")
	require.NoError(t, err)
	defer sub.Close()

	start := time.Now()
	_, err = sub.WaitForMatch(context.Background(), 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrWaitTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestWaitForMatchCancellation(t *testing.T) {
	reg := New()
	sub, err := reg.Subscribe("missing", "")
	require.NoError(t, err)
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err = sub.WaitForMatch(ctx, 5*time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	reg := New()
	sub, err := reg.Subscribe("database", "")
	require.NoError(t, err)

	sub.Close()
	sub.Close()
	assert.True(t, sub.IsClosed())
	assert.Equal(t, 0, reg.GetMetrics().ActiveSubscriptions)
}

func TestSubscriptionCloseReleasesRegistration(t *testing.T) {
	reg := New()

	sub1, err := reg.Subscribe("database", "")
	require.NoError(t, err)
	sub2, err := reg.Subscribe("cache", "")
	require.NoError(t, err)
	assert.Equal(t, 2, reg.GetMetrics().ActiveSubscriptions)

	sub1.Close()
	sub2.Close()
	assert.Equal(t, 0, reg.GetMetrics().ActiveSubscriptions)
}

func TestPublishAfterSubscriptionClosed(t *testing.T) {
	reg := New()
	sub, err := reg.Subscribe("database", "")
	require.NoError(t, err)
	sub.Close()

	// Publishing after close must neither panic nor deliver.
	_, err = reg.Publish("database", nil, nil)
	require.NoError(t, err)

	_, err = sub.WaitForMatch(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrSubscriptionClosed)
}

func TestListeners(t *testing.T) {
	reg := New()

	var mu sync.Mutex
	var events []Event
	reg.AddListener(func(event Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event)
	})

	registration, err := reg.Publish("database", nil, nil)
	require.NoError(t, err)
	require.NoError(t, registration.Unpublish())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.Equal(t, ComponentAdded, events[0].Kind)
	assert.Equal(t, ComponentRemoved, events[1].Kind)
	assert.Equal(t, registration.ID(), events[1].Component.ID)
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	reg := New()

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, _ = reg.Publish("worker", nil, nil)
		}()
	}

	sub, err := reg.Subscribe("worker", "")
	require.NoError(t, err)
	defer sub.Close()

	// At least one match must be observable regardless of interleaving.
	_, err = sub.WaitForMatch(context.Background(), 2*time.Second)
	require.NoError(t, err)

	wg.Wait()
	assert.Len(t, reg.ListByType("worker"), n)
}

func TestRegistryClose(t *testing.T) {
	reg := New()
	sub, err := reg.Subscribe("database", "")
	require.NoError(t, err)

	reg.Close()
	assert.True(t, sub.IsClosed())

	_, err = reg.Publish("database", nil, nil)
	assert.Error(t, err)
	_, err = reg.Subscribe("database", "")
	assert.Error(t, err)
}
