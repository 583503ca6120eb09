package harness

import (
	"context"
	"testing"
	"time"

	"rigctl/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateExistingComponent(t *testing.T) {
	reg := registry.New()
	_, err := reg.Publish("database", "the-db", nil)
	require.NoError(t, err)

	locator := NewLocator(reg)
	component, err := locator.LocateType(context.Background(), "database")
	require.NoError(t, err)
	assert.Equal(t, "the-db", component.Instance)
}

func TestLocateReturnsEarlyOnConcurrentPublish(t *testing.T) {
	reg := registry.New()
	locator := NewLocator(reg)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_, _ = reg.Publish("database", "late-db", nil)
	}()

	start := time.Now()
	component, err := locator.Locate(context.Background(), Query{Type: "database"}, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "late-db", component.Instance)
	assert.Less(t, time.Since(start), time.Second, "must return well before the deadline")
}

func TestLocateTimeoutBounds(t *testing.T) {
	reg := registry.New()
	locator := NewLocator(reg)

	timeout := 150 * time.Millisecond
	start := time.Now()
	_, err := locator.Locate(context.Background(), Query{Type: "missing"}, timeout)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.GreaterOrEqual(t, elapsed, timeout, "must not give up before the deadline")
	assert.Less(t, elapsed, timeout+time.Second, "must not overshoot the deadline by more than scheduling slack")

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.Type)
	assert.ErrorIs(t, err, registry.ErrWaitTimeout)
}

func TestLocateWithPredicateMatchingNothing(t *testing.T) {
	reg := registry.New()
	_, err := reg.Publish("database", nil, map[string]string{"env": "dev"})
	require.NoError(t, err)
	_, err = reg.Publish("database", nil, map[string]string{"env": "staging"})
	require.NoError(t, err)

	locator := NewLocator(reg)
	_, err = locator.Locate(context.Background(), Query{Type: "database", Filter: "(env=prod)"}, 100*time.Millisecond)

	// Behaves exactly as if no component of the type existed.
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "(env=prod)", notFound.Filter)
	assert.ErrorIs(t, err, registry.ErrWaitTimeout)
}

func TestLocateWithPredicateSelectsMatch(t *testing.T) {
	reg := registry.New()
	_, err := reg.Publish("database", "dev-db", map[string]string{"env": "dev"})
	require.NoError(t, err)
	_, err = reg.Publish("database", "prod-db", map[string]string{"env": "prod"})
	require.NoError(t, err)

	locator := NewLocator(reg)
	component, err := locator.Locate(context.Background(), Query{Type: "database", Filter: "(env=prod)"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "prod-db", component.Instance)
}

func TestLocateCancellation(t *testing.T) {
	reg := registry.New()
	locator := NewLocator(reg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := locator.Locate(ctx, Query{Type: "missing"}, 5*time.Second)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second, "cancellation must unblock the wait promptly")

	// Cancellation surfaces as the same failure kind as a timeout, with
	// the interruption recorded as the cause.
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocateReleasesSubscriptionOnAllPaths(t *testing.T) {
	reg := registry.New()
	_, err := reg.Publish("database", nil, nil)
	require.NoError(t, err)
	locator := NewLocator(reg)

	// Success path.
	_, err = locator.LocateType(context.Background(), "database")
	require.NoError(t, err)
	assert.Equal(t, 0, reg.GetMetrics().ActiveSubscriptions)

	// Timeout path.
	_, err = locator.Locate(context.Background(), Query{Type: "missing"}, 50*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, 0, reg.GetMetrics().ActiveSubscriptions)

	// Cancellation path.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locator.Locate(ctx, Query{Type: "missing"}, time.Second)
	require.Error(t, err)
	assert.Equal(t, 0, reg.GetMetrics().ActiveSubscriptions)

	// Invalid filter path.
	_, err = locator.Locate(context.Background(), Query{Type: "database", Filter: "env=prod"}, time.Second)
	require.Error(t, err)
	assert.Equal(t, 0, reg.GetMetrics().ActiveSubscriptions)
}

func TestLocateEmptyType(t *testing.T) {
	locator := NewLocator(registry.New())
	_, err := locator.Locate(context.Background(), Query{}, time.Second)
	assert.Error(t, err)
}

func TestLocateZeroTimeoutUsesDefault(t *testing.T) {
	reg := registry.New()
	_, err := reg.Publish("database", nil, nil)
	require.NoError(t, err)

	locator := NewLocator(reg)
	component, err := locator.Locate(context.Background(), Query{Type: "database"}, 0)
	require.NoError(t, err)
	assert.NotNil(t, component)
}

func TestTryLocate(t *testing.T) {
	reg := registry.New()
	locator := NewLocator(reg)

	// Optional dependency absent: empty result, no failure.
	component, found := locator.TryLocate(context.Background(), Query{Type: "optional"})
	assert.False(t, found)
	assert.Nil(t, component)

	_, err := reg.Publish("optional", "here", nil)
	require.NoError(t, err)

	component, found = locator.TryLocate(context.Background(), Query{Type: "optional"})
	assert.True(t, found)
	assert.Equal(t, "here", component.Instance)
}
