package tier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type recordingObserver struct {
	mu     sync.Mutex
	failed []string
	served []string
}

func (o *recordingObserver) TierFailed(operation, tier string, err error, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed = append(o.failed, operation+"/"+tier)
}

func (o *recordingObserver) TierServed(operation, tier string, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.served = append(o.served, operation+"/"+tier)
}

func failing(name string) Tier[string, string] {
	return New(name, func(ctx context.Context, in string) (string, error) {
		return "", errors.New(name + " is down")
	})
}

func succeeding(name string) Tier[string, string] {
	return New(name, func(ctx context.Context, in string) (string, error) {
		return name + ":" + in, nil
	})
}

func TestExecute_FallsThroughToFirstSuccess(t *testing.T) {
	tests := []struct {
		name      string
		tiers     []Tier[string, string]
		wantOut   string
		wantTier  string
		wantIndex int
		wantFails int
	}{
		{
			name:      "first tier serves",
			tiers:     []Tier[string, string]{succeeding("remote"), succeeding("local")},
			wantOut:   "remote:x",
			wantTier:  "remote",
			wantIndex: 0,
		},
		{
			name:      "second tier serves after one failure",
			tiers:     []Tier[string, string]{failing("remote"), succeeding("store"), succeeding("local")},
			wantOut:   "store:x",
			wantTier:  "store",
			wantIndex: 1,
			wantFails: 1,
		},
		{
			name:      "last tier serves after two failures",
			tiers:     []Tier[string, string]{failing("remote"), failing("store"), succeeding("local")},
			wantOut:   "local:x",
			wantTier:  "local",
			wantIndex: 2,
			wantFails: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &recordingObserver{}
			exec := NewExecutor("save", tt.tiers, WithObserver(obs))

			out, outcome, err := exec.Execute(context.Background(), "x")

			require.NoError(t, err)
			assert.Equal(t, tt.wantOut, out)
			assert.Equal(t, tt.wantTier, outcome.Tier)
			assert.Equal(t, tt.wantIndex, outcome.Index)
			assert.True(t, outcome.Served())
			assert.Len(t, outcome.Failures, tt.wantFails)
			assert.Equal(t, []string{"save/" + tt.wantTier}, obs.served)
			assert.Len(t, obs.failed, tt.wantFails)
		})
	}
}

func TestExecute_AllTiersFail(t *testing.T) {
	exec := NewExecutor("fetch_all", []Tier[string, string]{failing("remote"), failing("store")})

	out, outcome, err := exec.Execute(context.Background(), "x")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, ErrTierUnavailable)
	assert.Empty(t, out)
	assert.False(t, outcome.Served())
	assert.Equal(t, -1, outcome.Index)
	require.Len(t, outcome.Failures, 2)
	assert.Equal(t, "remote", outcome.Failures[0].Tier)
	assert.Equal(t, "store", outcome.Failures[1].Tier)
}

func TestExecute_MalformedResponseIsTierFailure(t *testing.T) {
	empty := New("remote", func(ctx context.Context, in string) (string, error) {
		return "", ErrMalformedResponse
	})
	exec := NewExecutor("analyze", []Tier[string, string]{empty, succeeding("synthetic")})

	out, outcome, err := exec.Execute(context.Background(), "x")

	require.NoError(t, err)
	assert.Equal(t, "synthetic:x", out)
	require.Len(t, outcome.Failures, 1)
	assert.ErrorIs(t, outcome.Failures[0].Err, ErrMalformedResponse)
	assert.ErrorIs(t, outcome.Failures[0].Err, ErrTierUnavailable)
}

func TestExecute_HungTierTimesOut(t *testing.T) {
	defer goleak.VerifyNone(t)

	hung := New("remote", func(ctx context.Context, in string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	exec := NewExecutor("analyze", []Tier[string, string]{hung, succeeding("synthetic")},
		WithTimeout(20*time.Millisecond))

	start := time.Now()
	out, outcome, err := exec.Execute(context.Background(), "x")

	require.NoError(t, err)
	assert.Equal(t, "synthetic:x", out)
	assert.Equal(t, "synthetic", outcome.Tier)
	assert.Less(t, time.Since(start), time.Second)
	require.Len(t, outcome.Failures, 1)
	assert.ErrorIs(t, outcome.Failures[0].Err, context.DeadlineExceeded)
}

func TestExecute_TierIgnoringContextIsAbandoned(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	stubborn := New("remote", func(ctx context.Context, in string) (string, error) {
		<-release
		return "late", nil
	})
	exec := NewExecutor("fetch_all", []Tier[string, string]{stubborn, succeeding("local")},
		WithTimeout(20*time.Millisecond))

	out, outcome, err := exec.Execute(context.Background(), "x")

	require.NoError(t, err)
	assert.Equal(t, "local:x", out)
	assert.Equal(t, 1, outcome.Index)
}

func TestExecute_PanickingTierFallsThrough(t *testing.T) {
	boom := New("remote", func(ctx context.Context, in string) (string, error) {
		panic("nil map")
	})
	exec := NewExecutor("save", []Tier[string, string]{boom, succeeding("local")})

	out, _, err := exec.Execute(context.Background(), "x")

	require.NoError(t, err)
	assert.Equal(t, "local:x", out)
}

func TestExecute_RestartsFromTopEveryCall(t *testing.T) {
	var mu sync.Mutex
	down := true
	flaky := New("remote", func(ctx context.Context, in string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if down {
			return "", errors.New("outage")
		}
		return "remote", nil
	})
	exec := NewExecutor("fetch_all", []Tier[string, string]{flaky, succeeding("local")})

	_, first, err := exec.Execute(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "local", first.Tier)

	mu.Lock()
	down = false
	mu.Unlock()

	out, second, err := exec.Execute(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "remote", second.Tier)
	assert.Equal(t, "remote", out)
}

func TestExecutor_Tiers(t *testing.T) {
	exec := NewExecutor("save", []Tier[string, string]{failing("function"), failing("store"), succeeding("local")})

	assert.Equal(t, "save", exec.Operation())
	assert.Equal(t, []string{"function", "store", "local"}, exec.Tiers())
}
