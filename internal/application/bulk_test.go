package application

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/dubco-cli/internal/domain"
	"github.com/bnema/dubco-cli/internal/logging"
	"github.com/bnema/dubco-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func bulkItems(n int) []BulkItem {
	items := make([]BulkItem, 0, n)
	for i := 0; i < n; i++ {
		id := "item-" + strconv.Itoa(i)
		items = append(items, BulkItem{
			Identifier: id,
			Request:    domain.APIRequest{Method: http.MethodDelete, Path: "/links/" + id},
		})
	}
	return items
}

func TestOrchestratorIsolatesItemFailures(t *testing.T) {
	exec := mocks.NewMockRequestExecutor(t)
	exec.EXPECT().Do(mockAnyContext(), mock.Anything).RunAndReturn(func(_ context.Context, req domain.APIRequest) (domain.RequestOutcome, error) {
		switch req.Path {
		case "/links/item-1":
			return domain.RequestOutcome{Status: domain.OutcomeServerError, HTTPStatus: http.StatusBadGateway, Attempts: 3}, nil
		case "/links/item-3":
			return domain.RequestOutcome{Status: domain.OutcomeNetworkError, ErrorMessage: "connection refused", Attempts: 3}, nil
		default:
			return successOutcome(`{}`), nil
		}
	}).Times(5)

	summary, err := NewOrchestrator(exec).Run(context.Background(), bulkItems(5), BulkOptions{})
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Total())
	require.Len(t, summary.Succeeded, 3)
	require.Len(t, summary.Failed, 2)
	assert.Equal(t, "item-1", summary.Failed[0].Identifier)
	assert.Equal(t, 1, summary.Failed[0].Index)
	assert.Equal(t, "item-3", summary.Failed[1].Identifier)
	assert.Equal(t, domain.BatchPartial, summary.Status())
}

func TestOrchestratorBatchStatus(t *testing.T) {
	tests := []struct {
		name    string
		outcome domain.RequestOutcome
		want    domain.BatchStatus
	}{
		{name: "all succeed", outcome: successOutcome(`{}`), want: domain.BatchSucceeded},
		{name: "all fail", outcome: domain.RequestOutcome{Status: domain.OutcomeClientError, HTTPStatus: http.StatusBadRequest}, want: domain.BatchFailed},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			exec := mocks.NewMockRequestExecutor(t)
			exec.EXPECT().Do(mockAnyContext(), mock.Anything).Return(tt.outcome, nil).Times(3)

			summary, err := NewOrchestrator(exec).Run(context.Background(), bulkItems(3), BulkOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, summary.Status())
		})
	}
}

func TestOrchestratorEmptyBatchSucceeds(t *testing.T) {
	exec := mocks.NewMockRequestExecutor(t)

	summary, err := NewOrchestrator(exec).Run(context.Background(), nil, BulkOptions{})
	require.NoError(t, err)
	assert.Zero(t, summary.Total())
	assert.Equal(t, domain.BatchSucceeded, summary.Status())
}

func TestOrchestratorKeepsInputOrderWithConcurrency(t *testing.T) {
	exec := mocks.NewMockRequestExecutor(t)

	var inFlight, peak atomic.Int32
	exec.EXPECT().Do(mockAnyContext(), mock.Anything).RunAndReturn(func(_ context.Context, req domain.APIRequest) (domain.RequestOutcome, error) {
		current := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			seen := peak.Load()
			if current <= seen || peak.CompareAndSwap(seen, current) {
				break
			}
		}

		// Earlier items finish last.
		index, _ := strconv.Atoi(req.Path[len("/links/item-"):])
		time.Sleep(time.Duration(8-index) * 5 * time.Millisecond)
		return successOutcome(`{}`), nil
	}).Times(8)

	summary, err := NewOrchestrator(exec, WithConcurrency(3)).Run(context.Background(), bulkItems(8), BulkOptions{})
	require.NoError(t, err)

	require.Len(t, summary.Succeeded, 8)
	for i, result := range summary.Succeeded {
		assert.Equal(t, i, result.Index)
	}
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestOrchestratorNotFoundPolicy(t *testing.T) {
	exec := mocks.NewMockRequestExecutor(t)
	exec.EXPECT().Do(mockAnyContext(), mock.Anything).Return(notFoundOutcome(), nil).Times(2)

	orchestrator := NewOrchestrator(exec)

	strict, err := orchestrator.Run(context.Background(), bulkItems(1), BulkOptions{})
	require.NoError(t, err)
	assert.Len(t, strict.Failed, 1)

	lenient, err := orchestrator.Run(context.Background(), bulkItems(1), BulkOptions{NotFoundIsSuccess: true})
	require.NoError(t, err)
	assert.Len(t, lenient.Succeeded, 1)
	assert.Equal(t, domain.BatchSucceeded, lenient.Status())
}

func TestOrchestratorStopsOnStructuralError(t *testing.T) {
	exec := mocks.NewMockRequestExecutor(t)

	var calls atomic.Int32
	exec.EXPECT().Do(mockAnyContext(), mock.Anything).RunAndReturn(func(_ context.Context, req domain.APIRequest) (domain.RequestOutcome, error) {
		calls.Add(1)
		if req.Path == "/links/item-1" {
			return domain.RequestOutcome{}, domain.ErrNotAuthenticated
		}
		return successOutcome(`{}`), nil
	})

	summary, err := NewOrchestrator(exec).Run(context.Background(), bulkItems(4), BulkOptions{})
	require.ErrorIs(t, err, domain.ErrNotAuthenticated)
	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, summary.Succeeded, 1)
	assert.Equal(t, "item-0", summary.Succeeded[0].Identifier)
	assert.Empty(t, summary.Failed)
}

func TestOrchestratorHonorsCancellation(t *testing.T) {
	exec := mocks.NewMockRequestExecutor(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOrchestrator(exec).Run(ctx, bulkItems(3), BulkOptions{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestOrchestratorReportsProgress(t *testing.T) {
	exec := mocks.NewMockRequestExecutor(t)
	exec.EXPECT().Do(mockAnyContext(), mock.Anything).Return(successOutcome(`{}`), nil).Times(3)

	var (
		mu    sync.Mutex
		dones []int
	)
	orchestrator := NewOrchestrator(exec).With(WithProgress(func(done, total int, result domain.BulkItemResult) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 3, total)
		assert.True(t, result.Outcome.OK())
		dones = append(dones, done)
	}))

	_, err := orchestrator.Run(context.Background(), bulkItems(3), BulkOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, dones)
}

func TestOrchestratorRateLimitPacesStarts(t *testing.T) {
	exec := mocks.NewMockRequestExecutor(t)
	exec.EXPECT().Do(mockAnyContext(), mock.Anything).Return(successOutcome(`{}`), nil).Times(3)

	started := time.Now()
	_, err := NewOrchestrator(exec, WithRateLimit(20)).Run(context.Background(), bulkItems(3), BulkOptions{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(started), 90*time.Millisecond)
}

func TestOrchestratorTagsEachItemWithItsOwnRequestID(t *testing.T) {
	var (
		mu  sync.Mutex
		ids = map[string]string{}
	)

	exec := mocks.NewMockRequestExecutor(t)
	exec.EXPECT().Do(mockAnyContext(), mock.Anything).RunAndReturn(func(ctx context.Context, req domain.APIRequest) (domain.RequestOutcome, error) {
		mu.Lock()
		ids[req.Path] = logging.GetRequestID(ctx)
		mu.Unlock()
		return successOutcome(`{}`), nil
	}).Times(3)

	_, err := NewOrchestrator(exec, WithConcurrency(3)).Run(context.Background(), bulkItems(3), BulkOptions{})
	require.NoError(t, err)

	require.Len(t, ids, 3)
	seen := map[string]bool{}
	for path, id := range ids {
		assert.NotEmpty(t, id, path)
		seen[id] = true
	}
	assert.Len(t, seen, 3)
}
