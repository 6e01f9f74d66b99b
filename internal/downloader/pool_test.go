package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"igarchiver/pkg/logger"
	"igarchiver/pkg/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	delay   func(url string) time.Duration
	failURL string
	calls   int32
}

func (m *mockClient) Download(ctx context.Context, url string) ([]byte, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.delay != nil {
		time.Sleep(m.delay(url))
	}
	if url == m.failURL {
		return nil, errors.New("connection reset")
	}
	return []byte("data:" + url), nil
}

type mockStorage struct {
	mu       sync.Mutex
	saved    map[string]string
	existing map[string]bool
	saveErr  error
}

func newMockStorage() *mockStorage {
	return &mockStorage{saved: make(map[string]string), existing: make(map[string]bool)}
}

func (m *mockStorage) Exists(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.existing[name]
}

func (m *mockStorage) SaveAsset(name string, r io.Reader) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[name] = string(data)
	return nil
}

func jobs(n int) []Job {
	out := make([]Job, n)
	for i := range out {
		out[i] = Job{
			URL:      fmt.Sprintf("https://cdn/%d.jpg", i),
			Filename: fmt.Sprintf("base_%d.jpg", i),
			Username: "someone",
			PostID:   "1",
		}
	}
	return out
}

func TestWorkerPoolRun(t *testing.T) {
	client := &mockClient{}
	storage := newMockStorage()
	pool := NewWorkerPool(3, client, storage, nil, logger.NewNopLogger())

	results := pool.Run(context.Background(), jobs(10))

	require.Len(t, results, 10)
	for i, r := range results {
		assert.Equal(t, i, r.Job.Seq)
		assert.True(t, r.Success)
		assert.NoError(t, r.Error)
	}
	assert.Equal(t, int32(10), atomic.LoadInt32(&client.calls))
	assert.Len(t, storage.saved, 10)
}

func TestWorkerPoolIndexSurvivesCompletionOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	delays := make(map[string]time.Duration)
	for _, j := range jobs(8) {
		delays[j.URL] = time.Duration(rng.Intn(20)) * time.Millisecond
	}
	client := &mockClient{delay: func(url string) time.Duration { return delays[url] }}
	storage := newMockStorage()

	pool := NewWorkerPool(4, client, storage, nil, logger.NewNopLogger())
	pool.Run(context.Background(), jobs(8))

	for i := 0; i < 8; i++ {
		assert.Equal(t, fmt.Sprintf("data:https://cdn/%d.jpg", i), storage.saved[fmt.Sprintf("base_%d.jpg", i)])
	}
}

func TestWorkerPoolWithErrors(t *testing.T) {
	client := &mockClient{failURL: "https://cdn/1.jpg"}
	storage := newMockStorage()
	log := logger.NewTestLogger()

	pool := NewWorkerPool(2, client, storage, nil, log)
	results := pool.Run(context.Background(), jobs(3))

	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.ErrorContains(t, results[1].Error, "download failed")
	assert.True(t, results[2].Success)
	assert.True(t, log.HasMessage("Asset download failed"))
}

func TestWorkerPoolSaveError(t *testing.T) {
	storage := newMockStorage()
	storage.saveErr = errors.New("disk full")

	pool := NewWorkerPool(1, &mockClient{}, storage, nil, logger.NewNopLogger())
	results := pool.Run(context.Background(), jobs(1))

	require.Len(t, results, 1)
	assert.ErrorContains(t, results[0].Error, "save failed")
}

func TestWorkerPoolSkipsExisting(t *testing.T) {
	client := &mockClient{}
	storage := newMockStorage()
	storage.existing["base_0.jpg"] = true

	pool := NewWorkerPool(2, client, storage, nil, logger.NewNopLogger())
	results := pool.Run(context.Background(), jobs(2))

	assert.True(t, results[0].Skipped)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Skipped)
	assert.Equal(t, int32(1), atomic.LoadInt32(&client.calls))
}

func TestWorkerPoolCourtesyDelay(t *testing.T) {
	pool := NewWorkerPool(3, &mockClient{}, newMockStorage(), ratelimit.NewInterval(30*time.Millisecond), logger.NewNopLogger())

	start := time.Now()
	results := pool.Run(context.Background(), jobs(3))
	elapsed := time.Since(start)

	require.Len(t, results, 3)
	// first download is immediate, the next two wait one interval each
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
}

func TestWorkerPoolCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &mockClient{}
	pool := NewWorkerPool(2, client, newMockStorage(), nil, logger.NewNopLogger())
	results := pool.Run(ctx, jobs(5))

	require.Len(t, results, 5)
	for _, r := range results {
		assert.False(t, r.Success)
		assert.Error(t, r.Error)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&client.calls))
}
