package stock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
)

type chanReader struct {
	msgs   chan kafka.Message
	closed bool
}

func (r *chanReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *chanReader) Close() error {
	r.closed = true
	return nil
}

type recordingInvalidator struct {
	mu    sync.Mutex
	calls [][]int64
}

func (i *recordingInvalidator) InvalidateStock(ids []int64) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls = append(i.calls, ids)
	return 1
}

func (i *recordingInvalidator) count() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.calls)
}

func TestConsumer_InvalidatesOnEvents(t *testing.T) {
	reader := &chanReader{msgs: make(chan kafka.Message, 3)}
	target := &recordingInvalidator{}
	c := NewConsumerWithReader(reader, target, nil)

	reader.msgs <- kafka.Message{Value: []byte(`not json`)}
	reader.msgs <- kafka.Message{Value: []byte(`{"product_ids":[]}`)}
	reader.msgs <- kafka.Message{Value: []byte(`{"product_ids":[3,7]}`)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return target.count() == 1 }, time.Second, 10*time.Millisecond)
	cancel()
	<-done
	c.Close()

	assert.Equal(t, []int64{3, 7}, target.calls[0])
	assert.True(t, reader.closed)
}

func TestCache_Holds(t *testing.T) {
	f := &mockFetcher{snapshots: map[int64]domain.StockSnapshot{
		1: {ProductID: 1, AvailableStock: 2},
	}}
	c := NewCache(f, nil, nil)
	_, err := c.Fetch(context.Background(), []int64{1, 2})
	require.NoError(t, err)

	assert.True(t, c.Holds([]int64{2, 1}))
	assert.False(t, c.Holds([]int64{2}))
	assert.False(t, c.Holds(nil))
}
