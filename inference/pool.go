package inference

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/brensch/snekheat/arbiter"
	"github.com/brensch/snekheat/features"
)

// OnnxPool fans Classify calls across several OnnxClient sessions, each
// with its own batching loop.
type OnnxPool struct {
	clients []*OnnxClient
	rr      atomic.Uint64
}

var _ arbiter.Classifier = (*OnnxPool)(nil)

func NewOnnxPool(cfg Config, sessions int) (*OnnxPool, error) {
	if sessions <= 0 {
		sessions = 1
	}

	clients := make([]*OnnxClient, 0, sessions)
	for i := 0; i < sessions; i++ {
		c, err := NewOnnxClient(cfg)
		if err != nil {
			for _, created := range clients {
				_ = created.Close()
			}
			return nil, fmt.Errorf("create onnx client %d/%d: %w", i+1, sessions, err)
		}
		clients = append(clients, c)
	}

	return &OnnxPool{clients: clients}, nil
}

func (p *OnnxPool) Close() error {
	var firstErr error
	for _, c := range p.clients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *OnnxPool) Classify(ctx context.Context, v features.Vector) (arbiter.Prediction, error) {
	if len(p.clients) == 0 {
		return arbiter.Prediction{}, fmt.Errorf("onnx pool has no clients")
	}
	idx := int(p.rr.Add(1)-1) % len(p.clients)
	return p.clients[idx].Classify(ctx, v)
}

func (p *OnnxPool) Stats() RuntimeStats {
	var agg RuntimeStats
	for _, c := range p.clients {
		st := c.Stats()
		agg.TotalBatches += st.TotalBatches
		agg.TotalItems += st.TotalItems
		agg.TotalRunNanos += st.TotalRunNanos
		agg.QueueLen += st.QueueLen
		if st.LastBatchSize > agg.LastBatchSize {
			agg.LastBatchSize = st.LastBatchSize
		}
	}
	agg.fillAverages()
	return agg
}
