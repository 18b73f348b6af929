// Package inference runs the move classifier through ONNX Runtime.
//
// Requests from concurrent games are coalesced into batches by a single loop
// per session, as the model runs fastest on full batches.
package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/brensch/snekheat/arbiter"
	"github.com/brensch/snekheat/features"
)

const (
	DefaultBatchSize    = 32
	DefaultBatchTimeout = 1 * time.Millisecond
)

// ErrClosed is returned by Classify after Close.
var ErrClosed = errors.New("onnx client closed")

type Config struct {
	ModelPath    string
	BatchSize    int
	BatchTimeout time.Duration
	InputName    string
	OutputName   string
	Labels       []string
	UseCUDA      bool
	Logger       *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = DefaultBatchTimeout
	}
	if c.InputName == "" {
		c.InputName = "input"
	}
	if c.OutputName == "" {
		c.OutputName = "probabilities"
	}
	if len(c.Labels) == 0 {
		c.Labels = DefaultLabels
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
}

type inferenceRequest struct {
	input    features.Vector
	respChan chan inferenceResponse
}

type inferenceResponse struct {
	row []float32
	err error
}

// OnnxClient owns one ORT session and its batching loop.
type OnnxClient struct {
	session      *ort.DynamicAdvancedSession
	requestsChan chan inferenceRequest
	done         chan struct{}
	closeOnce    sync.Once
	wg           sync.WaitGroup
	cfg          Config
	stats        runtimeCounters
}

var _ arbiter.Classifier = (*OnnxClient)(nil)

func NewOnnxClient(cfg Config) (*OnnxClient, error) {
	cfg.applyDefaults()

	if err := initRuntime(); err != nil {
		return nil, fmt.Errorf("failed to init ort: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, err
	}
	defer options.Destroy()

	// Decisions are latency bound and tiny; one thread per session keeps
	// concurrent sessions from fighting over cores.
	_ = options.SetIntraOpNumThreads(1)
	_ = options.SetInterOpNumThreads(1)

	if cfg.UseCUDA {
		cudaOptions, err := ort.NewCUDAProviderOptions()
		if err != nil {
			cfg.Logger.Warn("CUDA options unavailable, using CPU", "error", err)
		} else {
			defer cudaOptions.Destroy()
			if err := options.AppendExecutionProviderCUDA(cudaOptions); err != nil {
				cfg.Logger.Warn("failed to append CUDA provider, using CPU", "error", err)
			} else {
				cfg.Logger.Info("CUDA provider enabled")
			}
		}
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, []string{cfg.InputName}, []string{cfg.OutputName}, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	client := &OnnxClient{
		session:      session,
		cfg:          cfg,
		requestsChan: make(chan inferenceRequest, cfg.BatchSize*2),
		done:         make(chan struct{}),
	}

	client.wg.Add(1)
	go client.batchLoop()

	return client, nil
}

// Close stops the batching loop and releases the session.
func (c *OnnxClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.wg.Wait()
		err = c.session.Destroy()
	})
	return err
}

// Classify queues v for the next batch and waits for its row.
func (c *OnnxClient) Classify(ctx context.Context, v features.Vector) (arbiter.Prediction, error) {
	respChan := make(chan inferenceResponse, 1)
	select {
	case c.requestsChan <- inferenceRequest{input: v, respChan: respChan}:
	case <-c.done:
		return arbiter.Prediction{}, ErrClosed
	case <-ctx.Done():
		return arbiter.Prediction{}, ctx.Err()
	}

	select {
	case resp := <-respChan:
		if resp.err != nil {
			return arbiter.Prediction{}, resp.err
		}
		return Decode(resp.row, c.cfg.Labels)
	case <-ctx.Done():
		return arbiter.Prediction{}, ctx.Err()
	}
}

func (c *OnnxClient) batchLoop() {
	defer c.wg.Done()

	requests := make([]inferenceRequest, 0, c.cfg.BatchSize)

	ticker := time.NewTicker(c.cfg.BatchTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			c.failBatch(requests, ErrClosed)
			return
		case req := <-c.requestsChan:
			requests = append(requests, req)
			if len(requests) >= c.cfg.BatchSize {
				c.runBatch(requests)
				requests = requests[:0]
			}
		case <-ticker.C:
			if len(requests) > 0 {
				c.runBatch(requests)
				requests = requests[:0]
			}
		}
	}
}

func (c *OnnxClient) runBatch(requests []inferenceRequest) {
	start := time.Now()
	n := int64(len(requests))
	classes := int64(len(c.cfg.Labels))

	bufPtr := features.GetBatch(len(requests))
	defer features.PutBatch(bufPtr)
	batchInput := *bufPtr
	for i, req := range requests {
		copy(batchInput[i*features.Count:(i+1)*features.Count], req.input[:])
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(n, features.Count), batchInput)
	if err != nil {
		c.failBatch(requests, err)
		return
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(n, classes))
	if err != nil {
		c.failBatch(requests, err)
		return
	}
	defer outputTensor.Destroy()

	if err := c.session.Run([]ort.Value{inputTensor}, []ort.Value{outputTensor}); err != nil {
		c.failBatch(requests, err)
		return
	}

	out := outputTensor.GetData()
	for i, req := range requests {
		row := make([]float32, classes)
		copy(row, out[int64(i)*classes:int64(i+1)*classes])
		req.respChan <- inferenceResponse{row: row}
	}

	c.stats.record(len(requests), time.Since(start))
}

func (c *OnnxClient) failBatch(requests []inferenceRequest, err error) {
	if len(requests) > 0 && !errors.Is(err, ErrClosed) {
		c.cfg.Logger.Error("onnx batch failed", "size", len(requests), "error", err)
	}
	for _, req := range requests {
		req.respChan <- inferenceResponse{err: err}
	}
}

// Stats reports batching counters for this session.
func (c *OnnxClient) Stats() RuntimeStats {
	st := c.stats.snapshot()
	st.QueueLen = len(c.requestsChan)
	return st
}

// RuntimeStats summarises batching behaviour.
type RuntimeStats struct {
	TotalBatches  int64
	TotalItems    int64
	TotalRunNanos int64
	LastBatchSize int64
	QueueLen      int
	AvgBatchSize  float64
	AvgRunMs      float64
}

type runtimeCounters struct {
	batches  atomic.Int64
	items    atomic.Int64
	runNanos atomic.Int64
	last     atomic.Int64
}

func (r *runtimeCounters) record(size int, d time.Duration) {
	r.batches.Add(1)
	r.items.Add(int64(size))
	r.runNanos.Add(d.Nanoseconds())
	r.last.Store(int64(size))
}

func (r *runtimeCounters) snapshot() RuntimeStats {
	st := RuntimeStats{
		TotalBatches:  r.batches.Load(),
		TotalItems:    r.items.Load(),
		TotalRunNanos: r.runNanos.Load(),
		LastBatchSize: r.last.Load(),
	}
	st.fillAverages()
	return st
}

func (st *RuntimeStats) fillAverages() {
	if st.TotalBatches > 0 {
		st.AvgBatchSize = float64(st.TotalItems) / float64(st.TotalBatches)
		st.AvgRunMs = (float64(st.TotalRunNanos) / 1e6) / float64(st.TotalBatches)
	}
}
