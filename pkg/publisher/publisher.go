package publisher

import (
	"context"
	"encoding/json"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/Netflix-Skunkworks/spectatord/pkg/log"
	"github.com/Netflix-Skunkworks/spectatord/pkg/spectator"
)

// Config carries the subset of daemon configuration the Publisher needs.
type Config struct {
	URI            string
	Frequency      time.Duration
	BatchSize      int
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	ProcessName    string
}

// Publisher periodically drains the Registry, splits the snapshot into
// batches of at most BatchSize, and ships each batch concurrently over a
// bounded worker pool, matching spec.md §4.7: encode+gzip per batch, POST
// with content-type application/x-jackson-smile, track sent/dropped.
type Publisher struct {
	cfg      Config
	registry *spectator.Registry
	client   *Client
	workers  int

	scheduler gocron.Scheduler

	lastSuccess atomic.Int64 // unix nanos
}

// New builds a Publisher. workers bounds the number of concurrent batch
// POSTs per tick; min(8, runtime.GOMAXPROCS(0)) is the upstream default.
func New(cfg Config, registry *spectator.Registry) (*Publisher, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > 8 {
		workers = 8
	}
	if workers < 1 {
		workers = 1
	}
	p := &Publisher{
		cfg:       cfg,
		registry:  registry,
		client:    NewClient(cfg.ConnectTimeout, cfg.ReadTimeout, registry, cfg.ProcessName),
		workers:   workers,
		scheduler: scheduler,
	}
	p.lastSuccess.Store(time.Now().UnixNano())
	return p, nil
}

// Start registers the periodic publish tick and starts the scheduler. A
// signal (context cancellation via Stop) finishes the current tick, then
// the scheduler shuts down; it does not abort an in-flight tick.
func (p *Publisher) Start() error {
	_, err := p.scheduler.NewJob(
		gocron.DurationJob(p.cfg.Frequency),
		gocron.NewTask(p.tick),
	)
	if err != nil {
		return err
	}
	p.scheduler.Start()
	return nil
}

// Stop shuts down the scheduler. Any in-flight tick is allowed to finish.
func (p *Publisher) Stop() error {
	return p.scheduler.Shutdown()
}

// LastSuccess returns the unix-nanos timestamp of the last publish tick
// that completed without every batch failing, used by Upkeep's stuck-abort
// check.
func (p *Publisher) LastSuccess() int64 { return p.lastSuccess.Load() }

func (p *Publisher) tick() {
	snapshot := p.registry.Measurements()
	if len(snapshot) == 0 {
		p.lastSuccess.Store(time.Now().UnixNano())
		return
	}

	batches := splitBatches(snapshot, p.cfg.BatchSize)

	var sent, validationDropped, otherDropped, httpErrorDropped int64
	var messagesMu sync.Mutex
	messages := map[string]struct{}{}
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.workers)

	for _, batch := range batches {
		wg.Add(1)
		sem <- struct{}{}
		go func(batch spectator.Measurements) {
			defer wg.Done()
			defer func() { <-sem }()

			res := p.publishBatch(batch)
			atomic.AddInt64(&sent, res.sent)
			atomic.AddInt64(&validationDropped, res.validationDropped)
			atomic.AddInt64(&otherDropped, res.otherDropped)
			atomic.AddInt64(&httpErrorDropped, res.httpErrorDropped)
			if len(res.messages) > 0 {
				messagesMu.Lock()
				for _, m := range res.messages {
					messages[m] = struct{}{}
				}
				messagesMu.Unlock()
			}
		}(batch)
	}
	wg.Wait()

	for m := range messages {
		log.Infof("publish: validation error: %s", m)
	}

	dropped := validationDropped + otherDropped + httpErrorDropped
	p.recordCounts(sent, validationDropped, otherDropped, httpErrorDropped)
	if dropped == 0 || sent > 0 {
		p.lastSuccess.Store(time.Now().UnixNano())
	}
}

func splitBatches(ms spectator.Measurements, batchSize int) []spectator.Measurements {
	if batchSize <= 0 {
		batchSize = len(ms)
	}
	var batches []spectator.Measurements
	for len(ms) > 0 {
		n := batchSize
		if n > len(ms) {
			n = len(ms)
		}
		batches = append(batches, ms[:n])
		ms = ms[n:]
	}
	return batches
}

// batchResult tallies the outcome of a single batch POST into the four
// classifications spec.md §4.7 step 5-6 requires, matching
// original_source/spectator/publisher.h::handle_aggr_response.
type batchResult struct {
	sent              int64
	validationDropped int64
	otherDropped      int64
	httpErrorDropped  int64
	messages          []string
}

// aggrResponse is the aggregator's partial-validation JSON body: an
// errorCount of rejected measurements out of the batch, plus the (possibly
// duplicated across batches) validation message strings. ErrorCount is a
// pointer so a response with no "errorCount" field is distinguishable from
// one reporting zero errors.
type aggrResponse struct {
	ErrorCount *int     `json:"errorCount"`
	Message    []string `json:"message"`
}

func (p *Publisher) publishBatch(batch spectator.Measurements) batchResult {
	n := int64(len(batch))

	encoded := EncodeBatch(batch, p.registry.CommonTags())
	compressed, err := GzipCompress(encoded)
	if err != nil {
		log.Errorf("publish: failed to compress batch of %d measurements: %v", len(batch), err)
		return batchResult{otherDropped: n}
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.ConnectTimeout+p.cfg.ReadTimeout)
	defer cancel()

	status, body, err := p.client.PostSmile(ctx, p.cfg.URI, compressed)
	return classifyResponse(status, body, n, err, p.cfg.URI)
}

// classifyResponse implements handle_aggr_response's four-way split: 2xx is
// fully sent; 3xx/4xx with a parseable errorCount body is partially sent
// (the rest counted as validation drops); 3xx/4xx without one is an "other"
// drop; a transport failure (-1) is an "other" drop; 5xx is an "http-error"
// drop.
func classifyResponse(status int, body []byte, n int64, err error, uri string) batchResult {
	switch {
	case status == -1:
		log.Errorf("publish: batch of %d measurements to %s failed: %v", n, uri, err)
		return batchResult{otherDropped: n}
	case status >= 200 && status < 300:
		return batchResult{sent: n}
	case status >= 300 && status < 500:
		return classifyPartial(status, body, n, uri)
	default:
		log.Warnf("publish: batch of %d measurements to %s rejected with status %d", n, uri, status)
		return batchResult{httpErrorDropped: n}
	}
}

func classifyPartial(status int, body []byte, n int64, uri string) batchResult {
	var resp aggrResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Errorf("publish: unable to parse JSON response from %s - status %d: %s", uri, status, body)
		return batchResult{otherDropped: n}
	}
	if resp.ErrorCount == nil {
		log.Errorf("publish: missing errorCount field in JSON response from %s - status %d: %s", uri, status, body)
		return batchResult{otherDropped: n}
	}

	errCount := int64(*resp.ErrorCount)
	if errCount < 0 {
		errCount = 0
	}
	if errCount > n {
		errCount = n
	}
	return batchResult{
		sent:              n - errCount,
		validationDropped: errCount,
		messages:          resp.Message,
	}
}

func (p *Publisher) recordCounts(sent, validationDropped, otherDropped, httpErrorDropped int64) {
	if sent > 0 {
		p.measurementsCounter("sent", "").Add(float64(sent))
	}
	if validationDropped > 0 {
		p.measurementsCounter("dropped", "validation").Add(float64(validationDropped))
	}
	if otherDropped > 0 {
		p.measurementsCounter("dropped", "other").Add(float64(otherDropped))
	}
	if httpErrorDropped > 0 {
		p.measurementsCounter("dropped", "http-error").Add(float64(httpErrorDropped))
	}
}

// measurementsCounter returns the spectator.measurements{id,error,owner}
// counter for a given outcome; errorTag is omitted from the id for the
// "sent" counter, which carries no error classification.
func (p *Publisher) measurementsCounter(idTag, errorTag string) *spectator.Counter {
	id := p.registry.CreateId("spectator.measurements", spectator.Tags{}).
		WithTag("id", idTag).
		WithTag("owner", "spectatord")
	if errorTag != "" {
		id = id.WithTag("error", errorTag)
	}
	return p.registry.GetCounter(id)
}
