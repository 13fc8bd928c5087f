package publisher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Netflix-Skunkworks/spectatord/pkg/log"
	"github.com/Netflix-Skunkworks/spectatord/pkg/spectator"
)

// maxResponseBodyBytes bounds how much of an aggregator response body is
// read back for errorCount/message[] parsing; the aggregator's error
// payloads are small JSON objects, never a multi-megabyte body.
const maxResponseBodyBytes = 64 * 1024

// Client is a connection-reusing HTTP client with the retry/backoff and
// per-attempt IPC telemetry the publish and admin-GET paths both need. A
// single *http.Client is shared across calls so TCP connections and TLS
// sessions are kept warm between publish ticks.
type Client struct {
	http           *http.Client
	connectTimeout time.Duration
	readTimeout    time.Duration
	registry       *spectator.Registry
	processName    string
}

// NewClient returns a Client that reuses connections across calls.
func NewClient(connectTimeout, readTimeout time.Duration, registry *spectator.Registry, processName string) *Client {
	return &Client{
		http: &http.Client{
			Timeout: connectTimeout + readTimeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				MaxConnsPerHost:     16,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		connectTimeout: connectTimeout,
		readTimeout:    readTimeout,
		registry:       registry,
		processName:    processName,
	}
}

type attemptResult struct {
	status int // http status, or -1 on transport failure
	body   []byte
	err    error
}

// PostSmile POSTs body (already gzip-compressed Smile) to uri, retrying
// per spec.md's §4.6 policy: up to 2 extra retries on a network error
// while still within connectTimeout+readTimeout of the first attempt; up
// to 2 extra retries with exponential backoff (200ms, 400ms) on 429/5xx;
// every other status is terminal. The response body is returned alongside
// the status so the caller can parse a partial-validation JSON payload.
func (c *Client) PostSmile(ctx context.Context, uri string, body []byte) (int, []byte, error) {
	return c.post(ctx, uri, body, "application/x-jackson-smile")
}

func (c *Client) post(ctx context.Context, uri string, body []byte, contentType string) (int, []byte, error) {
	budget := c.connectTimeout + c.readTimeout
	start := time.Now()
	endpoint := endpointPath(uri)

	var last attemptResult
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			if last.status >= 0 {
				time.Sleep(200 * time.Millisecond << (attempt - 1))
			} else if time.Since(start) >= budget {
				break
			}
		}

		attemptStart := time.Now()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, uri, bytes.NewReader(body))
		if err != nil {
			return -1, nil, err
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Content-Encoding", "gzip")

		resp, err := c.http.Do(req)
		elapsed := time.Since(attemptStart)
		final := attempt == 2
		if err != nil {
			c.recordIPC(endpoint, time.Since(attemptStart), -1, attempt, final, "connection_error")
			last = attemptResult{status: -1, err: err}
			log.Warnf("publish attempt %d to %s failed: %v", attempt+1, uri, err)
			continue
		}

		status := resp.StatusCode
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
		resp.Body.Close()

		if status >= 200 && status < 300 {
			c.recordIPC(endpoint, elapsed, status, attempt, final, "success")
			return status, respBody, nil
		}
		if status == http.StatusTooManyRequests || status >= 500 {
			c.recordIPC(endpoint, elapsed, status, attempt, final, "http_error")
			last = attemptResult{status: status, body: respBody}
			continue
		}

		c.recordIPC(endpoint, elapsed, status, attempt, true, "http_error")
		return status, respBody, nil
	}

	if last.err != nil {
		return -1, nil, last.err
	}
	return last.status, last.body, fmt.Errorf("publish to %s exhausted retries with status %d", uri, last.status)
}

func (c *Client) recordIPC(endpoint string, elapsed time.Duration, status, attempt int, final bool, ipcStatus string) {
	if c.registry == nil {
		return
	}
	result := "failure"
	if ipcStatus == "success" {
		result = "success"
	}
	attemptTag := []string{"initial", "second", "third_up"}[attempt]

	id := c.registry.CreateId("ipc.client.call", spectator.Tags{})
	id = id.WithTag("http.method", http.MethodPost)
	id = id.WithTag("http.status", fmt.Sprintf("%d", status))
	id = id.WithTag("ipc.endpoint", endpoint)
	id = id.WithTag("ipc.result", result)
	id = id.WithTag("ipc.status", ipcStatus)
	id = id.WithTag("ipc.attempt", attemptTag)
	id = id.WithTag("ipc.attempt.final", fmt.Sprintf("%t", final))
	id = id.WithTag("nf.process", c.processName)

	pt := c.registry.PercentileTimer(id, time.Millisecond, 60*time.Second)
	pt.Record(elapsed)
}

func endpointPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	return u.Path
}
