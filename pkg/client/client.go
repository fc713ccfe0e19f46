// Package client talks to one or more benchagent instances over HTTP. All
// operations fan out to every configured agent in parallel.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	dto "github.com/prometheus/client_model/go"

	"dbbenchtools/api/benchapi"
)

type Client struct {
	http   *http.Client
	agents []*url.URL
}

// New builds a client for the given agent addresses. An address without a
// scheme is treated as host:port over plain HTTP.
func New(agents []string) (*Client, error) {
	if len(agents) == 0 {
		return nil, errors.New("no agent addresses configured")
	}

	urls := make([]*url.URL, 0, len(agents))
	for _, addr := range agents {
		if !strings.Contains(addr, "://") {
			addr = "http://" + addr
		}
		u, err := url.Parse(addr)
		if err != nil {
			return nil, fmt.Errorf("parse agent address %q: %w", addr, err)
		}
		urls = append(urls, u)
	}

	return &Client{
		http:   &http.Client{Timeout: 30 * time.Second},
		agents: urls,
	}, nil
}

func (c *Client) NumAgents() int {
	return len(c.agents)
}

// Run submits a dbbench run to every agent. Agents reject the submission
// with a conflict status while busy.
func (c *Client) Run(ctx context.Context, req benchapi.RunRequest) error {
	return c.post(ctx, req, "work", "run")
}

// ABTest submits an A/B comparison suite to every agent.
func (c *Client) ABTest(ctx context.Context, req benchapi.ABTestRequest) error {
	return c.post(ctx, req, "work", "abtest")
}

// Stop cancels the active task on every agent.
func (c *Client) Stop(ctx context.Context) error {
	return c.post(ctx, nil, "work", "stop")
}

// Status fetches the raw worker status of every agent.
func (c *Client) Status(ctx context.Context) ([]benchapi.APIWorkerStatus, error) {
	collector := resultCollector[benchapi.APIWorkerStatus]{
		client: c.http,
		path:   []string{"status"},
	}
	return collector.Collect(ctx, c.agents, false)
}

// RunResults fetches the last run result of every agent. With wait set the
// call polls until all agents are done with their active task.
func (c *Client) RunResults(ctx context.Context, wait bool) ([]benchapi.RunWorkerStatus, error) {
	collector := resultCollector[benchapi.RunWorkerStatus]{
		client:   c.http,
		path:     []string{"status"},
		Validate: validateStatus[benchapi.RunStats](benchapi.TaskRun, false),
	}
	return collector.Collect(ctx, c.agents, wait)
}

// ABTestResults fetches the last A/B comparison result of every agent.
func (c *Client) ABTestResults(ctx context.Context, wait bool) ([]benchapi.ABTestWorkerStatus, error) {
	collector := resultCollector[benchapi.ABTestWorkerStatus]{
		client:   c.http,
		path:     []string{"status"},
		Validate: validateStatus[benchapi.ABTestStats](benchapi.TaskABTest, false),
	}
	return collector.Collect(ctx, c.agents, wait)
}

// Metrics scrapes the prometheus endpoint of every agent.
func (c *Client) Metrics(ctx context.Context) ([]map[string]*dto.MetricFamily, error) {
	collector := resultCollector[map[string]*dto.MetricFamily]{
		client:  c.http,
		path:    []string{"metrics"},
		Decoder: promDecoder,
	}
	return collector.Collect(ctx, c.agents, false)
}

// Healthcheck queries /healthz on every agent. It reports whether all
// agents are reachable and idle.
func (c *Client) Healthcheck(ctx context.Context) (idle bool, err error) {
	idle = true
	var mu sync.Mutex

	err = eachParallel(c.agents).Do(ctx, func(ctx context.Context, agent *url.URL) error {
		status, err := c.healthz(ctx, agent)
		if err != nil {
			return err
		}
		if status != benchapi.StatusIdle {
			mu.Lock()
			defer mu.Unlock()
			idle = false
		}
		return nil
	})

	return idle, err
}

func (c *Client) healthz(ctx context.Context, agent *url.URL) (benchapi.StatusCode, error) {
	u := agent.JoinPath("healthz")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("healthcheck failed: %s", resp.Status)
	}

	var status benchapi.StatusCode
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return "", fmt.Errorf("decode status: %w", err)
	}
	return status, nil
}

func (c *Client) post(ctx context.Context, body any, path ...string) error {
	var rawBody []byte
	if body != nil {
		var err error
		rawBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
	}

	return eachParallel(c.agents).Do(ctx, func(ctx context.Context, agent *url.URL) error {
		u := agent.JoinPath(path...)
		var bodyReader io.Reader
		if rawBody != nil {
			bodyReader = bytes.NewReader(rawBody)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bodyReader)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("post %s: %w", u, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusConflict {
			return fmt.Errorf("%s: %w", agent.Host, ErrBusy)
		}
		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("post request failed (%s): %s", resp.Status, respBody)
		}
		return nil
	})
}
