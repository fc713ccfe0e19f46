package client

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"

	"dbbenchtools/api/benchapi"
	"dbbenchtools/pkg/timeutil"
)

// WaitReady blocks until every agent answers its healthcheck. Connection
// errors are retried with exponential backoff; an agent reporting
// Disconnected is treated as not ready.
func (c *Client) WaitReady(ctx context.Context, maxTries uint) error {
	return eachParallel(c.agents).Do(ctx, func(ctx context.Context, agent *url.URL) error {
		operation := func() (any, error) {
			status, err := c.healthz(ctx, agent)
			if err != nil {
				return nil, err
			}
			if status == benchapi.StatusDisconnected {
				return nil, errors.New("agent cannot reach its target database")
			}
			if err := ctx.Err(); err != nil {
				return nil, backoff.Permanent(err)
			}
			return nil, nil
		}

		expBackoff := backoff.NewExponentialBackOff()
		expBackoff.MaxInterval = 1 * time.Minute

		_, err := backoff.Retry(ctx, operation, backoff.WithBackOff(expBackoff), backoff.WithMaxTries(maxTries))
		return err
	})
}

// WaitIdle polls until no agent reports an active task.
func (c *Client) WaitIdle(ctx context.Context) error {
	if idle, err := c.Healthcheck(ctx); idle || err != nil {
		return err
	}
	for range timeutil.IterTick(ctx, idlePollInterval) {
		if idle, err := c.Healthcheck(ctx); idle || err != nil {
			return err
		}
	}
	return ctx.Err()
}
