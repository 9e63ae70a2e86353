// Package headless talks to a Nine Chronicles headless node over GraphQL.
// The same client is used to read the source chain and to submit
// transactions to the destination chain.
package headless

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	graphql "github.com/hasura/go-graphql-client"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/nc-bridge-go/agreement"
	"github.com/TEENet-io/nc-bridge-go/common"
	"github.com/TEENet-io/nc-bridge-go/metrics"
)

type Client struct {
	cfg Config
	gql *graphql.Client
}

var _ agreement.HeadlessClient = (*Client)(nil)

func NewClient(cfg Config) *Client {
	return NewClientWithHTTP(cfg, http.DefaultClient)
}

func NewClientWithHTTP(cfg Config, httpClient *http.Client) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg: cfg,
		gql: graphql.NewClient(cfg.Endpoint, httpClient),
	}
}

func (c *Client) Endpoint() string {
	return c.cfg.Endpoint
}

// request runs one GraphQL operation with the retry policy and decodes the
// data field into out. It makes MaxRetry+1 attempts, each bounded by Timeout.
// Undecodable data is not retried.
func (c *Client) request(ctx context.Context, operation string, query string, variables map[string]any, out any) error {
	attempt := 0
	op := func() error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		data, err := c.gql.ExecRaw(attemptCtx, query, variables, graphql.OperationName(operation))
		if err != nil {
			var gqlErrs graphql.Errors
			if errors.As(err, &gqlErrs) {
				return fmt.Errorf("%w: %s: %v", ErrGraphQL, operation, gqlErrs)
			}
			return fmt.Errorf("%s: %w", operation, err)
		}

		if err := json.Unmarshal(data, out); err != nil {
			return backoff.Permanent(ErrMalformedResponse(operation, err))
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.cfg.RetryDelay), uint64(c.cfg.MaxRetry)),
		ctx,
	)

	return backoff.RetryNotify(op, policy, func(err error, next time.Duration) {
		metrics.AdapterRetries.WithLabelValues(operation).Inc()
		logger.WithFields(logger.Fields{
			"endpoint":  c.cfg.Endpoint,
			"operation": operation,
			"attempt":   attempt,
			"left":      c.cfg.MaxRetry + 1 - attempt,
		}).Warnf("headless request failed, retrying in %s: %v", next, err)
	})
}

func hexOf(h agreement.BlockHash) string {
	return common.ByteSliceToPureHexStr(h[:])
}
