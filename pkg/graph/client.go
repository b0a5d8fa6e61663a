// Copyright 2025 OneVice Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package graph wraps a pooled Neo4j connection into the small, typed
// surface the rest of the core depends on: parameterized Cypher
// execution, transactions, a health probe, and (via vector.go) vector
// similarity search over a companion vector store. It carries no
// business logic. Callers (pkg/tools) decide what to ask for.
package graph

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/dirkdd/OneVice-sub002/pkg/config"
	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
	"github.com/dirkdd/OneVice-sub002/pkg/vectorstore"
)

// Record is a single result row, keyed by the Cypher RETURN aliases.
type Record map[string]any

// Result is the outcome of a Run call: just the rows, deliberately thin so callers decode only the fields they need.
type Result struct {
	Records []Record
}

// Client is the pooled graph-store connection. It is constructed once
// at the composition root and shared across the process; callers never
// hold it across an LLM call.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	log      *slog.Logger
	vectors  vectorstore.Store

	runTimeout    time.Duration
	vectorTimeout time.Duration
	maxRetries    int
}

// Option configures a Client at construction.
type Option func(*Client)

// WithLogger overrides the default slog.Default() logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithTimeouts overrides the default query/vector timeouts (2s/5s).
func WithTimeouts(run, vector time.Duration) Option {
	return func(c *Client) {
		c.runTimeout = run
		c.vectorTimeout = vector
	}
}

// New dials the graph store and verifies connectivity. Pool bounds
// (max connections from cfg, a fixed 1h max lifetime and 30s borrow
// timeout) are passed straight through to the driver's own pool configuration rather
// than reimplemented.
func New(ctx context.Context, cfg config.GraphConfig, opts ...Option) (*Client, error) {
	auth := neo4j.BasicAuth(cfg.Username, cfg.Password, "")

	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth, func(c *neo4j.Config) {
		c.MaxConnectionPoolSize = cfg.PoolMax
		c.MaxConnectionLifetime = time.Hour
		c.ConnectionAcquisitionTimeout = 30 * time.Second
		c.SocketConnectTimeout = time.Duration(cfg.ConnectionTimeoutS) * time.Second
	})
	if err != nil {
		return nil, errkind.New(errkind.Connection, "graph.New", err)
	}

	c := &Client{
		driver:        driver,
		database:      cfg.Database,
		log:           slog.Default(),
		runTimeout:    2 * time.Second,
		vectorTimeout: 5 * time.Second,
		maxRetries:    3,
	}
	for _, opt := range opts {
		opt(c)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, c.runTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, errkind.New(errkind.Connection, "graph.New.VerifyConnectivity", err)
	}
	return c, nil
}

// Close releases the driver's connection pool.
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// RunOptions control a single Run call's retry behavior.
type RunOptions struct {
	// Idempotent marks a write-bearing query safe to retry. Read-only
	// queries are always retried on a retryable classification; writes
	// are retried only when this is set.
	Idempotent bool
}

// Run executes a single parameterized Cypher statement. Connection
// and timeout failures are retried up to three times with jittered
// exponential backoff; other failures surface immediately. Writes are
// retried only when opts.Idempotent is set.
func (c *Client) Run(ctx context.Context, cypher string, params map[string]any, opts ...RunOptions) (*Result, error) {
	var o RunOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if !o.Idempotent && !isReadQuery(cypher) {
				break
			}
			backoff := jitteredBackoff(attempt)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, errkind.New(errkind.Cancelled, "graph.Run", ctx.Err())
			}
		}

		result, err := c.runOnce(ctx, cypher, params)
		if err == nil {
			return result, nil
		}
		lastErr = err

		var ke *errkind.Error
		if !asErrkind(err, &ke) || !errkind.Retryable(ke.Kind) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) runOnce(ctx context.Context, cypher string, params map[string]any) (*Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.runTimeout)
	defer cancel()

	session := c.driver.NewSession(runCtx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(runCtx)

	raw, err := session.Run(runCtx, cypher, params)
	if err != nil {
		return nil, classifyError("graph.Run", err)
	}

	records, err := raw.Collect(runCtx)
	if err != nil {
		return nil, classifyError("graph.Run.Collect", err)
	}

	out := &Result{Records: make([]Record, 0, len(records))}
	for _, rec := range records {
		row := make(Record, len(rec.Keys))
		for _, k := range rec.Keys {
			v, _ := rec.Get(k)
			row[k] = v
		}
		out.Records = append(out.Records, row)
	}
	return out, nil
}

// Transaction executes every query in queries inside one write
// transaction: all-or-nothing, rolling back on the first error.
func (c *Client) Transaction(ctx context.Context, queries []TxQuery) (*Result, error) {
	txCtx, cancel := context.WithTimeout(ctx, c.runTimeout)
	defer cancel()

	session := c.driver.NewSession(txCtx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(txCtx)

	result, err := session.ExecuteWrite(txCtx, func(tx neo4j.ManagedTransaction) (any, error) {
		out := &Result{}
		for _, q := range queries {
			raw, err := tx.Run(txCtx, q.Cypher, q.Params)
			if err != nil {
				return nil, err
			}
			records, err := raw.Collect(txCtx)
			if err != nil {
				return nil, err
			}
			for _, rec := range records {
				row := make(Record, len(rec.Keys))
				for _, k := range rec.Keys {
					v, _ := rec.Get(k)
					row[k] = v
				}
				out.Records = append(out.Records, row)
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, classifyError("graph.Transaction", err)
	}
	return result.(*Result), nil
}

// TxQuery is one statement within a Transaction call.
type TxQuery struct {
	Cypher string
	Params map[string]any
}

// Health runs a trivial probe query under a strict timeout.
func (c *Client) Health(ctx context.Context) bool {
	healthCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	session := c.driver.NewSession(healthCtx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(healthCtx)

	result, err := session.Run(healthCtx, "RETURN 1 AS ok", nil)
	if err != nil {
		return false
	}
	_, err = result.Single(healthCtx)
	return err == nil
}

func jitteredBackoff(attempt int) time.Duration {
	base := 50 * time.Millisecond
	scaled := base * time.Duration(1<<uint(attempt-1))
	jitter := time.Duration(rand.Int63n(int64(scaled) / 2))
	return scaled + jitter
}

func isReadQuery(cypher string) bool {
	trimmed := cypher
	for len(trimmed) > 0 && (trimmed[0] == ' ' || trimmed[0] == '\n' || trimmed[0] == '\t') {
		trimmed = trimmed[1:]
	}
	upper := trimmed
	if len(upper) > 6 {
		upper = upper[:6]
	}
	switch upper {
	case "MATCH ", "RETURN":
		return true
	default:
		return false
	}
}

func asErrkind(err error, target **errkind.Error) bool {
	type unwrapper interface{ Unwrap() error }
	for err != nil {
		if e, ok := err.(*errkind.Error); ok {
			*target = e
			return true
		}
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
