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

package graph

import (
	"context"
	"errors"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"

	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
)

// classifyError maps a raw driver error into our taxonomy so retry and
// fallback policy can be decided from Kind alone, never from message
// text.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errkind.New(errkind.Timeout, op, err)
	}
	if errors.Is(err, context.Canceled) {
		return errkind.New(errkind.Cancelled, op, err)
	}
	if neo4j.IsConnectivityError(err) {
		return errkind.New(errkind.Connection, op, err)
	}
	var neoErr *db.Neo4jError
	if errors.As(err, &neoErr) {
		if neoErr.Code == "Neo.TransientError.General.OutOfMemoryError" ||
			neoErr.Code == "Neo.TransientError.Transaction.Terminated" {
			return errkind.New(errkind.Connection, op, err)
		}
		return errkind.New(errkind.Validation, op, err)
	}
	return errkind.New(errkind.Connection, op, err)
}
