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

import "strings"

// QueryBuilder assembles a parameterized Cypher statement from typed
// pieces, never string-concatenated values, closing the injection risk
// noted in the Design Notes and keeping tool idempotence provable
// (identical inputs always produce the identical statement + param map).
type QueryBuilder struct {
	clauses []string
	params  map[string]any
}

// NewQueryBuilder starts an empty builder.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{params: make(map[string]any)}
}

// Match appends a MATCH clause.
func (b *QueryBuilder) Match(pattern string) *QueryBuilder {
	b.clauses = append(b.clauses, "MATCH "+pattern)
	return b
}

// Where appends a WHERE clause.
func (b *QueryBuilder) Where(predicate string) *QueryBuilder {
	b.clauses = append(b.clauses, "WHERE "+predicate)
	return b
}

// Merge appends a MERGE clause.
func (b *QueryBuilder) Merge(pattern string) *QueryBuilder {
	b.clauses = append(b.clauses, "MERGE "+pattern)
	return b
}

// Return appends a RETURN clause.
func (b *QueryBuilder) Return(projection string) *QueryBuilder {
	b.clauses = append(b.clauses, "RETURN "+projection)
	return b
}

// Limit appends a LIMIT clause bound to a parameter, never an inlined
// literal, so the same builder call always yields the same statement
// text regardless of k.
func (b *QueryBuilder) Limit(name string, k int) *QueryBuilder {
	b.params[name] = k
	b.clauses = append(b.clauses, "LIMIT $"+name)
	return b
}

// Param binds a named parameter.
func (b *QueryBuilder) Param(name string, value any) *QueryBuilder {
	b.params[name] = value
	return b
}

// Build returns the assembled Cypher text and its parameter map.
func (b *QueryBuilder) Build() (string, map[string]any) {
	return strings.Join(b.clauses, "\n"), b.params
}
