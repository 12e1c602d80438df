// Copyright 2025 Tom Barlow
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

// Package metadata reads the companion's bundled metadata document.
package metadata

import (
	"context"
	"fmt"
	"time"

	"github.com/itchyny/gojq"
)

// DefaultQueryTimeout bounds a single query evaluation.
const DefaultQueryTimeout = 1 * time.Second

// Query is a compiled jq expression.
type Query struct {
	expression string
	code       *gojq.Code
	timeout    time.Duration
}

// CompileQuery parses and compiles expression.
func CompileQuery(expression string) (*Query, error) {
	parsed, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression %q: %w", expression, err)
	}

	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("jq compilation failed: %w", err)
	}

	return &Query{
		expression: expression,
		code:       code,
		timeout:    DefaultQueryTimeout,
	}, nil
}

// String returns the source expression.
func (q *Query) String() string {
	return q.expression
}

// First evaluates the query against data and returns its first result.
// A query producing no results yields nil.
func (q *Query) First(ctx context.Context, data any) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	iter := q.code.RunWithContext(ctx, data)
	v, ok := iter.Next()
	if !ok {
		return nil, nil
	}
	if err, isErr := v.(error); isErr {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("query %s: %w", q.expression, ctxErr)
		}
		return nil, fmt.Errorf("query %s: %w", q.expression, err)
	}
	return v, nil
}
