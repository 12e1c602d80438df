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

package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// DefaultVersionQuery extracts the version field.
const DefaultVersionQuery = ".version"

// DefaultMaxSize caps the metadata document size.
const DefaultMaxSize = 1 << 20

// ErrMetadata is returned when the metadata document is missing, malformed
// or lacks a usable version.
var ErrMetadata = errors.New("metadata unavailable")

// Reader extracts the version string from a JSON metadata file.
// The file is read on every call and never cached.
type Reader struct {
	path    string
	query   *Query
	maxSize int64
}

// NewReader creates a Reader for path using the given jq expression.
// An empty expression uses DefaultVersionQuery.
func NewReader(path, expression string) (*Reader, error) {
	if expression == "" {
		expression = DefaultVersionQuery
	}
	query, err := CompileQuery(expression)
	if err != nil {
		return nil, err
	}
	return &Reader{path: path, query: query, maxSize: DefaultMaxSize}, nil
}

// Version reads the metadata file and returns the non-empty version string.
func (r *Reader) Version(ctx context.Context) (string, error) {
	info, err := os.Stat(r.path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMetadata, err)
	}
	if info.Size() > r.maxSize {
		return "", fmt.Errorf("%w: %s is %d bytes, limit %d", ErrMetadata, r.path, info.Size(), r.maxSize)
	}

	raw, err := os.ReadFile(r.path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMetadata, err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("%w: parse %s: %v", ErrMetadata, r.path, err)
	}

	v, err := r.query.First(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMetadata, err)
	}

	version, ok := v.(string)
	if !ok || version == "" {
		return "", fmt.Errorf("%w: %s yields %v in %s, want non-empty string", ErrMetadata, r.query, v, r.path)
	}
	return version, nil
}
