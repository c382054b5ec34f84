/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package dao

import (
	"context"
	"reflect"

	"github.com/go-juicedev/dao/pagination"
	sqllib "github.com/go-juicedev/dao/sql"
)

// Row is a single result row keyed by column name.
type Row = sqllib.Row

// Page is both the request and the response of a paged query.
//
// The caller sets the window and AutoCount before the call. The call fills
// TotalCount, when AutoCount is set, and exactly one of RawResult and Result:
// RawResult for a Page[Row], Result for any other T.
// Nothing is written to the page when the call fails.
type Page[T any] struct {
	offset    int64
	pageSize  int64
	offsetSet bool
	sizeSet   bool

	// AutoCount asks for TotalCount to be computed before the data is read.
	AutoCount bool

	// TotalCount is the number of rows of the unpaged query.
	// It is only meaningful when AutoCount was set.
	TotalCount int64

	// RawResult holds the rows of a Page[Row].
	RawResult []Row

	// Result holds the rows of any other page.
	Result []T
}

// NewPage returns a page with both offset and page size set.
func NewPage[T any](offset, pageSize int64) *Page[T] {
	return new(Page[T]).SetOffset(offset).SetPageSize(pageSize)
}

// SetOffset sets the index of the first row of the page.
func (p *Page[T]) SetOffset(offset int64) *Page[T] {
	p.offset, p.offsetSet = offset, true
	return p
}

// SetPageSize sets the maximum number of rows of the page.
func (p *Page[T]) SetPageSize(pageSize int64) *Page[T] {
	p.pageSize, p.sizeSet = pageSize, true
	return p
}

// Offset returns the offset and whether it was set.
func (p *Page[T]) Offset() (int64, bool) {
	return p.offset, p.offsetSet
}

// PageSize returns the page size and whether it was set.
func (p *Page[T]) PageSize() (int64, bool) {
	return p.pageSize, p.sizeSet
}

// PageNumber returns the 1-based number of the page.
func (p *Page[T]) PageNumber() int64 {
	if !p.offsetSet || !p.sizeSet || p.pageSize <= 0 {
		return 1
	}
	return p.offset/p.pageSize + 1
}

// TotalPages returns the number of pages TotalCount spans.
func (p *Page[T]) TotalPages() int64 {
	if !p.sizeSet || p.pageSize <= 0 {
		return 1
	}
	return (p.TotalCount + p.pageSize - 1) / p.pageSize
}

// IsRaw reports whether the page is filled through RawResult.
func (p *Page[T]) IsRaw() bool {
	return reflect.TypeFor[T]() == reflect.TypeFor[Row]()
}

// Request returns the window of the page.
func (p *Page[T]) Request() pagination.Request {
	return pagination.Request{
		Offset:    p.offset,
		Size:      p.pageSize,
		OffsetSet: p.offsetSet,
		SizeSet:   p.sizeSet,
	}
}

// pageRunner lets a Page of any element type be run without knowing T.
type pageRunner interface {
	runPage(ctx context.Context, e *Engine, stmt Statement, params Params) error
}

var pageRunnerType = reflect.TypeFor[pageRunner]()

func (p *Page[T]) runPage(ctx context.Context, e *Engine, stmt Statement, params Params) error {
	_, err := selectPage(ctx, e, stmt, params, p)
	return err
}
