/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// PageRequest describes pagination, an optional filter, joins and ordering.
type PageRequest struct {
	page     int
	pageSize int
	where    Where
	joins    []Join
	orders   []Order
}

// GetPageSize returns the page size, falling back to DefaultPageSize.
func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		p.pageSize = DefaultPageSize
	}
	return p.pageSize
}

// GetPage returns the 1-based page number, falling back to DefaultPage.
func (p *PageRequest) GetPage() int {
	if p.page < 1 {
		p.page = DefaultPage
	}
	return p.page
}

func (p *PageRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

func (p *PageRequest) GetWhere() Where {
	return p.where
}

func (p *PageRequest) GetJoins() []Join {
	return p.joins
}

func (p *PageRequest) GetOrders() []Order {
	return p.orders
}

// ListOptions converts the request into list options for the current page.
func (p *PageRequest) ListOptions() *ListOptions {
	return &ListOptions{
		Where:   p.where,
		Joins:   p.joins,
		OrderBy: p.orders,
		Offset:  p.GetOffset(),
		Limit:   p.GetPageSize(),
	}
}

// NewPageRequest constructs a PageRequest with filter and order settings.
func NewPageRequest(page int, pageSize int, where Where, orders []Order, joins ...Join) *PageRequest {
	return &PageRequest{page: page, pageSize: pageSize, where: where, joins: joins, orders: orders}
}

// NewPageRequestWithWhere constructs a PageRequest with a filter only.
func NewPageRequestWithWhere(page int, pageSize int, where Where) *PageRequest {
	return NewPageRequest(page, pageSize, where, nil)
}

// NewPageRequestWithOrders constructs a PageRequest with ordering only.
func NewPageRequestWithOrders(page int, pageSize int, orders ...Order) *PageRequest {
	return NewPageRequest(page, pageSize, nil, orders)
}

// NewDefaultPageRequest constructs a PageRequest with no filter or ordering.
func NewDefaultPageRequest(page int, pageSize int) *PageRequest {
	return NewPageRequest(page, pageSize, nil, nil)
}

// Pagination holds paged result items along with pagination metadata.
type Pagination[T any] struct {
	Page     int
	PageSize int
	Total    int
	Items    []*T
}

// NewDefaultPagination constructs an empty pagination container.
func NewDefaultPagination[T any](page int, pageSize int) *Pagination[T] {
	return &Pagination[T]{page, pageSize, 0, make([]*T, 0)}
}

// Pages returns the number of pages needed for Total items.
func (p *Pagination[T]) Pages() int {
	if p.PageSize < 1 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}
