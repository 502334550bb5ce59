package api

import (
	"context"
)

type Metadata struct {
	ItemsPerPage int `json:"itemsPerPage"`
	Page         int `json:"page"`
	Total        int `json:"total"`
}

type Paged[T any] struct {
	Metadata Metadata `json:"metadata"`
	Data     []T      `json:"data"`
}

// FetchAllPages drains a paged resource sequentially. Page 1 establishes
// the server-reported total and page size; pages 2..n follow in order, so
// upstream-visible ordering is preserved and the rate limiter is never hit
// by a burst of parallel pages. maxTotal <= 0 means no cap.
func FetchAllPages[T any](ctx context.Context, itemsPerPage, maxTotal int, fetchPage func(ctx context.Context, page, count int) (*Paged[T], error)) ([]T, int, error) {
	first, err := fetchPage(ctx, 1, itemsPerPage)
	if err != nil {
		return nil, 0, err
	}

	total := first.Metadata.Total
	perPage := first.Metadata.ItemsPerPage
	if perPage <= 0 {
		perPage = itemsPerPage
	}

	items := first.Data

	pageCount := (total + perPage - 1) / perPage
	for page := 2; page <= pageCount; page++ {
		if maxTotal > 0 && len(items) >= maxTotal {
			break
		}
		if err := ctx.Err(); err != nil {
			return items, total, ErrCancelled
		}

		next, err := fetchPage(ctx, page, itemsPerPage)
		if err != nil {
			return nil, 0, err
		}
		if len(next.Data) == 0 {
			break
		}

		items = append(items, next.Data...)
	}

	if maxTotal > 0 && len(items) > maxTotal {
		items = items[:maxTotal]
	}

	return items, total, nil
}
