package client

import (
	"context"

	"github.com/satishbabariya/sqlkit/query/builder"
	"github.com/satishbabariya/sqlkit/query/processor"
)

// Get runs b and maps every row onto a T, which must be a struct. Columns
// match the db tag or the snake_case field name.
func Get[T any](ctx context.Context, b *builder.Builder) ([]T, error) {
	var out []T
	if err := b.Scan(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// First runs b with limit 1 and maps the row onto a T. It returns
// sql.ErrNoRows when nothing matches.
func First[T any](ctx context.Context, b *builder.Builder) (*T, error) {
	row, err := b.First(ctx)
	if err != nil {
		return nil, err
	}
	var out T
	if err := processor.Scan([]map[string]interface{}{row}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
