package warehouse

import (
	"context"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/nameless-analytics/nameless-tools/internal/page"
)

type DBPool = dbPool

// WithNewPool overrides how the PostgreSQL connection pool is created.
func WithNewPool(newPool func(ctx context.Context, dsn string) (DBPool, error)) Options {
	return func(o *options) {
		o.newPool = newPool
	}
}

// LoadPageRow decodes a BigQuery row the way LookupPage does.
func LoadPageRow(values []bigquery.Value, schema bigquery.Schema) (civil.Date, []page.Attribute, error) {
	var row pageRow
	err := row.Load(values, schema)
	return row.date, row.attrs, err
}

// TablePath exposes the BigQuery table path construction.
func TablePath(project, dataset, table string) (string, error) {
	return tablePath(project, dataset, table)
}
