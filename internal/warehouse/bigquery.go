package warehouse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/nameless-analytics/nameless-tools/internal/page"
	"github.com/ubuntu/decorate"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

var (
	projectRE = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.:-]*$`)
	datasetRE = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	tableRE   = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// bigQueryStore is a Store backed by a BigQuery table.
type bigQueryStore struct {
	client *bigquery.Client
	table  string
}

func openBigQuery(ctx context.Context, cfg Config) (s *bigQueryStore, err error) {
	defer decorate.OnError(&err, "could not open BigQuery warehouse")

	table, err := tablePath(cfg.Project, cfg.Dataset, cfg.Table)
	if err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	if cfg.Credentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Credentials))
	}

	client, err := bigquery.NewClient(ctx, cfg.Project, opts...)
	if err != nil {
		return nil, err
	}

	return &bigQueryStore{client: client, table: table}, nil
}

// tablePath returns the quoted table path used in queries.
// Identifiers cannot be query parameters, so they are restricted to a safe alphabet instead.
func tablePath(project, dataset, table string) (string, error) {
	switch {
	case !projectRE.MatchString(project):
		return "", fmt.Errorf("invalid project id %q", project)
	case !datasetRE.MatchString(dataset):
		return "", fmt.Errorf("invalid dataset id %q", dataset)
	case !tableRE.MatchString(table):
		return "", fmt.Errorf("invalid table id %q", table)
	}
	return fmt.Sprintf("`%s.%s.%s`", project, dataset, table), nil
}

// LookupPage returns the first row stored for pageID.
func (s *bigQueryStore) LookupPage(ctx context.Context, pageID string) (r page.Record, err error) {
	defer decorate.OnError(&err, "BigQuery page lookup failed")

	q := s.client.Query(fmt.Sprintf(`SELECT page_date, page_data FROM %s WHERE page_id = @page_id LIMIT 1`, s.table))
	q.Parameters = []bigquery.QueryParameter{{Name: "page_id", Value: pageID}}

	slog.Debug("Querying BigQuery for page", "table", s.table, "page_id", pageID)
	it, err := q.Read(ctx)
	if err != nil {
		return page.Record{}, err
	}

	var row pageRow
	if err := it.Next(&row); err != nil {
		if errors.Is(err, iterator.Done) {
			return page.Record{}, ErrPageNotFound
		}
		return page.Record{}, err
	}

	return page.Record{ID: pageID, Date: row.date, Attributes: row.attrs}, nil
}

// DeleteClient deletes the rows of clientID and waits for the job to complete.
func (s *bigQueryStore) DeleteClient(ctx context.Context, clientID string) (n int64, err error) {
	defer decorate.OnError(&err, "BigQuery delete failed")

	q := s.client.Query(fmt.Sprintf(`DELETE FROM %s WHERE client_id = @client_id`, s.table))
	q.Parameters = []bigquery.QueryParameter{{Name: "client_id", Value: clientID}}

	job, err := q.Run(ctx)
	if err != nil {
		return 0, err
	}
	slog.Debug("Waiting for BigQuery delete job", "job", job.ID())

	status, err := job.Wait(ctx)
	if err != nil {
		return 0, err
	}
	if err := status.Err(); err != nil {
		return 0, err
	}

	if status.Statistics == nil {
		return UnknownRows, nil
	}
	if stats, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		return stats.NumDMLAffectedRows, nil
	}
	return UnknownRows, nil
}

// Close closes the BigQuery client.
func (s *bigQueryStore) Close() error {
	return s.client.Close()
}

// pageRow decodes the page_date and page_data columns of a BigQuery row.
type pageRow struct {
	date  civil.Date
	attrs []page.Attribute
}

// Load implements bigquery.ValueLoader.
func (p *pageRow) Load(values []bigquery.Value, schema bigquery.Schema) (err error) {
	for i, f := range schema {
		if i >= len(values) {
			break
		}

		switch f.Name {
		case "page_date":
			p.date, err = toDate(values[i])
		case "page_data":
			p.attrs, err = toAttributes(values[i], f.Schema)
		}
		if err != nil {
			return fmt.Errorf("invalid %s column: %v", f.Name, err)
		}
	}
	return nil
}

func toDate(v bigquery.Value) (civil.Date, error) {
	switch d := v.(type) {
	case nil:
		return civil.Date{}, nil
	case civil.Date:
		return d, nil
	case time.Time:
		return civil.DateOf(d), nil
	case string:
		return civil.ParseDate(d)
	default:
		return civil.Date{}, fmt.Errorf("unexpected type %T", v)
	}
}

func toAttributes(v bigquery.Value, schema bigquery.Schema) ([]page.Attribute, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]bigquery.Value)
	if !ok {
		return nil, fmt.Errorf("expected a repeated record, got %T", v)
	}

	attrs := make([]page.Attribute, 0, len(items))
	for _, item := range items {
		fields, ok := item.([]bigquery.Value)
		if !ok {
			return nil, fmt.Errorf("expected a record, got %T", item)
		}

		var a page.Attribute
		for i, f := range schema {
			if i >= len(fields) {
				break
			}
			switch f.Name {
			case "name":
				a.Name, _ = fields[i].(string)
			case "value":
				a.Value = toUnion(fields[i], f.Schema).Resolve()
			}
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

func toUnion(v bigquery.Value, schema bigquery.Schema) page.Union {
	var u page.Union
	fields, ok := v.([]bigquery.Value)
	if !ok {
		return u
	}

	for i, f := range schema {
		if i >= len(fields) || fields[i] == nil {
			continue
		}
		switch f.Name {
		case "string":
			if s, ok := fields[i].(string); ok {
				u.String = &s
			}
		case "int":
			if n, ok := fields[i].(int64); ok {
				u.Int = &n
			}
		case "float":
			if n, ok := fields[i].(float64); ok {
				u.Float = &n
			}
		case "json":
			u.JSON = toJSON(fields[i])
		case "bool":
			if b, ok := fields[i].(bool); ok {
				u.Bool = &b
			}
		}
	}
	return u
}

// toJSON decodes JSON columns, which the client returns as text.
func toJSON(v bigquery.Value) any {
	s, ok := v.(string)
	if !ok {
		return v
	}

	var doc any
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		slog.Debug("Keeping undecodable JSON attribute as text", "error", err)
		return s
	}
	return doc
}
