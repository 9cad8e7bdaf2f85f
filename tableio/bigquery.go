package tableio

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/carbocation/rnaprep"
	"github.com/carbocation/rnaprep/dgelist"
	"google.golang.org/api/iterator"
)

// insertBatch caps the number of rows sent per streaming insert request.
const insertBatch = 5000

// WrappedBigQuery is a client bound to one project and dataset.
type WrappedBigQuery struct {
	Client   *bigquery.Client
	Project  string
	Database string
}

func ConnectBigQuery(ctx context.Context, project, dataset string) (*WrappedBigQuery, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("connecting to BigQuery: %w", err)
	}

	return &WrappedBigQuery{
		Client:   client,
		Project:  project,
		Database: dataset,
	}, nil
}

func (bq *WrappedBigQuery) Close() error {
	return bq.Client.Close()
}

// PutTable streams the cells of t into the named table, creating it from the
// Cell schema if it does not exist.
func (bq *WrappedBigQuery) PutTable(ctx context.Context, name string, t *rnaprep.CountTable) error {
	table, err := bq.ensureTable(ctx, name, Cell{})
	if err != nil {
		return err
	}

	cells := Cells(t)
	for start := 0; start < len(cells); start += insertBatch {
		end := start + insertBatch
		if end > len(cells) {
			end = len(cells)
		}
		if err := table.Inserter().Put(ctx, cells[start:end]); err != nil {
			return fmt.Errorf("inserting rows %d-%d into %s: %w", start, end, name, err)
		}
	}

	return nil
}

// PutSamples streams per-library summaries into the named table.
func (bq *WrappedBigQuery) PutSamples(ctx context.Context, name string, samples []dgelist.Sample) error {
	table, err := bq.ensureTable(ctx, name, dgelist.Sample{})
	if err != nil {
		return err
	}

	return table.Inserter().Put(ctx, samples)
}

func (bq *WrappedBigQuery) ensureTable(ctx context.Context, name string, row interface{}) (*bigquery.Table, error) {
	table := bq.Client.Dataset(bq.Database).Table(name)

	if _, err := table.Metadata(ctx); err == nil {
		return table, nil
	}

	schema, err := bigquery.InferSchema(row)
	if err != nil {
		return nil, err
	}
	if err := table.Create(ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
		return nil, fmt.Errorf("creating %s.%s.%s: %w", bq.Project, bq.Database, name, err)
	}

	return table, nil
}

// QueryMetadata runs sql and returns its result as sample metadata. Column
// names come from the result schema; NULL values become empty strings.
func (bq *WrappedBigQuery) QueryMetadata(ctx context.Context, sql string) (*rnaprep.SampleMetadata, error) {
	itr, err := bq.Client.Query(sql).Read(ctx)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for {
		var values []bigquery.Value

		err := itr.Next(&values)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, valueStrings(values))
	}

	header := make([]string, len(itr.Schema))
	for i, field := range itr.Schema {
		header[i] = field.Name
	}

	return rnaprep.NewSampleMetadata(header, rows)
}

func valueStrings(values []bigquery.Value) []string {
	out := make([]string, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}
