package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/rnaprep"
	"github.com/carbocation/rnaprep/dgelist"
	"github.com/carbocation/rnaprep/pipeline"
	"github.com/carbocation/rnaprep/tableio"
	"github.com/montanaflynn/stats"
)

func run(ctx context.Context, client *storage.Client, opts options) error {
	counts, err := readCounts(ctx, client, opts.countsPath, rune(opts.inDelim))
	if err != nil {
		return pfx.Err(err)
	}
	nGenes, nSamples := counts.Dims()
	log.Printf("Loaded %s: %d genes x %d samples\n", opts.countsPath, nGenes, nSamples)
	logSummary("Library sizes", counts.ColSums())

	var meta *rnaprep.SampleMetadata
	if opts.metaQuery != "" {
		meta, err = queryMetadata(ctx, opts.bqProject, opts.metaQuery)
		if err != nil {
			return pfx.Err(err)
		}
		log.Printf("Queried %d samples from BigQuery, matching on %s\n", meta.Len(), opts.config.Key)
	} else {
		meta, err = readMetadata(ctx, client, opts.metaPath, rune(opts.inDelim))
		if err != nil {
			return pfx.Err(err)
		}
		log.Printf("Loaded %s: %d samples, matching on %s\n", opts.metaPath, meta.Len(), opts.config.Key)
	}

	result, err := opts.config.Process(counts, meta)
	if err != nil {
		return pfx.Err(err)
	}

	switch result.Kind() {
	case pipeline.KindComposite:
		d, _ := result.Composite()
		samples := d.Samples()
		if err := fillGroups(samples, meta, opts.config.Key, opts.groupCol); err != nil {
			return pfx.Err(err)
		}
		logSummary("Normalization factors ("+string(d.Method())+")", d.NormFactors())
		return emitSamples(ctx, samples, opts)
	default:
		t, _ := result.Table()
		r, c := t.Dims()
		log.Printf("Produced a %d x %d table (method %s, log2 %v, transposed %v)\n", r, c, methodName(opts.config), opts.config.Transform.Log2, opts.config.Transform.Transpose)
		return emitTable(ctx, t, opts)
	}
}

func readCounts(ctx context.Context, client *storage.Client, path string, delim rune) (*rnaprep.CountTable, error) {
	rc, err := tableio.Open(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return tableio.ReadCountTable(rc, delim)
}

func readMetadata(ctx context.Context, client *storage.Client, path string, delim rune) (*rnaprep.SampleMetadata, error) {
	rc, err := tableio.Open(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return tableio.ReadMetadata(rc, delim)
}

func queryMetadata(ctx context.Context, project, sql string) (*rnaprep.SampleMetadata, error) {
	bq, err := tableio.ConnectBigQuery(ctx, project, "")
	if err != nil {
		return nil, err
	}
	defer bq.Close()

	return bq.QueryMetadata(ctx, sql)
}

// fillGroups copies the metadata group column onto the samples. An empty
// column name leaves the groups as they are.
func fillGroups(samples []dgelist.Sample, meta *rnaprep.SampleMetadata, key rnaprep.KeyColumn, column string) error {
	if column == "" {
		return nil
	}

	ids, err := meta.Column(key)
	if err != nil {
		return err
	}
	groups, err := meta.Column(rnaprep.KeyByName(column))
	if err != nil {
		return err
	}

	lookup := make(map[string]string, len(ids))
	for i, id := range ids {
		if _, exists := lookup[id]; !exists {
			lookup[id] = groups[i]
		}
	}

	for i := range samples {
		samples[i].Group = lookup[samples[i].Sample]
	}

	return nil
}

func logSummary(what string, values []float64) {
	data := stats.Float64Data(values)

	min, err := data.Min()
	if err != nil {
		log.Printf("%s: %v\n", what, err)
		return
	}
	median, _ := data.Median()
	max, _ := data.Max()

	log.Printf("%s: min %.4g, median %.4g, max %.4g\n", what, min, median, max)
}

func createOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func emitTable(ctx context.Context, t *rnaprep.CountTable, opts options) error {
	corner := "gene_id"
	if opts.config.Transform.Transpose {
		corner = "sample_id"
	}

	if err := writeFile(opts.outPath, func(w io.Writer) error {
		return tableio.WriteTable(w, t, corner, rune(opts.outDelim))
	}); err != nil {
		return pfx.Err(err)
	}

	if opts.sqlitePath != "" {
		if err := writeSQLiteTable(opts.sqlitePath, opts.sqliteName, t); err != nil {
			return pfx.Err(err)
		}
		log.Println("Wrote", opts.sqliteName, "to", opts.sqlitePath)
	}

	if opts.bqTable != "" {
		bq, err := tableio.ConnectBigQuery(ctx, opts.bqProject, opts.bqDataset)
		if err != nil {
			return pfx.Err(err)
		}
		defer bq.Close()

		if err := bq.PutTable(ctx, opts.bqTable, t); err != nil {
			return pfx.Err(err)
		}
		log.Printf("Streamed %d cells to %s.%s.%s\n", len(tableio.Cells(t)), opts.bqProject, opts.bqDataset, opts.bqTable)
	}

	return nil
}

func emitSamples(ctx context.Context, samples []dgelist.Sample, opts options) error {
	if err := writeFile(opts.outPath, func(w io.Writer) error {
		return tableio.WriteSamples(w, samples, rune(opts.outDelim))
	}); err != nil {
		return pfx.Err(err)
	}

	if opts.sqlitePath != "" {
		if err := writeSQLiteSamples(opts.sqlitePath, opts.sqliteName, samples); err != nil {
			return pfx.Err(err)
		}
		log.Println("Wrote", opts.sqliteName, "to", opts.sqlitePath)
	}

	if opts.bqTable != "" {
		bq, err := tableio.ConnectBigQuery(ctx, opts.bqProject, opts.bqDataset)
		if err != nil {
			return pfx.Err(err)
		}
		defer bq.Close()

		if err := bq.PutSamples(ctx, opts.bqTable, samples); err != nil {
			return pfx.Err(err)
		}
		log.Printf("Streamed %d samples to %s.%s.%s\n", len(samples), opts.bqProject, opts.bqDataset, opts.bqTable)
	}

	return nil
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := createOutput(path)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}

	return nil
}
