// countprep filters, normalizes and transforms an RNA-seq count table against
// a sample metadata sheet, writing the result as a delimited file and
// optionally into SQLite or BigQuery.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/rnaprep"
	"github.com/carbocation/rnaprep/compileinfo"
	"github.com/carbocation/rnaprep/dgelist"
	"github.com/carbocation/rnaprep/pipeline"
)

type options struct {
	countsPath string
	metaPath   string
	metaQuery  string
	inDelim    delimFlag
	outDelim   delimFlag
	outPath    string
	groupCol   string

	sqlitePath string
	sqliteName string

	bqProject string
	bqDataset string
	bqTable   string

	config pipeline.Config
}

func main() {
	compileinfo.Fprint(os.Stderr)

	var (
		opts             options
		keyName          string
		keyIdx           int
		minCount, minCPM nullFloatFlag
	)

	def := pipeline.Default()

	flag.StringVar(&opts.countsPath, "counts", "", "Path to a genes x samples count table. Local paths and gs:// URLs are accepted, optionally compressed.")
	flag.StringVar(&opts.metaPath, "meta", "", "Path to the sample metadata table, with a header row.")
	flag.StringVar(&opts.metaQuery, "meta-query", "", "BigQuery SQL whose result is the sample metadata. Used instead of -meta; requires -bq-project.")
	flag.Var(&opts.inDelim, "delim", "Delimiter of the input tables ('tab', 'comma' or a single character). Detected from the data if omitted.")
	flag.StringVar(&keyName, "key", rnaprep.DefaultKeyName, "Metadata column holding the sample identifiers.")
	flag.IntVar(&keyIdx, "keyidx", -1, "0-based metadata column index holding the sample identifiers. Overrides -key if set.")
	flag.StringVar(&opts.groupCol, "group", "", "Metadata column holding the sample group, reported with -composite. (Optional.)")
	flag.Var(&minCount, "mincount", "Minimum raw count for a gene to count as expressed in a library. (Optional.)")
	flag.Var(&minCPM, "mincpm", "Minimum counts per million for a gene to count as expressed in a library. (Optional.)")
	flag.Float64Var(&opts.config.Filter.MinLibsFraction, "minlibs", def.Filter.MinLibsFraction, "Fraction of libraries in which a gene must be expressed to be kept.")
	flag.BoolVar(&opts.config.Normalize.Normalize, "normalize", def.Normalize.Normalize, "Compute normalization factors and emit normalized counts per million.")
	flag.StringVar(&opts.config.Normalize.Method, "method", def.Normalize.Method, "Normalization method: TMM, TMMwsp, RLE, upperquartile or none.")
	flag.BoolVar(&opts.config.Normalize.Options.RemoveZeros, "removezeros", false, "Drop genes with a zero count in every library before normalizing.")
	flag.BoolVar(&opts.config.Transform.Log2, "log2", false, "Emit log2(x+1).")
	flag.BoolVar(&opts.config.Transform.Transpose, "transpose", false, "Emit samples as rows and genes as columns.")
	flag.BoolVar(&opts.config.Transform.ReturnComposite, "composite", false, "Emit per-sample library sizes and normalization factors instead of a table.")
	flag.StringVar(&opts.outPath, "out", "", "Output path. Defaults to stdout.")
	flag.Var(&opts.outDelim, "outdelim", "Delimiter of the output ('tab', 'comma' or a single character). Defaults to tab.")
	flag.StringVar(&opts.sqlitePath, "sqlite", "", "Also write the output, in long format, to this SQLite file. (Optional.)")
	flag.StringVar(&opts.sqliteName, "sqlite-table", "counts", "Table name used with -sqlite.")
	flag.StringVar(&opts.bqProject, "bq-project", "", "BigQuery project used by -meta-query and -bq-table.")
	flag.StringVar(&opts.bqDataset, "bq-dataset", "", "BigQuery dataset used with -bq-table.")
	flag.StringVar(&opts.bqTable, "bq-table", "", "Also stream the output, in long format, to this BigQuery table. (Optional.)")
	flag.Parse()

	if opts.countsPath == "" {
		log.Fatalln("Please provide -counts")
	}

	if (opts.metaPath == "") == (opts.metaQuery == "") {
		log.Fatalln("Please provide one of -meta or -meta-query")
	}

	if opts.metaQuery != "" && opts.bqProject == "" {
		log.Fatalln("Please provide -bq-project with -meta-query")
	}

	if opts.bqTable != "" && (opts.bqProject == "" || opts.bqDataset == "") {
		log.Fatalln("Please provide -bq-project and -bq-dataset with -bq-table")
	}

	opts.config.Key = rnaprep.KeyByName(keyName)
	if keyIdx >= 0 {
		opts.config.Key = rnaprep.KeyByIndex(keyIdx)
	}
	opts.config.Filter.MinCount = minCount.Float
	opts.config.Filter.MinCPM = minCPM.Float

	if opts.outDelim == 0 {
		opts.outDelim = '\t'
	}

	// Initialize the Google Storage client only if we're pointing to Google
	// Storage paths.
	ctx := context.Background()
	var client *storage.Client
	if strings.HasPrefix(opts.countsPath, "gs://") || strings.HasPrefix(opts.metaPath, "gs://") {
		var err error
		client, err = storage.NewClient(ctx)
		if err != nil {
			log.Fatalln(err)
		}
		defer client.Close()
	}

	log.Println("Launched countprep")

	if err := run(ctx, client, opts); err != nil {
		log.Fatalln(err)
	}
}

func methodName(c pipeline.Config) string {
	if !c.Normalize.Normalize {
		return string(dgelist.None)
	}
	return c.Normalize.Method
}
