package formats_test

import (
	"fmt"
	"os"

	"github.com/ajitpratap0/tabula/pkg/ascii"
	"github.com/ajitpratap0/tabula/pkg/columnar"
	"github.com/ajitpratap0/tabula/pkg/formats"
)

func ExampleNewWriter() {
	r, err := ascii.CSV()
	if err != nil {
		panic(err)
	}
	tbl, err := r.ParseString("star,mag\nVega,0.03\nDeneb,\n")
	if err != nil {
		panic(err)
	}
	store, err := columnar.FromTable(tbl, nil)
	if err != nil {
		panic(err)
	}

	w, err := formats.NewWriter(os.Stdout, &formats.WriterConfig{
		Format: formats.JSONL,
		Schema: store.Schema(),
	})
	if err != nil {
		panic(err)
	}
	if err := w.WriteStore(store); err != nil {
		panic(err)
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	fmt.Println(w.RecordsWritten())
	// Output:
	// {"star":"Vega","mag":0.03}
	// {"star":"Deneb","mag":null}
	// 2
}

func ExampleFromPath() {
	for _, p := range []string{"stars.parquet", "stars.arrow", "stars.avro", "stars.jsonl", "stars.csv"} {
		f, ok := formats.FromPath(p)
		fmt.Println(p, f, ok)
	}
	// Output:
	// stars.parquet parquet true
	// stars.arrow arrow true
	// stars.avro avro true
	// stars.jsonl jsonl true
	// stars.csv  false
}
