package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	parquet "github.com/parquet-go/parquet-go"

	"github.com/razeghi71/esqlchain/table"
)

const parquetBatchSize = 128

func loadParquet(filename string) (*table.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat %s: %w", filename, err)
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("cannot read Parquet file %s: %w", filename, err)
	}

	r := parquet.NewReader(pf)
	defer r.Close()

	// leaf columns, named by their dotted path
	schema := r.Schema()
	paths := schema.Columns()
	b := newBuilder()
	for _, path := range paths {
		typ := ""
		if leaf, ok := schema.Lookup(path...); ok {
			typ = parquetTypes[leaf.Node.Type().Kind()]
		}
		b.column(strings.Join(path, "."), typ)
	}

	rows := make([]parquet.Row, parquetBatchSize)
	for {
		n, err := r.ReadRows(rows)
		for _, row := range rows[:n] {
			b.newRow()
			for i, v := range parquetRow(row, len(paths)) {
				b.set(i, v)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading Parquet rows from %s: %w", filename, err)
		}
		if n == 0 {
			break
		}
	}
	return b.build(), nil
}

// parquetTypes maps physical column types to ES|QL types. INT96 timestamps
// are left to be inferred.
var parquetTypes = map[parquet.Kind]string{
	parquet.Boolean:           "boolean",
	parquet.Int32:             "integer",
	parquet.Int64:             "long",
	parquet.Float:             "double",
	parquet.Double:            "double",
	parquet.ByteArray:         "keyword",
	parquet.FixedLenByteArray: "keyword",
}

// parquetRow groups the values of a row by column. A repeated column holds
// several values and becomes a list.
func parquetRow(row parquet.Row, width int) []table.Value {
	elems := make([][]table.Value, width)
	for _, v := range row {
		col := v.Column()
		if col < 0 || col >= width || v.IsNull() {
			continue
		}
		elems[col] = append(elems[col], parquetValue(v))
	}
	vals := make([]table.Value, width)
	for i, e := range elems {
		vals[i] = table.ListVal(e)
	}
	return vals
}

func parquetValue(v parquet.Value) table.Value {
	switch v.Kind() {
	case parquet.Boolean:
		return table.BoolVal(v.Boolean())
	case parquet.Int32:
		return table.IntVal(int64(v.Int32()))
	case parquet.Int64:
		return table.IntVal(v.Int64())
	case parquet.Float:
		return table.FloatVal(float64(v.Float()))
	case parquet.Double:
		return table.FloatVal(v.Double())
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return table.StrVal(string(v.ByteArray()))
	default:
		return table.StrVal(v.String())
	}
}
