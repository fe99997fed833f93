// Package loader reads sample data files into tables whose columns carry a
// declared ES|QL type.
package loader

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	goavro "github.com/linkedin/goavro/v2"

	"github.com/razeghi71/esqlchain/table"
)

var formats = map[string]func(string) (*table.Table, error){
	".csv":     loadCSV,
	".json":    loadJSON,
	".jsonl":   loadJSONL,
	".avro":    loadAvro,
	".parquet": loadParquet,
}

// Load reads a file and returns a Table. The format is chosen by extension.
// Avro and Parquet columns take their type from the file's schema; CSV and
// JSON columns take the narrowest type that holds every value.
func Load(filename string) (*table.Table, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	load, ok := formats[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file format %q (supported: .csv, .json, .jsonl, .avro, .parquet)", ext)
	}
	return load(filename)
}

// builder collects rows and a type per column. Columns declared with a
// schema type keep it; the others widen as values arrive.
type builder struct {
	columns []string
	index   map[string]int
	types   []string
	fixed   []bool
	rows    [][]table.Value
}

func newBuilder() *builder {
	return &builder{index: make(map[string]int)}
}

// column returns the index of name, adding it with the given type if it is
// new. An empty type is inferred from the values.
func (b *builder) column(name, typ string) int {
	if i, ok := b.index[name]; ok {
		return i
	}
	b.index[name] = len(b.columns)
	b.columns = append(b.columns, name)
	b.types = append(b.types, typ)
	b.fixed = append(b.fixed, typ != "")
	return len(b.columns) - 1
}

// set stores v in the last row.
func (b *builder) set(col int, v table.Value) {
	row := b.rows[len(b.rows)-1]
	for len(row) <= col {
		row = append(row, table.Null())
	}
	row[col] = v
	b.rows[len(b.rows)-1] = row
	if !b.fixed[col] {
		b.types[col] = table.WidenType(b.types[col], table.TypeOf(v))
	}
}

func (b *builder) newRow() {
	b.rows = append(b.rows, make([]table.Value, 0, len(b.columns)))
}

func (b *builder) build() *table.Table {
	t := table.NewTable(b.columns)
	for _, row := range b.rows {
		for len(row) < len(b.columns) {
			row = append(row, table.Null())
		}
		t.AddRow(row)
	}
	for i, col := range b.columns {
		if b.types[i] != "" {
			t.Declare(col, b.types[i])
		}
	}
	return t
}

func loadCSV(filename string) (*table.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("cannot read CSV header from %s: %w", filename, err)
	}

	b := newBuilder()
	for _, h := range header {
		b.column(strings.TrimSpace(h), "")
	}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", filename, line, err)
		}
		b.newRow()
		for i := range header {
			cell := ""
			if i < len(record) {
				cell = record[i]
			}
			b.set(i, csvValue(strings.TrimSpace(cell)))
		}
	}
	return b.build(), nil
}

// csvValue reads a cell as the narrowest of long, double, boolean and
// string. Empty cells and "null" are null.
func csvValue(s string) table.Value {
	if s == "" || strings.EqualFold(s, "null") {
		return table.Null()
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return table.IntVal(v)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return table.FloatVal(v)
	}
	if v, err := strconv.ParseBool(strings.ToLower(s)); err == nil && len(s) > 1 {
		return table.BoolVal(v)
	}
	return table.StrVal(s)
}

func loadJSON(filename string) (*table.Table, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", filename, err)
	}
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("cannot parse JSON from %s: %w (expected array of objects)", filename, err)
	}

	b := newBuilder()
	for _, rec := range records {
		addRecord(b, rec)
	}
	return b.build(), nil
}

func loadJSONL(filename string) (*table.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()

	b := newBuilder()
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("invalid JSON on line %d: %w", line, err)
		}
		addRecord(b, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", filename, err)
	}
	return b.build(), nil
}

// addRecord appends a JSON object as a row. Fields seen for the first time
// become columns in name order.
func addRecord(b *builder, rec map[string]any) {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.newRow()
	for _, k := range keys {
		b.set(b.column(k, ""), jsonValue(rec[k]))
	}
}

func jsonValue(v any) table.Value {
	switch val := v.(type) {
	case nil:
		return table.Null()
	case float64:
		if val == float64(int64(val)) {
			return table.IntVal(int64(val))
		}
		return table.FloatVal(val)
	case string:
		return table.StrVal(val)
	case bool:
		return table.BoolVal(val)
	case []any:
		elems := make([]table.Value, 0, len(val))
		for _, e := range val {
			if e != nil {
				elems = append(elems, jsonValue(e))
			}
		}
		return table.ListVal(elems)
	}
	// nested objects are kept as their JSON text
	text, _ := json.Marshal(v)
	return table.StrVal(string(text))
}

func loadAvro(filename string) (*table.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()

	ocfr, err := goavro.NewOCFReader(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read Avro OCF from %s: %w", filename, err)
	}
	var schema struct {
		Fields []struct {
			Name string `json:"name"`
			Type any    `json:"type"`
		} `json:"fields"`
	}
	if err := json.Unmarshal([]byte(ocfr.Codec().Schema()), &schema); err != nil {
		return nil, fmt.Errorf("cannot parse Avro schema: %w", err)
	}

	b := newBuilder()
	for _, field := range schema.Fields {
		b.column(field.Name, avroType(field.Type))
	}
	for ocfr.Scan() {
		datum, err := ocfr.Read()
		if err != nil {
			return nil, fmt.Errorf("error reading Avro record: %w", err)
		}
		rec, ok := datum.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unexpected Avro record type %T", datum)
		}
		b.newRow()
		for i, field := range schema.Fields {
			b.set(i, avroValue(rec[field.Name]))
		}
	}
	if err := ocfr.Err(); err != nil {
		return nil, fmt.Errorf("error reading Avro file: %w", err)
	}
	return b.build(), nil
}

var avroPrimitives = map[string]string{
	"int":     "integer",
	"long":    "long",
	"float":   "double",
	"double":  "double",
	"boolean": "boolean",
	"string":  "keyword",
	"bytes":   "keyword",
	"enum":    "keyword",
	"fixed":   "keyword",
}

var avroTimestamps = map[string]bool{
	"date":             true,
	"timestamp-millis": true,
	"timestamp-micros": true,
}

// avroType maps an Avro field type to an ES|QL type. Arrays take their item
// type and nullable unions their other branch. Anything else is left to be
// inferred.
func avroType(t any) string {
	switch t := t.(type) {
	case string:
		return avroPrimitives[t]
	case []any:
		var branches []any
		for _, branch := range t {
			if branch != "null" {
				branches = append(branches, branch)
			}
		}
		if len(branches) == 1 {
			return avroType(branches[0])
		}
	case map[string]any:
		if logical, ok := t["logicalType"].(string); ok {
			if avroTimestamps[logical] {
				return "date"
			}
			return ""
		}
		if t["type"] == "array" {
			return avroType(t["items"])
		}
		return avroType(t["type"])
	}
	return ""
}

func avroValue(v any) table.Value {
	switch val := v.(type) {
	case nil:
		return table.Null()
	case int32:
		return table.IntVal(int64(val))
	case int64:
		return table.IntVal(val)
	case float32:
		return table.FloatVal(float64(val))
	case float64:
		return table.FloatVal(val)
	case string:
		return table.StrVal(val)
	case bool:
		return table.BoolVal(val)
	case []byte:
		return table.StrVal(string(val))
	case time.Time:
		return table.StrVal(val.UTC().Format(time.RFC3339Nano))
	case []any:
		elems := make([]table.Value, 0, len(val))
		for _, e := range val {
			if e != nil {
				elems = append(elems, avroValue(e))
			}
		}
		return table.ListVal(elems)
	case map[string]any:
		// unions decode as {"branch": value}
		for _, inner := range val {
			return avroValue(inner)
		}
		return table.Null()
	}
	return table.StrVal(fmt.Sprintf("%v", v))
}
