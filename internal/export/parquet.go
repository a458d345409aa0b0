package export

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/decimal128"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/apache/arrow/go/v10/parquet"
	"github.com/apache/arrow/go/v10/parquet/compress"
	"github.com/apache/arrow/go/v10/parquet/pqarrow"
)

const parquetRowGroupSize = 64 * 1024

// amendment numbers are decimal(9,1)
var amendmentType = &arrow.Decimal128Type{Precision: 9, Scale: 1}

func arrowType(k kind) arrow.DataType {
	switch k {
	case kindInt:
		return arrow.PrimitiveTypes.Int64
	case kindBool:
		return arrow.FixedWidthTypes.Boolean
	case kindDate:
		return arrow.FixedWidthTypes.Date32
	case kindDecimal:
		return amendmentType
	}
	return arrow.BinaryTypes.String
}

func arrowSchema(header []string, kinds []kind) *arrow.Schema {
	fields := make([]arrow.Field, len(header))
	for i := range header {
		fields[i] = arrow.Field{Name: header[i], Type: arrowType(kinds[i]), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// parquetWriter buffers a table in a record builder and writes it out as one parquet file.
type parquetWriter struct {
	schema  *arrow.Schema
	kinds   []kind
	builder *array.RecordBuilder
}

func newParquetWriter(header []string, kinds []kind) *parquetWriter {
	schema := arrowSchema(header, kinds)
	return &parquetWriter{
		schema:  schema,
		kinds:   kinds,
		builder: array.NewRecordBuilder(memory.NewGoAllocator(), schema),
	}
}

func (w *parquetWriter) append(cells []cell) error {
	for i, c := range cells {
		field := w.builder.Field(i)
		if c.null {
			field.AppendNull()
			continue
		}
		switch b := field.(type) {
		case *array.StringBuilder:
			b.Append(c.str)
		case *array.Int64Builder:
			b.Append(c.integer)
		case *array.BooleanBuilder:
			b.Append(c.boolean)
		case *array.Date32Builder:
			b.Append(arrow.Date32(c.date.Time.Unix() / 86400))
		case *array.Decimal128Builder:
			b.Append(decimal128.FromI64(c.tenths))
		default:
			return fmt.Errorf("unsupported column builder %T", field)
		}
	}
	return nil
}

func (w *parquetWriter) writeTo(out io.Writer) error {
	defer w.builder.Release()
	record := w.builder.NewRecord()
	defer record.Release()

	table := array.NewTableFromRecords(w.schema, []arrow.Record{record})
	defer table.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithDictionaryDefault(true),
	)
	return pqarrow.WriteTable(table, out, parquetRowGroupSize, props, pqarrow.DefaultWriterProps())
}
