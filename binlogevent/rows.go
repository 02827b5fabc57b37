package binlogevent

import (
	"github.com/juju/errors"

	"github.com/zhukovaskychina/mysql-binlog-client/cellvalue"
	"github.com/zhukovaskychina/mysql-binlog-client/mysqlproto"
	"github.com/zhukovaskychina/mysql-binlog-client/util"
)

// Row is one row image: Values holds a cellvalue.Value per included column,
// in table-map column order; a skipped (absent from the column bitmap)
// column is represented as a KindNull value.
type Row struct {
	Values []cellvalue.Value
}

// Rows is the common body shape of WRITE_ROWS/UPDATE_ROWS/DELETE_ROWS
// (v2) events. UPDATE rows carry two images per row (before, after);
// WRITE and DELETE carry exactly one.
type Rows struct {
	TableID     uint64
	ColumnCount uint64
	Before      []Row // populated for UPDATE and DELETE
	After       []Row // populated for WRITE and UPDATE
}

// DecodeRows decodes a WRITE_ROWS/UPDATE_ROWS/DELETE_ROWS (v2) event body.
// tm is the TABLE_MAP_EVENT previously cached for this TableID — callers
// must look it up before invoking this function, since a row event never
// repeats its own schema.
func DecodeRows(buf []byte, eventType byte, tm TableMap) (Rows, error) {
	var out Rows
	var c int

	c, out.TableID = util.ReadUB6(buf, c)
	c, _ = util.ReadUB2(buf, c) // flags

	var extraLen uint16
	c, extraLen = util.ReadUB2(buf, c)
	if extraLen < 2 {
		return Rows{}, errors.Errorf("binlogevent: row event extra-info length %d too short", extraLen)
	}
	c, _ = util.ReadBytes(buf, c, int(extraLen)-2)

	var columnCount uint64
	var isNull bool
	var err error
	c, columnCount, isNull, err = util.ReadLength(buf, c)
	if err != nil {
		return Rows{}, errors.Annotate(err, "binlogevent: row event column count")
	}
	if isNull {
		columnCount = 0
	}
	out.ColumnCount = columnCount

	nbits := int((columnCount + 7) / 8)

	var hasBeforeImage, hasAfterImage bool
	var presentBefore, presentAfter []byte
	switch eventType {
	case mysqlproto.EVENT_WRITE_ROWS:
		hasAfterImage = true
		c, presentAfter = util.ReadBytes(buf, c, nbits)
	case mysqlproto.EVENT_UPDATE_ROWS:
		hasBeforeImage, hasAfterImage = true, true
		c, presentBefore = util.ReadBytes(buf, c, nbits)
		c, presentAfter = util.ReadBytes(buf, c, nbits)
	case mysqlproto.EVENT_DELETE_ROWS:
		hasBeforeImage = true
		c, presentBefore = util.ReadBytes(buf, c, nbits)
	default:
		return Rows{}, errors.Errorf("binlogevent: %d is not a row event type", eventType)
	}

	for c < len(buf) {
		if hasBeforeImage {
			var row Row
			c, row, err = decodeRowImage(buf, c, tm, presentBefore)
			if err != nil {
				return Rows{}, err
			}
			out.Before = append(out.Before, row)
		}
		if hasAfterImage {
			var row Row
			c, row, err = decodeRowImage(buf, c, tm, presentAfter)
			if err != nil {
				return Rows{}, err
			}
			out.After = append(out.After, row)
		}
	}
	return out, nil
}

func decodeRowImage(buf []byte, cursor int, tm TableMap, present []byte) (int, Row, error) {
	includedCols := includedColumns(present, len(tm.ColumnTypes))
	nullBytes := (len(includedCols) + 7) / 8
	cursor, nullBitmap := util.ReadBytes(buf, cursor, nullBytes)

	row := Row{Values: make([]cellvalue.Value, len(tm.ColumnTypes))}
	bitIdx := 0
	for _, colIdx := range includedCols {
		isNull := nullBitmap[bitIdx>>3]&(1<<uint(bitIdx&7)) != 0
		bitIdx++
		if isNull {
			row.Values[colIdx] = cellvalue.Value{Kind: cellvalue.KindNull}
			continue
		}
		var v cellvalue.Value
		var err error
		cursor, v, err = cellvalue.Decode(buf, cursor, tm.ColumnTypes[colIdx], tm.ColumnMeta[colIdx])
		if err != nil {
			return 0, Row{}, errors.Annotatef(err, "binlogevent: decode column %d", colIdx)
		}
		row.Values[colIdx] = v
	}
	return cursor, row, nil
}

// includedColumns returns the column indexes set in the column bitmap.
func includedColumns(present []byte, numColumns int) []int {
	var out []int
	for i := 0; i < numColumns; i++ {
		if present[i>>3]&(1<<uint(i&7)) != 0 {
			out = append(out, i)
		}
	}
	return out
}
