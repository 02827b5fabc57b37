// Package cellvalue decodes a single row-event column value given its
// binlog column type code and table-map metadata, producing a Go-native
// value for the change-record cell.
package cellvalue

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/zhukovaskychina/mysql-binlog-client/mysqlproto"
	"github.com/zhukovaskychina/mysql-binlog-client/util"
)

// Kind tags which arm of Value is populated.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindUint
	KindFloat
	KindString
	KindBytes
	KindDecimal
	KindDatetime
	KindDate
	KindTime
)

// Value is a tagged-union cell value. Exactly one field is meaningful per
// Kind: Int for signed integers, Uint for unsigned, Float for
// FLOAT/DOUBLE, Str for VARCHAR/STRING, DECIMAL text and temporal text
// forms, Bytes for BLOB, JSON (its undecoded binary form), the raw
// ENUM/SET bytes, and any type this decoder does not specialize.
type Value struct {
	Kind  Kind
	Int   int64
	Uint  uint64
	Float float64
	Str   string
	Bytes []byte
}

func null() Value  { return Value{Kind: KindNull} }
func i(v int64) Value { return Value{Kind: KindInt, Int: v} }
func u(v uint64) Value { return Value{Kind: KindUint, Uint: v} }
func f(v float64) Value { return Value{Kind: KindFloat, Float: v} }
func s(v string) Value { return Value{Kind: KindString, Str: v} }
func b(v []byte) Value { return Value{Kind: KindBytes, Bytes: v} }

// Decode reads one column value from buf at cursor, dispatching on the
// column's binlog type code and table-map metadata. It returns the
// advanced cursor and the decoded Value. Unknown (type, meta) pairs fall
// back to a raw Bytes value spanning the rest of buf, per the source's
// documented fallback for unrecognized wire shapes.
func Decode(buf []byte, cursor int, colType byte, meta uint16) (int, Value, error) {
	switch colType {
	case mysqlproto.COLUMN_TYPE_TINY:
		c, v := util.ReadByte(buf, cursor)
		return c, i(int64(int8(v))), nil

	case mysqlproto.COLUMN_TYPE_SHORT:
		c, v := util.ReadUB2(buf, cursor)
		return c, i(int64(int16(v))), nil

	case mysqlproto.COLUMN_TYPE_INT24:
		c, v := util.ReadUB3(buf, cursor)
		// sign-extend a 24-bit two's complement value
		if v&0x800000 != 0 {
			v |= 0xFF000000
		}
		return c, i(int64(int32(v))), nil

	case mysqlproto.COLUMN_TYPE_LONG:
		c, v := util.ReadUB4(buf, cursor)
		return c, i(int64(int32(v))), nil

	case mysqlproto.COLUMN_TYPE_LONGLONG:
		c, v := util.ReadUB8(buf, cursor)
		return c, i(int64(v)), nil

	case mysqlproto.COLUMN_TYPE_YEAR:
		c, v := util.ReadByte(buf, cursor)
		year := int64(0)
		if v != 0 {
			year = 1900 + int64(v)
		}
		return c, i(year), nil

	case mysqlproto.COLUMN_TYPE_FLOAT:
		c, v := util.ReadUB4(buf, cursor)
		return c, f(float64(math.Float32frombits(v))), nil

	case mysqlproto.COLUMN_TYPE_DOUBLE:
		c, v := util.ReadUB8(buf, cursor)
		return c, f(math.Float64frombits(v)), nil

	case mysqlproto.COLUMN_TYPE_VARCHAR, mysqlproto.COLUMN_TYPE_VAR_STRING:
		return decodeVariableString(buf, cursor, meta)

	case mysqlproto.COLUMN_TYPE_STRING, mysqlproto.COLUMN_TYPE_ENUM, mysqlproto.COLUMN_TYPE_SET:
		return decodeStringFamily(buf, cursor, meta)

	case mysqlproto.COLUMN_TYPE_BLOB, mysqlproto.COLUMN_TYPE_TINY_BLOB,
		mysqlproto.COLUMN_TYPE_MEDIUM_BLOB, mysqlproto.COLUMN_TYPE_LONG_BLOB,
		mysqlproto.COLUMN_TYPE_JSON, mysqlproto.COLUMN_TYPE_GEOMETRY:
		return decodeBlob(buf, cursor, meta)

	case mysqlproto.COLUMN_TYPE_NEWDECIMAL:
		return decodeNewDecimal(buf, cursor, meta)

	case mysqlproto.COLUMN_TYPE_BIT:
		return decodeBit(buf, cursor, meta)

	case mysqlproto.COLUMN_TYPE_DATE:
		return decodeDate(buf, cursor)

	case mysqlproto.COLUMN_TYPE_TIME:
		return decodeTime(buf, cursor)

	case mysqlproto.COLUMN_TYPE_DATETIME:
		return decodeDatetime(buf, cursor)

	case mysqlproto.COLUMN_TYPE_TIMESTAMP:
		c, v := util.ReadUB4(buf, cursor)
		return c, i(int64(v)), nil

	case mysqlproto.COLUMN_TYPE_TIME_V2:
		return decodeTimeV2(buf, cursor, meta)

	case mysqlproto.COLUMN_TYPE_DATETIME_V2:
		return decodeDatetimeV2(buf, cursor, meta)

	case mysqlproto.COLUMN_TYPE_TIMESTAMP_V2:
		return decodeTimestampV2(buf, cursor, meta)

	case mysqlproto.COLUMN_TYPE_NULL:
		return cursor, null(), nil

	default:
		// Unrecognized (type, meta): surface the remaining bytes raw
		// rather than guess a width and risk desynchronizing the cursor
		// for every subsequent column in the row.
		c, raw := util.ReadBytes(buf, cursor, len(buf)-cursor)
		return c, b(raw), nil
	}
}

func decodeVariableString(buf []byte, cursor int, meta uint16) (int, Value, error) {
	var length int
	var c int
	if meta > 255 {
		c2, l := util.ReadUB2(buf, cursor)
		c, length = c2, int(l)
	} else {
		c2, l := util.ReadByte(buf, cursor)
		c, length = c2, int(l)
	}
	c, raw := util.ReadBytes(buf, c, length)
	return c, s(string(raw)), nil
}

func decodeStringFamily(buf []byte, cursor int, meta uint16) (int, Value, error) {
	// meta packs real_type in the high byte, and the real length metadata
	// in the low byte, per the table-map event's ENUM/SET/STRING encoding.
	// A CHAR column longer than 255 bytes carries bits 8-9 of its length,
	// inverted, in bits 4-5 of real_type.
	realType := byte(meta >> 8)
	maxLen := meta & 0xFF
	if realType&0x30 != 0x30 {
		maxLen |= uint16((realType&0x30)^0x30) << 4
		realType |= 0x30
	}
	if realType == mysqlproto.COLUMN_TYPE_ENUM || realType == mysqlproto.COLUMN_TYPE_SET {
		c, raw := util.ReadBytes(buf, cursor, int(maxLen))
		return c, b(raw), nil
	}
	// maxLen is the column's real max length; decodeVariableString sizes
	// the on-wire length prefix from it directly (>255 ⇒ 2 bytes).
	return decodeVariableString(buf, cursor, maxLen)
}

func decodeBlob(buf []byte, cursor int, meta uint16) (int, Value, error) {
	lengthBytes := int(meta)
	if lengthBytes <= 0 || lengthBytes > 4 {
		lengthBytes = 2
	}
	var length uint64
	c := cursor
	switch lengthBytes {
	case 1:
		c2, v := util.ReadByte(buf, c)
		c, length = c2, uint64(v)
	case 2:
		c2, v := util.ReadUB2(buf, c)
		c, length = c2, uint64(v)
	case 3:
		c2, v := util.ReadUB3(buf, c)
		c, length = c2, uint64(v)
	case 4:
		c2, v := util.ReadUB4(buf, c)
		c, length = c2, uint64(v)
	}
	c, raw := util.ReadBytes(buf, c, int(length))
	return c, b(raw), nil
}

// decodeNewDecimal decodes the MySQL DECIMAL binary format: a sequence of
// 9-digit base-10^9 "digit groups", sign-flipped via the leading byte's
// high bit for negative values, per
// https://dev.mysql.com/doc/internals/en/binary-protocol-value.html and
// the mysql server's my_decimal.cc packing rules.
func decodeNewDecimal(buf []byte, cursor int, meta uint16) (int, Value, error) {
	precision := int(meta >> 8)
	scale := int(meta & 0xFF)

	intDigits := precision - scale
	intFull := intDigits / 9
	intPart := intDigits % 9
	fracFull := scale / 9
	fracPart := scale % 9

	digitBytes := [10]int{0, 1, 1, 2, 2, 3, 3, 4, 4, 4}

	size := intFull*4 + digitBytes[intPart] + fracFull*4 + digitBytes[fracPart]
	raw := make([]byte, size)
	c, tmp := util.ReadBytes(buf, cursor, size)
	copy(raw, tmp)

	positive := raw[0]&0x80 != 0
	raw[0] ^= 0x80
	if !positive {
		for i := range raw {
			raw[i] = ^raw[i]
		}
	}

	var out []byte
	pos := 0

	readBytes := func(n int) uint32 {
		var v uint32
		for k := 0; k < n; k++ {
			v = v<<8 | uint32(raw[pos+k])
		}
		pos += n
		return v
	}

	if digitBytes[intPart] > 0 {
		v := readBytes(digitBytes[intPart])
		out = append(out, []byte(fmt.Sprintf("%d", v))...)
	}
	for k := 0; k < intFull; k++ {
		v := readBytes(4)
		out = append(out, []byte(fmt.Sprintf("%09d", v))...)
	}
	if scale > 0 {
		out = append(out, '.')
	}
	for k := 0; k < fracFull; k++ {
		v := readBytes(4)
		out = append(out, []byte(fmt.Sprintf("%09d", v))...)
	}
	if digitBytes[fracPart] > 0 {
		v := readBytes(digitBytes[fracPart])
		out = append(out, []byte(fmt.Sprintf("%0*d", fracPart, v))...)
	}

	text := string(out)
	if !positive {
		text = "-" + text
	}
	dec, err := decimal.NewFromString(text)
	if err != nil {
		return c, b(raw), nil
	}
	return c, Value{Kind: KindDecimal, Str: dec.String()}, nil
}

func decodeBit(buf []byte, cursor int, meta uint16) (int, Value, error) {
	bits := int(meta>>8)*8 + int(meta&0xFF)
	nbytes := (bits + 7) / 8
	c, raw := util.ReadBytes(buf, cursor, nbytes)
	var v uint64
	for _, byt := range raw {
		v = v<<8 | uint64(byt)
	}
	return c, u(v), nil
}

func decodeDate(buf []byte, cursor int) (int, Value, error) {
	c, packed := util.ReadUB3(buf, cursor)
	day := packed & 0x1F
	month := (packed >> 5) & 0x0F
	year := packed >> 9
	return c, s(fmt.Sprintf("%04d-%02d-%02d", year, month, day)), nil
}

func decodeTime(buf []byte, cursor int) (int, Value, error) {
	c, packed := util.ReadUB3(buf, cursor)
	neg := ""
	if packed < 0 {
		neg = "-"
	}
	hh := packed / 10000
	mm := (packed / 100) % 100
	ss := packed % 100
	return c, s(fmt.Sprintf("%s%02d:%02d:%02d", neg, hh, mm, ss)), nil
}

func decodeDatetime(buf []byte, cursor int) (int, Value, error) {
	c, packed := util.ReadUB8(buf, cursor)
	date := packed / 1000000
	timePart := packed % 1000000
	year := date / 10000
	month := (date / 100) % 100
	day := date % 100
	hh := timePart / 10000
	mm := (timePart / 100) % 100
	ss := timePart % 100
	return c, s(fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", year, month, day, hh, mm, ss)), nil
}

// fracBytes returns the number of bytes used to store a temporal V2
// fractional-seconds component for a given metadata precision (0-6).
func fracBytes(meta uint16) int {
	switch {
	case meta >= 1 && meta <= 2:
		return 1
	case meta >= 3 && meta <= 4:
		return 2
	case meta >= 5 && meta <= 6:
		return 3
	default:
		return 0
	}
}

// readBigEndianUint reads n bytes as a big-endian unsigned integer. The V2
// temporal types (TIME2/DATETIME2/TIMESTAMP2) are packed big-endian on the
// wire, unlike every other integer field in the protocol.
func readBigEndianUint(buf []byte, cursor int, n int) (int, uint64) {
	var v uint64
	for k := 0; k < n; k++ {
		v = v<<8 | uint64(buf[cursor+k])
	}
	return cursor + n, v
}

func decodeTimeV2(buf []byte, cursor int, meta uint16) (int, Value, error) {
	c, packed64 := readBigEndianUint(buf, cursor, 3)
	packed := uint32(packed64)
	var frac uint32
	fb := fracBytes(meta)
	if fb > 0 {
		var raw []byte
		c, raw = util.ReadBytes(buf, c, fb)
		for _, byt := range raw {
			frac = frac<<8 | uint32(byt)
		}
	}
	v := int64(packed) - (1 << 23)
	neg := ""
	if v < 0 {
		neg = "-"
		v = -v
	}
	hh := (v >> 12) & 0x3FF
	mm := (v >> 6) & 0x3F
	ss := v & 0x3F
	if meta == 0 {
		return c, s(fmt.Sprintf("%s%02d:%02d:%02d", neg, hh, mm, ss)), nil
	}
	return c, s(fmt.Sprintf("%s%02d:%02d:%02d.%0*d", neg, hh, mm, ss, meta, frac)), nil
}

func decodeDatetimeV2(buf []byte, cursor int, meta uint16) (int, Value, error) {
	c, packed := readBigEndianUint(buf, cursor, 5)
	var frac uint32
	fb := fracBytes(meta)
	if fb > 0 {
		var raw []byte
		c, raw = util.ReadBytes(buf, c, fb)
		for _, byt := range raw {
			frac = frac<<8 | uint32(byt)
		}
	}
	v := int64(packed) - (0x8000000000)
	ymd := v >> 17
	ym := ymd >> 5
	day := ymd % (1 << 5)
	month := ym % 13
	year := ym / 13
	hms := v % (1 << 17)
	second := hms % (1 << 6)
	minute := (hms >> 6) % (1 << 6)
	hour := hms >> 12

	if meta == 0 {
		return c, s(fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", year, month, day, hour, minute, second)), nil
	}
	return c, s(fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d.%0*d", year, month, day, hour, minute, second, meta, frac)), nil
}

func decodeTimestampV2(buf []byte, cursor int, meta uint16) (int, Value, error) {
	c, seconds64 := readBigEndianUint(buf, cursor, 4)
	seconds := uint32(seconds64)
	var frac uint32
	fb := fracBytes(meta)
	if fb > 0 {
		var raw []byte
		c, raw = util.ReadBytes(buf, c, fb)
		for _, byt := range raw {
			frac = frac<<8 | uint32(byt)
		}
	}
	if meta == 0 {
		return c, i(int64(seconds)), nil
	}
	return c, s(fmt.Sprintf("%d.%0*d", seconds, meta, frac)), nil
}
