package replica

import (
	"github.com/juju/errors"

	"github.com/zhukovaskychina/mysql-binlog-client/binlogevent"
	"github.com/zhukovaskychina/mysql-binlog-client/handshake"
	"github.com/zhukovaskychina/mysql-binlog-client/transport"
	"github.com/zhukovaskychina/mysql-binlog-client/util"
)

// textRow is one decoded row of a COM_QUERY text-protocol result set: each
// cell is either a length-encoded string or SQL NULL.
type textRow []*string

// queryTextRows issues sql as a COM_QUERY and decodes the resulting text
// result set in full. This client only ever runs the five fixed
// configuration queries named in the session negotiation, so there is no
// need for a streaming or prepared-statement reader — simplicity over the
// teacher's own full result-set/field/OK/EOF packet family, which existed
// to answer arbitrary client SQL rather than five known strings.
func queryTextRows(conn *transport.Conn, sql string) ([]textRow, error) {
	conn.ResetSequence()
	if err := conn.WritePacket(binlogevent.EncodeQuery(sql)); err != nil {
		return nil, errors.Annotatef(err, "replica: send query %q", sql)
	}

	first, err := conn.ReadPacket()
	if err != nil {
		return nil, errors.Annotatef(err, "replica: read query response %q", sql)
	}
	if handshake.IsErrPacket(first) {
		ep := handshake.DecodeErrPacket(first)
		return nil, &ServerError{Code: ep.Code, SQLState: ep.SQLState, Message: ep.Message}
	}
	if handshake.IsOKPacket(first) {
		return nil, nil
	}

	_, columnCount, _, err := util.ReadLength(first, 0)
	if err != nil {
		return nil, errors.Annotate(err, "replica: decode column count")
	}

	// Column-definition packets, discarded: this client only reads rows
	// positionally, the order the session negotiation queries document.
	for i := uint64(0); i < columnCount; i++ {
		if _, err := conn.ReadPacket(); err != nil {
			return nil, errors.Annotate(err, "replica: read column definition")
		}
	}

	if _, err := conn.ReadPacket(); err != nil { // EOF after column defs
		return nil, errors.Annotate(err, "replica: read column-definitions EOF")
	}

	var rows []textRow
	for {
		pkt, err := conn.ReadPacket()
		if err != nil {
			return nil, errors.Annotate(err, "replica: read result row")
		}
		if handshake.IsEOFPacket(pkt) {
			break
		}
		if handshake.IsErrPacket(pkt) {
			ep := handshake.DecodeErrPacket(pkt)
			return nil, &ServerError{Code: ep.Code, SQLState: ep.SQLState, Message: ep.Message}
		}
		row := make(textRow, columnCount)
		cursor := 0
		for i := uint64(0); i < columnCount; i++ {
			var value uint64
			var isNull bool
			cursor, value, isNull, err = util.ReadLength(pkt, cursor)
			if err != nil {
				return nil, errors.Annotate(err, "replica: decode row cell")
			}
			if isNull {
				continue
			}
			var raw []byte
			cursor, raw = util.ReadBytes(pkt, cursor, int(value))
			text := string(raw)
			row[i] = &text
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cellString(row textRow, idx int) string {
	if idx >= len(row) || row[idx] == nil {
		return ""
	}
	return *row[idx]
}
