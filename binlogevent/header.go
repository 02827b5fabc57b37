// Package binlogevent decodes binlog event frames off the replication
// stream: the common event header, and the per-type event bodies the
// replication engine understands.
package binlogevent

import (
	"github.com/juju/errors"

	"github.com/zhukovaskychina/mysql-binlog-client/mysqlproto"
	"github.com/zhukovaskychina/mysql-binlog-client/util"
)

// HeaderSize is the fixed size of the binlog event header, common to
// every event type.
const HeaderSize = 19

// Header is the 19-byte header common to every binlog event.
type Header struct {
	Timestamp uint32
	EventType byte
	ServerID  uint32
	EventSize uint32
	NextPos   uint32
	Flags     uint16
}

// DecodeHeader decodes the fixed event header. buf is the event body with
// the 1-byte OK/status marker already stripped by the caller.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, errors.Errorf("binlogevent: short header, got %d bytes want %d", len(buf), HeaderSize)
	}

	var h Header
	var c int
	c, h.Timestamp = util.ReadUB4(buf, c)
	c, h.EventType = util.ReadByte(buf, c)
	c, h.ServerID = util.ReadUB4(buf, c)
	c, h.EventSize = util.ReadUB4(buf, c)
	c, h.NextPos = util.ReadUB4(buf, c)
	_, h.Flags = util.ReadUB2(buf, c)
	return h, nil
}

// TypeName returns the human-readable name for a binlog event type code.
func TypeName(eventType byte) string {
	switch int(eventType) {
	case mysqlproto.EVENT_QUERY:
		return "QUERY"
	case mysqlproto.EVENT_ROTATE:
		return "ROTATE"
	case mysqlproto.EVENT_FORMAT_DESCRIPTION:
		return "FORMAT_DESCRIPTION"
	case mysqlproto.EVENT_XID:
		return "XID"
	case mysqlproto.EVENT_TABLE_MAP:
		return "TABLE_MAP"
	case mysqlproto.EVENT_WRITE_ROWS:
		return "WRITE_ROWS"
	case mysqlproto.EVENT_UPDATE_ROWS:
		return "UPDATE_ROWS"
	case mysqlproto.EVENT_DELETE_ROWS:
		return "DELETE_ROWS"
	case mysqlproto.EVENT_GTID:
		return "GTID"
	case mysqlproto.EVENT_ANONYMOUS_GTID:
		return "ANONYMOUS_GTID"
	case mysqlproto.EVENT_ROWS_QUERY:
		return "ROWS_QUERY"
	default:
		return "UNKNOWN"
	}
}
