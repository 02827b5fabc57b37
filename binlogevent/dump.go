package binlogevent

import (
	"github.com/zhukovaskychina/mysql-binlog-client/gtid"
	"github.com/zhukovaskychina/mysql-binlog-client/mysqlproto"
	"github.com/zhukovaskychina/mysql-binlog-client/util"
)

// BinlogDumpGtidFlag is the COM_BINLOG_DUMP_GTID through_position flag.
const BinlogDumpGtidFlag = 0x0001

// EncodeQuery builds a COM_QUERY command packet body.
func EncodeQuery(sql string) []byte {
	buf := []byte{mysqlproto.COM_QUERY}
	buf = append(buf, []byte(sql)...)
	return buf
}

// EncodeDump builds a COM_BINLOG_DUMP command packet body: request the
// server stream events starting at (file, position) for serverID.
func EncodeDump(position uint32, file string, serverID uint32) []byte {
	buf := []byte{mysqlproto.COM_BINLOG_DUMP}
	buf = util.WriteUB4(buf, position)
	buf = util.WriteUB2(buf, 0) // flags
	buf = util.WriteUB4(buf, serverID)
	buf = util.WriteBytes(buf, []byte(file))
	return buf
}

// EncodeDumpGTID builds a COM_BINLOG_DUMP_GTID command packet body,
// requesting the server stream every event not already covered by set.
func EncodeDumpGTID(serverID uint32, set *gtid.Set) []byte {
	buf := []byte{mysqlproto.COM_BINLOG_DUMP_GTID}
	buf = util.WriteUB2(buf, BinlogDumpGtidFlag)
	buf = util.WriteUB4(buf, serverID)
	buf = util.WriteUB4(buf, 0) // binlog-filename-length (unused with GTID)
	buf = util.WriteUB8(buf, 4) // binlog-pos (legacy field, ignored by server in GTID mode)

	encoded := set.EncodeBinary()
	buf = util.WriteUB4(buf, uint32(len(encoded)))
	buf = util.WriteBytes(buf, encoded)
	return buf
}
