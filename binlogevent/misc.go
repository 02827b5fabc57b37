package binlogevent

import "github.com/zhukovaskychina/mysql-binlog-client/util"

// Xid is the XID_EVENT body: the storage-engine transaction ID that
// commits a row-based transaction. Its arrival is what the replication
// engine treats as the transaction boundary for folding a pending GTID
// into the offset's GTID set.
type Xid struct {
	TransactionID uint64
}

// DecodeXid decodes an XID_EVENT body, buf starting right after the
// common header.
func DecodeXid(buf []byte) Xid {
	_, id := util.ReadUB8(buf, 0)
	return Xid{TransactionID: id}
}

// RowsQuery is the ROWS_QUERY_EVENT body: the original SQL statement that
// produced the row events following it, attached for audit/debugging.
type RowsQuery struct {
	Query string
}

// DecodeRowsQuery decodes a ROWS_QUERY_EVENT body, buf starting right
// after the common header. The body is prefixed with a single length byte
// that the event writer never actually uses correctly (it is the unsigned
// byte length of a query that may exceed 255 bytes), so the safer read is
// the remainder of the buffer rather than trusting that byte.
func DecodeRowsQuery(buf []byte) RowsQuery {
	_, q := util.ReadString(buf, 1)
	return RowsQuery{Query: q}
}
