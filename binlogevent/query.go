package binlogevent

import "github.com/zhukovaskychina/mysql-binlog-client/util"

// Query is the QUERY_EVENT body: a single SQL statement executed against
// Schema, used both for DDL and for the COMMIT that closes a
// statement-based transaction.
type Query struct {
	SlaveProxyID  uint32
	ExecutionTime uint32
	ErrorCode     uint16
	Schema        string
	SQL           string
}

// DecodeQuery decodes a QUERY_EVENT body, buf starting right after the
// common header.
func DecodeQuery(buf []byte) Query {
	var q Query
	var c int
	c, q.SlaveProxyID = util.ReadUB4(buf, c)
	c, q.ExecutionTime = util.ReadUB4(buf, c)

	var schemaLen byte
	c, schemaLen = util.ReadByte(buf, c)
	c, q.ErrorCode = util.ReadUB2(buf, c)

	var statusVarLen uint16
	c, statusVarLen = util.ReadUB2(buf, c)
	c, _ = util.ReadBytes(buf, c, int(statusVarLen))

	var schema []byte
	c, schema = util.ReadBytes(buf, c, int(schemaLen))
	q.Schema = string(schema)
	c, _ = util.ReadByte(buf, c) // NUL terminator after schema

	_, sql := util.ReadString(buf, c)
	q.SQL = sql
	return q
}
