package binlogevent

import "github.com/zhukovaskychina/mysql-binlog-client/util"

// Rotate is the ROTATE_EVENT body: the next binlog file to stream and the
// byte offset to resume from within it. The server sends this both when a
// live rotation occurs and as the very first event of a fresh dump.
type Rotate struct {
	NextPosition uint64
	NextFile     string
}

// DecodeRotate decodes a ROTATE_EVENT body, buf starting right after the
// common header.
func DecodeRotate(buf []byte) Rotate {
	var r Rotate
	c, offset := util.ReadUB8(buf, 0)
	r.NextPosition = offset
	_, name := util.ReadString(buf, c)
	r.NextFile = name
	return r
}
