package binlogevent

import "github.com/zhukovaskychina/mysql-binlog-client/util"

// Checksum algorithm codes carried in FORMAT_DESCRIPTION_EVENT, per
// https://dev.mysql.com/doc/internals/en/binlog-event-header.html
const (
	ChecksumNone      = 0
	ChecksumCRC32     = 1
	ChecksumUndefined = 255
)

// FormatDescription is the FORMAT_DESCRIPTION_EVENT body: the event stream's
// binlog version, the server that wrote it, and — on servers new enough to
// support it — the checksum algorithm applied to every following event.
type FormatDescription struct {
	BinlogVersion    uint16
	ServerVersion    string
	CreateTimestamp  uint32
	HeaderLength     byte
	ChecksumAlgorithm byte
}

// DecodeFormatDescription decodes a FORMAT_DESCRIPTION_EVENT body. buf
// starts right after the common header. The checksum algorithm byte is the
// wire-authoritative source for whether subsequent events carry a trailing
// 4-byte CRC32 — see the replica package's session negotiation.
func DecodeFormatDescription(buf []byte) FormatDescription {
	var fd FormatDescription
	var c int
	c, fd.BinlogVersion = util.ReadUB2(buf, c)

	var serverVersion []byte
	c, serverVersion = util.ReadBytes(buf, c, 50)
	fd.ServerVersion = trimNulPad(serverVersion)

	c, fd.CreateTimestamp = util.ReadUB4(buf, c)
	_, fd.HeaderLength = util.ReadByte(buf, c)

	// The post-header-length array and (when present) a trailing 5 bytes
	// of [checksum_algorithm:1][crc32:4] follow. The algorithm byte is read
	// from the fifth-last byte of the body; the length check only guards
	// against a body shorter than that. A server too old to negotiate
	// checksums omits the trailing 5 bytes, and the byte read there is then
	// part of the post-header-length array.
	fd.ChecksumAlgorithm = ChecksumUndefined
	if len(buf) >= 5 {
		fd.ChecksumAlgorithm = buf[len(buf)-5]
	}
	return fd
}

func trimNulPad(b []byte) string {
	for i, v := range b {
		if v == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
