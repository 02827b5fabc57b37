package handshake

import (
	"github.com/zhukovaskychina/mysql-binlog-client/mysqlproto"
	"github.com/zhukovaskychina/mysql-binlog-client/util"
)

// Credentials carries the username/password/schema the client authenticates
// with. Schema may be empty — a replica does not need a default database.
type Credentials struct {
	Username string
	Password string
	Schema   string
}

// EncodeResponse builds the client's handshake response packet (login
// packet), scrambling Password with mysql_native_password against the
// greeting's seed.
func EncodeResponse(g *Greeting, creds Credentials) []byte {
	buf := []byte{}

	caps := clientCapabilities()
	if creds.Schema != "" {
		caps |= ClientConnectWithDB
	}

	buf = util.WriteUB4(buf, caps)
	buf = util.WriteUB4(buf, 1<<24-1) // max packet size
	buf = util.WriteByte(buf, g.CharacterSet)
	buf = append(buf, make([]byte, 23)...) // reserved

	if creds.Username == "" {
		buf = append(buf, 0)
	} else {
		buf = util.WriteWithNull(buf, []byte(creds.Username))
	}

	if creds.Password == "" {
		buf = util.WriteByte(buf, 0)
	} else {
		scramble := util.GetPassword([]byte(creds.Password), g.Scramble, nil)
		if caps&ClientSecureConnection != 0 {
			buf = util.WriteWithLength(buf, scramble)
		} else {
			buf = util.WriteBytes(buf, scramble)
			buf = util.WriteByte(buf, 0)
		}
	}

	if creds.Schema != "" {
		buf = util.WriteWithNull(buf, []byte(creds.Schema))
	}

	authPlugin := g.AuthPluginName
	if authPlugin == "" {
		authPlugin = "mysql_native_password"
	}
	buf = util.WriteWithNull(buf, []byte(authPlugin))

	return buf
}

// ErrPacket is a decoded ERR_Packet, sent either in place of the handshake
// response's OK packet or at any later point in the session.
type ErrPacket struct {
	Code     uint16
	SQLState string
	Message  string
}

// DecodeErrPacket decodes an ERR_Packet body. buf must start at the field
// count / header byte (0xFF) that marks an error packet.
func DecodeErrPacket(buf []byte) ErrPacket {
	var cursor int
	cursor, _ = util.ReadByte(buf, cursor) // 0xFF marker

	var ep ErrPacket
	cursor, ep.Code = util.ReadUB2(buf, cursor)

	if cursor < len(buf) && buf[cursor] == '#' {
		cursor, _ = util.ReadByte(buf, cursor)
		var state []byte
		cursor, state = util.ReadBytes(buf, cursor, 5)
		ep.SQLState = string(state)
	} else {
		ep.SQLState = mysqlproto.SSUnknownSQLState
	}

	_, msg := util.ReadString(buf, cursor)
	ep.Message = msg
	return ep
}

// IsErrPacket reports whether buf's leading byte marks an ERR_Packet.
func IsErrPacket(buf []byte) bool {
	return len(buf) > 0 && buf[0] == 0xFF
}

// IsOKPacket reports whether buf's leading byte marks an OK_Packet.
func IsOKPacket(buf []byte) bool {
	return len(buf) > 0 && buf[0] == 0x00
}

// IsEOFPacket reports whether buf's leading byte marks the legacy EOF marker.
func IsEOFPacket(buf []byte) bool {
	return len(buf) > 0 && buf[0] == 0xFE && len(buf) < 9
}
