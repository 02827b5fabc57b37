// Package handshake decodes the server's initial greeting packet and
// encodes the client's handshake response, including the
// mysql_native_password scramble exchange.
package handshake

import (
	"github.com/juju/errors"

	"github.com/zhukovaskychina/mysql-binlog-client/util"
)

// Protocol version this client understands. The server is expected to
// speak protocol version 10 (4.1+ handshake).
const ProtocolVersion10 = 10

// Greeting is the server's initial handshake packet (protocol version 10).
type Greeting struct {
	ProtocolVersion    byte
	ServerVersion      string
	ConnectionID       uint32
	Scramble           []byte
	Capabilities       uint32
	CharacterSet       byte
	StatusFlags        uint16
	AuthPluginName     string
}

// DecodeGreeting parses the server's handshake-v10 packet body (the packet
// header has already been stripped by the transport layer).
func DecodeGreeting(buf []byte) (*Greeting, error) {
	if len(buf) < 1 {
		return nil, errors.New("handshake: empty greeting packet")
	}

	var cursor int
	g := new(Greeting)

	cursor, g.ProtocolVersion = util.ReadByte(buf, cursor)
	if g.ProtocolVersion != ProtocolVersion10 {
		return nil, errors.Errorf("handshake: unsupported protocol version %d", g.ProtocolVersion)
	}

	var tmp []byte
	cursor, tmp = util.ReadWithNull(buf, cursor)
	g.ServerVersion = string(tmp)

	cursor, g.ConnectionID = util.ReadUB4(buf, cursor)

	var scramblePart1 []byte
	cursor, scramblePart1 = util.ReadBytes(buf, cursor, 8)

	cursor, _ = util.ReadBytes(buf, cursor, 1) // filler

	var capLow uint16
	cursor, capLow = util.ReadUB2(buf, cursor)

	cursor, g.CharacterSet = util.ReadByte(buf, cursor)
	cursor, g.StatusFlags = util.ReadUB2(buf, cursor)

	var capHigh uint16
	cursor, capHigh = util.ReadUB2(buf, cursor)
	g.Capabilities = uint32(capLow) | uint32(capHigh)<<16

	var authDataLen byte
	cursor, authDataLen = util.ReadByte(buf, cursor)

	cursor, _ = util.ReadBytes(buf, cursor, 10) // reserved

	if g.Capabilities&ClientSecureConnection != 0 {
		scrambleLen := int(authDataLen) - 8
		if scrambleLen < 0 {
			scrambleLen = 13
		}
		var scramblePart2 []byte
		cursor, scramblePart2 = util.ReadBytes(buf, cursor, scrambleLen)
		// trailing NUL terminator on the second scramble part
		if scrambleLen > 0 && scramblePart2[scrambleLen-1] == 0 {
			scramblePart2 = scramblePart2[:scrambleLen-1]
		}
		g.Scramble = append(append([]byte{}, scramblePart1...), scramblePart2...)
	} else {
		g.Scramble = scramblePart1
	}

	if g.Capabilities&ClientPluginAuth != 0 {
		_, tmp = util.ReadWithNull(buf, cursor)
		g.AuthPluginName = string(tmp)
	}

	return g, nil
}
