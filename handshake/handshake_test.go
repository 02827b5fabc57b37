package handshake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/mysql-binlog-client/util"
)

func buildGreeting(capabilities uint32) []byte {
	buf := util.WriteByte(nil, ProtocolVersion10)
	buf = util.WriteWithNull(buf, []byte("5.7.30-log"))
	buf = util.WriteUB4(buf, 99)
	buf = util.WriteBytes(buf, []byte("12345678")) // scramble part 1
	buf = util.WriteByte(buf, 0)                   // filler
	buf = util.WriteUB2(buf, uint16(capabilities&0xFFFF))
	buf = util.WriteByte(buf, 33) // charset
	buf = util.WriteUB2(buf, 2)   // status flags
	buf = util.WriteUB2(buf, uint16(capabilities>>16))
	buf = util.WriteByte(buf, 21) // auth data length (8+13)
	buf = util.WriteBytes(buf, make([]byte, 10))
	buf = util.WriteBytes(buf, []byte("123456789012\x00")) // scramble part 2, NUL terminated
	buf = util.WriteWithNull(buf, []byte("mysql_native_password"))
	return buf
}

func TestDecodeGreeting(t *testing.T) {
	caps := uint32(ClientProtocol41 | ClientSecureConnection | ClientPluginAuth)
	buf := buildGreeting(caps)

	g, err := DecodeGreeting(buf)
	require.NoError(t, err)
	assert.Equal(t, byte(ProtocolVersion10), g.ProtocolVersion)
	assert.Equal(t, "5.7.30-log", g.ServerVersion)
	assert.Equal(t, uint32(99), g.ConnectionID)
	assert.Equal(t, "mysql_native_password", g.AuthPluginName)
	assert.Len(t, g.Scramble, 20)
}

func TestDecodeGreetingRejectsUnsupportedVersion(t *testing.T) {
	buf := util.WriteByte(nil, 9)
	_, err := DecodeGreeting(buf)
	assert.Error(t, err)
}

func TestEncodeResponseIncludesSchemaWhenSet(t *testing.T) {
	caps := uint32(ClientProtocol41 | ClientSecureConnection | ClientPluginAuth)
	g, err := DecodeGreeting(buildGreeting(caps))
	require.NoError(t, err)

	resp := EncodeResponse(g, Credentials{Username: "repl", Password: "secret", Schema: "orders"})
	assert.Contains(t, string(resp), "repl")
	assert.Contains(t, string(resp), "orders")
}

func TestIsErrOkEofPacket(t *testing.T) {
	assert.True(t, IsErrPacket([]byte{0xFF, 0, 0}))
	assert.True(t, IsOKPacket([]byte{0x00}))
	assert.True(t, IsEOFPacket([]byte{0xFE, 0, 0}))
	assert.False(t, IsEOFPacket(append([]byte{0xFE}, make([]byte, 20)...)))
}

func TestDecodeErrPacket(t *testing.T) {
	buf := util.WriteByte(nil, 0xFF)
	buf = util.WriteUB2(buf, 1045)
	buf = util.WriteByte(buf, '#')
	buf = util.WriteBytes(buf, []byte("28000"))
	buf = util.WriteBytes(buf, []byte("Access denied"))

	ep := DecodeErrPacket(buf)
	assert.Equal(t, uint16(1045), ep.Code)
	assert.Equal(t, "28000", ep.SQLState)
	assert.Equal(t, "Access denied", ep.Message)
}
