package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadWriteUB4RoundTrip(t *testing.T) {
	buf := WriteUB4(nil, 0xDEADBEEF)
	_, v := ReadUB4(buf, 0)
	assert.Equal(t, uint32(0xDEADBEEF), v)
}

func TestReadWriteUB6RoundTrip(t *testing.T) {
	buf := WriteUB6(nil, 0x0102030405)
	_, v := ReadUB6(buf, 0)
	assert.Equal(t, uint64(0x0102030405), v)
}

func TestReadLengthLiteral(t *testing.T) {
	buf := WriteLength(nil, 100)
	_, v, isNull, err := ReadLength(buf, 0)
	assert.NoError(t, err)
	assert.False(t, isNull)
	assert.Equal(t, uint64(100), v)
}

func TestReadLengthNull(t *testing.T) {
	_, _, isNull, err := ReadLength([]byte{0xFB}, 0)
	assert.NoError(t, err)
	assert.True(t, isNull)
}

func TestReadLengthErrorMarker(t *testing.T) {
	_, _, _, err := ReadLength([]byte{0xFF}, 0)
	assert.Error(t, err)
}

func TestReadLengthWideValues(t *testing.T) {
	buf := WriteLength(nil, 70000)
	_, v, _, err := ReadLength(buf, 0)
	assert.NoError(t, err)
	assert.Equal(t, uint64(70000), v)
}

func TestReadWithNull(t *testing.T) {
	buf := WriteWithNull(nil, []byte("mysql_native_password"))
	_, v := ReadWithNull(buf, 0)
	assert.Equal(t, "mysql_native_password", string(v))
}

func TestGetPasswordIsDeterministic(t *testing.T) {
	seed := []byte("01234567890123456789")
	a := GetPassword([]byte("secret"), seed, nil)
	b := GetPassword([]byte("secret"), seed, nil)
	assert.Equal(t, a, b)
	assert.Len(t, a, 20)
}

func TestGetPasswordDiffersByPassword(t *testing.T) {
	seed := []byte("01234567890123456789")
	a := GetPassword([]byte("secret"), seed, nil)
	b := GetPassword([]byte("different"), seed, nil)
	assert.NotEqual(t, a, b)
}

func TestReadBitSetPositions(t *testing.T) {
	_, positions := ReadBitSet([]byte{0x05}, 0, 4, true)
	assert.Equal(t, []int{0, 2}, positions)
}
