package gtid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sid = uuid.MustParse("3E11FA47-71CA-11E1-9E33-C80AA9429562")

func TestSetAddAndContains(t *testing.T) {
	s := NewSet()
	s.Add(sid, 1)
	s.Add(sid, 2)
	s.Add(sid, 3)

	assert.True(t, s.Contains(sid, 1))
	assert.True(t, s.Contains(sid, 3))
	assert.False(t, s.Contains(sid, 4))
}

func TestSetAddMergesAdjacentIntervals(t *testing.T) {
	s := NewSet()
	s.Add(sid, 1)
	s.Add(sid, 2)
	s.Add(sid, 3)

	assert.Equal(t, "3e11fa47-71ca-11e1-9e33-c80aa9429562:1-3", s.String())
}

func TestSetAddDisjointRanges(t *testing.T) {
	s := NewSet()
	s.Add(sid, 1)
	s.Add(sid, 5)

	assert.True(t, s.Contains(sid, 1))
	assert.True(t, s.Contains(sid, 5))
	assert.False(t, s.Contains(sid, 3))
}

func TestParseSetRoundTrip(t *testing.T) {
	text := "3e11fa47-71ca-11e1-9e33-c80aa9429562:1-3:11-19"
	set, err := ParseSet(text)
	require.NoError(t, err)
	assert.Equal(t, text, set.String())
	assert.True(t, set.Contains(sid, 2))
	assert.True(t, set.Contains(sid, 15))
	assert.False(t, set.Contains(sid, 5))
}

func TestSetContainsSet(t *testing.T) {
	whole, err := ParseSet("3e11fa47-71ca-11e1-9e33-c80aa9429562:1-10")
	require.NoError(t, err)
	part, err := ParseSet("3e11fa47-71ca-11e1-9e33-c80aa9429562:2-5")
	require.NoError(t, err)
	other, err := ParseSet("3e11fa47-71ca-11e1-9e33-c80aa9429562:9-12")
	require.NoError(t, err)

	assert.True(t, whole.ContainsSet(part))
	assert.False(t, whole.ContainsSet(other))
}

func TestSetSubtract(t *testing.T) {
	whole, err := ParseSet("3e11fa47-71ca-11e1-9e33-c80aa9429562:1-10")
	require.NoError(t, err)
	part, err := ParseSet("3e11fa47-71ca-11e1-9e33-c80aa9429562:4-6")
	require.NoError(t, err)

	diff := whole.Subtract(part)
	assert.True(t, diff.Contains(sid, 1))
	assert.False(t, diff.Contains(sid, 5))
	assert.True(t, diff.Contains(sid, 8))
}

func TestSetEncodeBinaryLayout(t *testing.T) {
	s := NewSet()
	s.Add(sid, 1)
	s.Add(sid, 2)

	encoded := s.EncodeBinary()
	require.Len(t, encoded, 8+16+8+16)

	var nSids uint64
	for i := 7; i >= 0; i-- {
		nSids = nSids<<8 | uint64(encoded[i])
	}
	assert.Equal(t, uint64(1), nSids)

	raw, err := sid.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, raw, encoded[8:24])
}

func TestSetCloneIsIndependent(t *testing.T) {
	s := NewSet()
	s.Add(sid, 1)
	clone := s.Clone()
	s.Add(sid, 2)

	assert.True(t, s.Contains(sid, 2))
	assert.False(t, clone.Contains(sid, 2))
}
