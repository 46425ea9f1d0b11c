package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveRecordRoundTrip(t *testing.T) {
	rec := MoveRecord{X: 12.5, Y: 1.7, Z: -48.25, RotY: 3.1415927}

	buf := rec.Encode()
	require.Len(t, buf, MoveRecordSize)

	got, err := DecodeMoveRecord(buf)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.Equal(t, buf, got.Encode(), "re-encode must be bit identical")
}

func TestMoveRecordLayout(t *testing.T) {
	// 1.0 as little-endian float32 is 00 00 80 3f.
	buf := []byte{
		0x00, 0x00, 0x80, 0x3f,
		0x00, 0x00, 0x00, 0x40,
		0x00, 0x00, 0x40, 0x40,
		0x00, 0x00, 0x80, 0x40,
	}
	rec, err := DecodeMoveRecord(buf)
	require.NoError(t, err)
	assert.Equal(t, MoveRecord{X: 1, Y: 2, Z: 3, RotY: 4}, rec)
}

func TestDecodeMoveRecordWrongSize(t *testing.T) {
	_, err := DecodeMoveRecord(make([]byte, 15))
	assert.ErrorIs(t, err, ErrBadMoveRecord)

	_, err = DecodeMoveRecord(make([]byte, 17))
	assert.ErrorIs(t, err, ErrBadMoveRecord)
}
