package game

import (
	"encoding/binary"
	"errors"
	"math"
)

// MoveRecordSize is the fixed wire size of a plot movement update: four
// little-endian float32 values (x, y, z, rotY).
const MoveRecordSize = 16

var ErrBadMoveRecord = errors.New("movement record must be 16 bytes")

type MoveRecord struct {
	X    float32
	Y    float32
	Z    float32
	RotY float32
}

func DecodeMoveRecord(data []byte) (MoveRecord, error) {
	if len(data) != MoveRecordSize {
		return MoveRecord{}, ErrBadMoveRecord
	}
	return MoveRecord{
		X:    math.Float32frombits(binary.LittleEndian.Uint32(data[0:4])),
		Y:    math.Float32frombits(binary.LittleEndian.Uint32(data[4:8])),
		Z:    math.Float32frombits(binary.LittleEndian.Uint32(data[8:12])),
		RotY: math.Float32frombits(binary.LittleEndian.Uint32(data[12:16])),
	}, nil
}

func (r MoveRecord) Encode() []byte {
	out := make([]byte, MoveRecordSize)
	binary.LittleEndian.PutUint32(out[0:4], math.Float32bits(r.X))
	binary.LittleEndian.PutUint32(out[4:8], math.Float32bits(r.Y))
	binary.LittleEndian.PutUint32(out[8:12], math.Float32bits(r.Z))
	binary.LittleEndian.PutUint32(out[12:16], math.Float32bits(r.RotY))
	return out
}
