package guard

import (
	"encoding/binary"
	"errors"
)

const recordVersionV1 = 1

// record length: version(1) + count(2) + lastFailure(8) + lockExpiry(8)
const recordLen = 19

// lockoutRecord is the per-identifier failure state. lockExpiry is zero
// until count reaches the configured threshold.
type lockoutRecord struct {
	Count       uint16
	LastFailure int64 // unix seconds
	LockExpiry  int64 // unix seconds, 0 = not locked
}

func encodeLockoutRecord(r *lockoutRecord) []byte {
	out := make([]byte, recordLen)
	out[0] = recordVersionV1
	binary.BigEndian.PutUint16(out[1:3], r.Count)
	binary.BigEndian.PutUint64(out[3:11], uint64(r.LastFailure))
	binary.BigEndian.PutUint64(out[11:19], uint64(r.LockExpiry))
	return out
}

func decodeLockoutRecord(data []byte) (*lockoutRecord, error) {
	if len(data) != recordLen || data[0] != recordVersionV1 {
		return nil, errors.New("invalid lockout record")
	}
	return &lockoutRecord{
		Count:       binary.BigEndian.Uint16(data[1:3]),
		LastFailure: int64(binary.BigEndian.Uint64(data[3:11])),
		LockExpiry:  int64(binary.BigEndian.Uint64(data[11:19])),
	}, nil
}
