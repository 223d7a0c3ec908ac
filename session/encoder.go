package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"time"
)

const sessionFormatVersionCurrent = 1

// ErrCorrupt is returned by Decode for blobs that do not match the session layout.
var ErrCorrupt = errors.New("session blob corrupt")

// Encode serializes s. Layout (v1):
//
//	version u8 | id u8-len | user_id u8-len | secret u8-len | token u16-len |
//	created_at i64 (unix nanos) | expires_at i64 (unix nanos, 0 = none)
func Encode(s *Session) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil session")
	}

	var buf bytes.Buffer
	buf.Grow(1 + 3 + len(s.ID) + len(s.UserID) + len(s.Secret) + 2 + len(s.Token) + 16)
	buf.WriteByte(sessionFormatVersionCurrent)

	if err := writeShort(&buf, "id", []byte(s.ID)); err != nil {
		return nil, err
	}
	if err := writeShort(&buf, "userID", []byte(s.UserID)); err != nil {
		return nil, err
	}
	if err := writeShort(&buf, "secret", s.Secret); err != nil {
		return nil, err
	}

	if len(s.Token) > math.MaxUint16 {
		return nil, errors.New("token too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(s.Token))); err != nil {
		return nil, err
	}
	buf.WriteString(s.Token)

	if err := binary.Write(&buf, binary.BigEndian, unixNanos(s.CreatedAt)); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, unixNanos(s.ExpiresAt)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a blob produced by Encode.
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, ErrCorrupt
	}
	if version != sessionFormatVersionCurrent {
		return nil, errors.New("invalid session version")
	}

	s := &Session{}

	id, err := readShort(reader)
	if err != nil {
		return nil, err
	}
	s.ID = string(id)

	userID, err := readShort(reader)
	if err != nil {
		return nil, err
	}
	s.UserID = string(userID)

	secret, err := readShort(reader)
	if err != nil {
		return nil, err
	}
	if len(secret) > 0 {
		s.Secret = secret
	}

	var tokenLen uint16
	if err := binary.Read(reader, binary.BigEndian, &tokenLen); err != nil {
		return nil, ErrCorrupt
	}
	token := make([]byte, tokenLen)
	if _, err := io.ReadFull(reader, token); err != nil {
		return nil, ErrCorrupt
	}
	s.Token = string(token)

	var created, expires int64
	if err := binary.Read(reader, binary.BigEndian, &created); err != nil {
		return nil, ErrCorrupt
	}
	if err := binary.Read(reader, binary.BigEndian, &expires); err != nil {
		return nil, ErrCorrupt
	}
	s.CreatedAt = fromUnixNanos(created)
	s.ExpiresAt = fromUnixNanos(expires)

	if reader.Len() != 0 {
		return nil, ErrCorrupt
	}

	return s, nil
}

func writeShort(buf *bytes.Buffer, field string, b []byte) error {
	if len(b) > 255 {
		return errors.New(field + " too long")
	}
	buf.WriteByte(byte(len(b)))
	buf.Write(b)
	return nil
}

func readShort(reader *bytes.Reader) ([]byte, error) {
	n, err := reader.ReadByte()
	if err != nil {
		return nil, ErrCorrupt
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, ErrCorrupt
	}
	return out, nil
}

func unixNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
