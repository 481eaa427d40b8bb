package index

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"

	"termcrawl/pkg/errors"
)

// Snapshot file framing: a fixed header, a JSON-encoded term dictionary,
// and a CRC-32 footer over the payload.
const (
	snapMagic   uint32 = 0x54434958 // "TCIX"
	snapVersion uint32 = 1
	headerSize         = 16
	footerSize         = 4
)

// Encode serializes the store's full state. Concurrent inserts during
// encoding are tolerated (buckets are copied under their locks) but the
// snapshot then reflects an arbitrary interleaving; callers wanting a
// precise cut must quiesce the workers first.
func Encode(s *Store) ([]byte, error) {
	payload, err := json.Marshal(s.entries())
	if err != nil {
		return nil, fmt.Errorf("%w: encoding payload: %v", errors.ErrSnapshot, err)
	}
	buf := make([]byte, headerSize+len(payload)+footerSize)
	binary.LittleEndian.PutUint32(buf[0:4], snapMagic)
	binary.LittleEndian.PutUint32(buf[4:8], snapVersion)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(len(payload)))
	copy(buf[headerSize:], payload)
	checksum := crc32.ChecksumIEEE(payload)
	binary.LittleEndian.PutUint32(buf[headerSize+len(payload):], checksum)
	return buf, nil
}

// Decode reconstructs a Store from snapshot bytes. It is a full replace:
// the returned store contains exactly the snapshot's terms and postings.
func Decode(data []byte) (*Store, error) {
	if len(data) < headerSize+footerSize {
		return nil, fmt.Errorf("%w: truncated snapshot (%d bytes)", errors.ErrSnapshot, len(data))
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != snapMagic {
		return nil, fmt.Errorf("%w: bad magic 0x%08x", errors.ErrSnapshot, magic)
	}
	if version := binary.LittleEndian.Uint32(data[4:8]); version != snapVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", errors.ErrSnapshot, version)
	}
	payloadLen := binary.LittleEndian.Uint64(data[8:16])
	if uint64(len(data)) != uint64(headerSize+footerSize)+payloadLen {
		return nil, fmt.Errorf("%w: payload length mismatch", errors.ErrSnapshot)
	}
	payload := data[headerSize : headerSize+payloadLen]
	want := binary.LittleEndian.Uint32(data[headerSize+payloadLen:])
	if got := crc32.ChecksumIEEE(payload); got != want {
		return nil, fmt.Errorf("%w: checksum mismatch (got %08x, want %08x)", errors.ErrSnapshot, got, want)
	}
	var entries []TermEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, fmt.Errorf("%w: decoding payload: %v", errors.ErrSnapshot, err)
	}
	s := NewStore()
	for _, e := range entries {
		s.buckets[e.Term] = &bucket{postings: e.Postings}
	}
	return s, nil
}

// Restore replaces the store's entire contents with the snapshot. There is
// no incremental merge.
func (s *Store) Restore(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.buckets = decoded.buckets
	s.mu.Unlock()
	return nil
}

// SaveFile writes the snapshot atomically: to a .tmp file first, renamed
// on success.
func SaveFile(s *Store, path string) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", errors.ErrSnapshot, tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: renaming snapshot: %v", errors.ErrSnapshot, err)
	}
	return nil
}

// LoadFile reads and decodes a snapshot file.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", errors.ErrSnapshot, path, err)
	}
	return Decode(data)
}
