package index

import (
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"

	pkgerrors "termcrawl/pkg/errors"
)

func buildStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore("database", "caching", "empty term")
	s.Insert("database", posting(0.9, "https://a.example"))
	s.Insert("database", posting(0.4, "https://b.example"))
	s.Insert("caching", posting(0.7, "https://c.example"))
	s.SortAll()
	return s
}

func assertSameStore(t *testing.T, got, want *Store) {
	t.Helper()
	gotTerms, wantTerms := got.Terms(), want.Terms()
	if len(gotTerms) != len(wantTerms) {
		t.Fatalf("terms = %v, want %v", gotTerms, wantTerms)
	}
	for i := range wantTerms {
		if gotTerms[i] != wantTerms[i] {
			t.Fatalf("terms = %v, want %v", gotTerms, wantTerms)
		}
	}
	for _, term := range wantTerms {
		gp, err := got.TopN(term, 1000)
		if err != nil {
			t.Fatal(err)
		}
		wp, err := want.TopN(term, 1000)
		if err != nil {
			t.Fatal(err)
		}
		if len(gp) != len(wp) {
			t.Fatalf("term %q: %d postings, want %d", term, len(gp), len(wp))
		}
		for i := range wp {
			if gp[i].Score != wp[i].Score ||
				gp[i].Doc.Location != wp[i].Doc.Location ||
				gp[i].Doc.Title != wp[i].Doc.Title {
				t.Errorf("term %q posting %d = %+v, want %+v", term, i, gp[i], wp[i])
			}
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := buildStore(t)
	data, err := Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	assertSameStore(t, decoded, s)
}

func TestDecodeRejectsCorruption(t *testing.T) {
	s := buildStore(t)
	good, err := Encode(s)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"truncated", func(b []byte) []byte { return b[:10] }},
		{"bad magic", func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[0:4], 0xdeadbeef)
			return b
		}},
		{"unsupported version", func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[4:8], 99)
			return b
		}},
		{"length mismatch", func(b []byte) []byte {
			binary.LittleEndian.PutUint64(b[8:16], uint64(len(b)))
			return b
		}},
		{"payload flipped", func(b []byte) []byte {
			b[headerSize] ^= 0xff
			return b
		}},
		{"checksum flipped", func(b []byte) []byte {
			b[len(b)-1] ^= 0xff
			return b
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, len(good))
			copy(data, good)
			if _, err := Decode(tt.mutate(data)); !errors.Is(err, pkgerrors.ErrSnapshot) {
				t.Errorf("Decode = %v, want ErrSnapshot", err)
			}
		})
	}
}

func TestRestoreReplacesContents(t *testing.T) {
	snapshot := buildStore(t)
	data, err := Encode(snapshot)
	if err != nil {
		t.Fatal(err)
	}

	s := NewStore("stale term")
	s.Insert("stale term", posting(0.1, "https://stale.example"))
	if err := s.Restore(data); err != nil {
		t.Fatal(err)
	}

	if s.HasTerm("stale term") {
		t.Error("pre-restore term survived Restore")
	}
	assertSameStore(t, s, snapshot)
}

func TestRestoreRejectsBadDataUnchanged(t *testing.T) {
	s := NewStore("database")
	s.Insert("database", posting(0.5, "https://a.example"))

	if err := s.Restore([]byte("not a snapshot")); !errors.Is(err, pkgerrors.ErrSnapshot) {
		t.Fatalf("Restore = %v, want ErrSnapshot", err)
	}
	// A failed restore leaves the store intact.
	if n, _ := s.TermLen("database"); n != 1 {
		t.Errorf("TermLen = %d after failed restore, want 1", n)
	}
}

func TestSaveLoadFile(t *testing.T) {
	s := buildStore(t)
	path := filepath.Join(t.TempDir(), "index.snap")

	if err := SaveFile(s, path); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	assertSameStore(t, loaded, s)
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.snap")); !errors.Is(err, pkgerrors.ErrSnapshot) {
		t.Errorf("LoadFile = %v, want ErrSnapshot", err)
	}
}

func TestEmptyStoreRoundTrip(t *testing.T) {
	s := NewStore()
	data, err := Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded.Terms()) != 0 {
		t.Errorf("decoded empty store has terms %v", decoded.Terms())
	}
}
