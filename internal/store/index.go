package store

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/mrorigo/pearls/internal/errs"
)

// Index is a pure, rebuildable cache mapping record ID to the byte offset of
// its line start in the active store file. Losing it costs a full scan on
// the next load_by_id, never correctness.
type Index map[string]uint64

const indexMagic uint32 = 0x5045524c // "PERL"

// LoadIndex reads a previously persisted index. A missing or corrupt file
// is reported via the ok return so callers fall back to a rebuild instead
// of treating it as fatal.
func LoadIndex(path string) (idx Index, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var magic, count uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil || magic != indexMagic {
		return nil, false
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, false
	}

	idx = make(Index, count)
	for i := uint32(0); i < count; i++ {
		var idLen uint32
		if err := binary.Read(r, binary.LittleEndian, &idLen); err != nil {
			return nil, false
		}
		idBytes := make([]byte, idLen)
		if _, err := io.ReadFull(r, idBytes); err != nil {
			return nil, false
		}
		var offset uint64
		if err := binary.Read(r, binary.LittleEndian, &offset); err != nil {
			return nil, false
		}
		idx[string(idBytes)] = offset
	}
	return idx, true
}

// SaveIndex persists idx atomically alongside the active store, using the
// same temp-file-then-rename path as WriteFile.
func SaveIndex(path string, idx Index) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "index.tmp.*")
	if err != nil {
		return errs.Wrap(errs.Io, err, "creating temp index file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := bufio.NewWriter(tmp)
	if err := binary.Write(w, binary.LittleEndian, indexMagic); err != nil {
		_ = tmp.Close()
		return errs.Wrap(errs.Io, err, "writing index magic")
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(idx))); err != nil {
		_ = tmp.Close()
		return errs.Wrap(errs.Io, err, "writing index count")
	}
	for id, offset := range idx {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(id))); err != nil {
			_ = tmp.Close()
			return errs.Wrap(errs.Io, err, "writing index id length")
		}
		if _, err := w.WriteString(id); err != nil {
			_ = tmp.Close()
			return errs.Wrap(errs.Io, err, "writing index id")
		}
		if err := binary.Write(w, binary.LittleEndian, offset); err != nil {
			_ = tmp.Close()
			return errs.Wrap(errs.Io, err, "writing index offset")
		}
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return errs.Wrap(errs.Io, err, "flushing index")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errs.Wrap(errs.Io, err, "fsyncing index")
	}
	if err := tmp.Close(); err != nil {
		return errs.Wrap(errs.Io, err, "closing index")
	}
	return os.Rename(tmpPath, path)
}
