package store

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// Snapshot layout (little endian):
//
//	magic "QASN" | version u32 | dim u32 | n u32 | modelLen u32 | model |
//	n * (textLen u32 | text | dim * f32)
//
// Version 1 files have no model field.
const (
	snapshotMagic   = "QASN"
	snapshotVersion = 2

	maxSnapshotDim   = 1 << 16
	maxSnapshotModel = 1 << 10
)

var errBadSnapshot = errors.New("invalid snapshot file")

// snapshot is the persisted store state. model identifies the embedder that
// produced the vectors; it is empty for files written before it was recorded.
type snapshot struct {
	model   string
	dim     int
	chunks  []string
	vectors [][]float32
}

// writeSnapshot atomically replaces path with snap: it writes a temp file in
// the same directory, fsyncs it and renames it over path.
func writeSnapshot(path string, snap snapshot) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriterSize(tmp, 1<<20)
	if err := encodeSnapshot(w, snap); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	syncDir(dir)
	return nil
}

func encodeSnapshot(w io.Writer, snap snapshot) error {
	dim := snap.dim
	if len(snap.chunks) != len(snap.vectors) {
		return fmt.Errorf("snapshot: %d chunks but %d vectors", len(snap.chunks), len(snap.vectors))
	}
	if dim < 0 || dim > maxSnapshotDim {
		return fmt.Errorf("snapshot: dimension %d out of range", dim)
	}
	if len(snap.model) > maxSnapshotModel {
		return fmt.Errorf("snapshot: model identity too long (%d bytes)", len(snap.model))
	}
	if _, err := io.WriteString(w, snapshotMagic); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	hdr := []uint32{snapshotVersion, uint32(dim), uint32(len(snap.chunks)), uint32(len(snap.model))}
	for _, v := range hdr {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if _, err := io.WriteString(w, snap.model); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	buf := make([]byte, dim*4)
	for i, text := range snap.chunks {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(text))); err != nil {
			return fmt.Errorf("write text len: %w", err)
		}
		if _, err := io.WriteString(w, text); err != nil {
			return fmt.Errorf("write text: %w", err)
		}
		if len(snap.vectors[i]) != dim {
			return fmt.Errorf("snapshot: vector %d has dimension %d, expected %d", i, len(snap.vectors[i]), dim)
		}
		for j, x := range snap.vectors[i] {
			binary.LittleEndian.PutUint32(buf[j*4:], math.Float32bits(x))
		}
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// readSnapshot loads the snapshot at path. A missing file yields an empty state.
func readSnapshot(path string) (snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return snapshot{}, nil
		}
		return snapshot{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return snapshot{}, fmt.Errorf("stat snapshot: %w", err)
	}
	return decodeSnapshot(bufio.NewReaderSize(f, 1<<20), info.Size())
}

// decodeSnapshot parses a snapshot of size bytes. Header counts are checked
// against size before anything is allocated from them.
func decodeSnapshot(r io.Reader, size int64) (snapshot, error) {
	bad := func(format string, args ...any) (snapshot, error) {
		return snapshot{}, fmt.Errorf("%w: "+format, append([]any{errBadSnapshot}, args...)...)
	}
	magic := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return bad("read magic: %v", err)
	}
	if string(magic) != snapshotMagic {
		return bad("bad magic %q", magic)
	}
	var hdr [3]uint32
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return bad("read header: %v", err)
	}
	remaining := size - int64(len(snapshotMagic)) - 12

	var snap snapshot
	switch hdr[0] {
	case 1:
	case snapshotVersion:
		var modelLen uint32
		if err := binary.Read(r, binary.LittleEndian, &modelLen); err != nil {
			return bad("read header: %v", err)
		}
		remaining -= 4
		if modelLen > maxSnapshotModel || int64(modelLen) > remaining {
			return bad("model identity length %d", modelLen)
		}
		model := make([]byte, modelLen)
		if _, err := io.ReadFull(r, model); err != nil {
			return bad("read model: %v", err)
		}
		remaining -= int64(modelLen)
		snap.model = string(model)
	default:
		return bad("unsupported version %d", hdr[0])
	}

	dim, n := int64(hdr[1]), int64(hdr[2])
	if n > 0 && dim == 0 {
		return bad("zero dimension")
	}
	if dim > maxSnapshotDim {
		return bad("dimension %d exceeds %d", dim, maxSnapshotDim)
	}
	entry := 4 + dim*4
	if n*entry > remaining {
		return bad("%d entries of dimension %d do not fit in %d bytes", n, dim, size)
	}

	snap.dim = int(dim)
	buf := make([]byte, dim*4)
	for i := int64(0); i < n; i++ {
		var textLen uint32
		if err := binary.Read(r, binary.LittleEndian, &textLen); err != nil {
			return bad("entry %d: %v", i, err)
		}
		remaining -= 4
		// This vector and the fixed part of every later entry must still fit.
		if int64(textLen) > remaining-dim*4-(n-i-1)*entry {
			return bad("entry %d text length %d exceeds file", i, textLen)
		}
		text := make([]byte, textLen)
		if _, err := io.ReadFull(r, text); err != nil {
			return bad("entry %d text: %v", i, err)
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			return bad("entry %d vector: %v", i, err)
		}
		remaining -= int64(textLen) + dim*4
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4:]))
		}
		snap.chunks = append(snap.chunks, string(text))
		snap.vectors = append(snap.vectors, vec)
	}
	return snap, nil
}

// syncDir fsyncs a directory so a rename within it is durable. Errors are ignored;
// some platforms do not support syncing directories.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
