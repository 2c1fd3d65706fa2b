// Package journal is the append-only order journal: every accepted raw order
// line is framed, checksummed and written to a rotating segment file before
// it reaches the matching engine, so book state can be rebuilt on boot.
package journal

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// RecordType tags journal entries.
type RecordType uint8

const (
	RecordSubmit RecordType = iota
	RecordCancel
)

// Record is one journal entry. Data carries the raw order line for submits
// and "symbol,orderId" for cancels.
type Record struct {
	Type RecordType
	Seq  uint64
	Time int64
	Data []byte
}

// Config controls segment placement and rotation.
type Config struct {
	Dir         string
	SegmentSize int64 // rotate after this many bytes; <=0 means 2 MiB
}

const defaultSegmentSize = 2 << 20

// Frame: [type:1][seq:8][time:8][len:4][payload][crc:4]
// The CRC covers header + payload.
const headerSize = 1 + 8 + 8 + 4

// Journal appends framed records to numbered segment files.
type Journal struct {
	mu       sync.Mutex
	dir      string
	segSize  int64
	current  *segment
	segIndex int
}

type segment struct {
	file   *os.File
	offset int64
}

// Open creates the directory if needed and continues after the highest
// existing segment.
func Open(cfg Config) (*Journal, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "journal: mkdir")
	}
	size := cfg.SegmentSize
	if size <= 0 {
		size = defaultSegmentSize
	}

	index := 0
	files, err := filepath.Glob(filepath.Join(cfg.Dir, "segment-*.journal"))
	if err != nil {
		return nil, errors.Wrap(err, "journal: glob")
	}
	if n := len(files); n > 0 {
		// Segments are zero-padded, so glob order is segment order.
		fmt.Sscanf(filepath.Base(files[n-1]), "segment-%06d.journal", &index)
	}

	seg, err := openSegment(cfg.Dir, index)
	if err != nil {
		return nil, err
	}
	return &Journal{
		dir:      cfg.Dir,
		segSize:  size,
		current:  seg,
		segIndex: index,
	}, nil
}

func openSegment(dir string, index int) (*segment, error) {
	path := filepath.Join(dir, fmt.Sprintf("segment-%06d.journal", index))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "journal: open segment")
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "journal: stat segment")
	}
	return &segment{file: f, offset: st.Size()}, nil
}

// Append frames and writes one record, rotating the segment when full.
func (j *Journal) Append(r *Record) error {
	payloadLen := uint32(len(r.Data))
	buf := make([]byte, headerSize+payloadLen+4)

	buf[0] = byte(r.Type)
	binary.BigEndian.PutUint64(buf[1:9], r.Seq)
	binary.BigEndian.PutUint64(buf[9:17], uint64(r.Time))
	binary.BigEndian.PutUint32(buf[17:21], payloadLen)
	copy(buf[headerSize:], r.Data)

	crc := crc32.ChecksumIEEE(buf[:headerSize+payloadLen])
	binary.BigEndian.PutUint32(buf[headerSize+payloadLen:], crc)

	j.mu.Lock()
	defer j.mu.Unlock()

	n, err := j.current.file.Write(buf)
	if err != nil {
		return errors.Wrap(err, "journal: append")
	}
	j.current.offset += int64(n)
	if j.current.offset >= j.segSize {
		return j.rotate()
	}
	return nil
}

// NewRecord stamps a record with the current time.
func NewRecord(t RecordType, seq uint64, data []byte) *Record {
	return &Record{
		Type: t,
		Seq:  seq,
		Time: time.Now().UnixNano(),
		Data: data,
	}
}

func (j *Journal) rotate() error {
	if err := j.current.file.Close(); err != nil {
		return errors.Wrap(err, "journal: close segment")
	}
	j.segIndex++
	seg, err := openSegment(j.dir, j.segIndex)
	if err != nil {
		return err
	}
	j.current = seg
	return nil
}

// Sync flushes the current segment to disk.
func (j *Journal) Sync() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return errors.Wrap(j.current.file.Sync(), "journal: sync")
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.current.file.Close()
}

// ReplayHandler consumes one replayed record.
type ReplayHandler func(*Record) error

// Replay walks every segment in order and returns the last sequence seen.
// A CRC mismatch or a non-monotonic sequence stops the replay with an error;
// a truncated tail record (torn write) ends it cleanly.
func Replay(dir string, fn ReplayHandler) (lastSeq uint64, err error) {
	files, err := filepath.Glob(filepath.Join(dir, "segment-*.journal"))
	if err != nil {
		return 0, errors.Wrap(err, "journal: glob")
	}

	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return lastSeq, errors.Wrap(err, "journal: open")
		}

		for {
			rec, err := readRecord(f)
			if err != nil {
				if err == io.EOF || err == io.ErrUnexpectedEOF {
					break
				}
				f.Close()
				return lastSeq, err
			}
			if rec.Seq <= lastSeq {
				f.Close()
				return lastSeq, errors.Errorf("journal: non-monotonic seq %d", rec.Seq)
			}
			lastSeq = rec.Seq

			if err := fn(rec); err != nil {
				f.Close()
				return lastSeq, err
			}
		}
		f.Close()
	}
	return lastSeq, nil
}

// TruncateBefore removes whole segments whose records are all <= seq.
func TruncateBefore(dir string, seq uint64) error {
	files, err := filepath.Glob(filepath.Join(dir, "segment-*.journal"))
	if err != nil {
		return errors.Wrap(err, "journal: glob")
	}
	for _, path := range files {
		maxSeq, err := maxSeqInSegment(path)
		if err != nil {
			continue
		}
		if maxSeq > 0 && maxSeq <= seq {
			_ = os.Remove(path)
		}
	}
	return nil
}

func readRecord(r io.Reader) (*Record, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	t := RecordType(header[0])
	seq := binary.BigEndian.Uint64(header[1:9])
	ts := binary.BigEndian.Uint64(header[9:17])
	l := binary.BigEndian.Uint32(header[17:21])

	rest := make([]byte, l+4)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}
	payload := rest[:l]
	crc := binary.BigEndian.Uint32(rest[l:])

	if crc32.ChecksumIEEE(append(header, payload...)) != crc {
		return nil, errors.New("journal: crc mismatch")
	}
	return &Record{Type: t, Seq: seq, Time: int64(ts), Data: payload}, nil
}

// maxSeqInSegment scans one segment and returns the highest sequence in it.
func maxSeqInSegment(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var max uint64
	for {
		header := make([]byte, headerSize)
		if _, err := io.ReadFull(f, header); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return max, nil
			}
			return max, err
		}
		seq := binary.BigEndian.Uint64(header[1:9])
		if seq > max {
			max = seq
		}
		payloadLen := binary.BigEndian.Uint32(header[17:21])
		if _, err := f.Seek(int64(payloadLen+4), io.SeekCurrent); err != nil {
			return max, err
		}
	}
}
