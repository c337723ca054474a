// Package comparator implements the file comparison methods the differ
// uses to decide whether a source and destination entry already agree.
package comparator

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"time"

	"lukechampine.com/blake3"

	"github.com/ivoronin/filesync/internal/model"
	"github.com/ivoronin/filesync/internal/syncerr"
)

// Method selects how two files are compared.
type Method int

const (
	Size Method = iota
	Timestamp
	SizeAndTimestamp
	SHA256
	BLAKE3
	ByteByByte
	Comprehensive
)

// Result classifies the outcome of a comparison.
type Result int

const (
	Identical Result = iota
	Different
	SourceNewer
	DestinationNewer
	DifferentSize
	DifferentContent
	SourceOnly
	DestinationOnly
)

func (r Result) String() string {
	switch r {
	case Identical:
		return "Identical"
	case Different:
		return "Different"
	case SourceNewer:
		return "SourceNewer"
	case DestinationNewer:
		return "DestinationNewer"
	case DifferentSize:
		return "DifferentSize"
	case DifferentContent:
		return "DifferentContent"
	case SourceOnly:
		return "SourceOnly"
	case DestinationOnly:
		return "DestinationOnly"
	default:
		return "Unknown"
	}
}

// Comparator compares file content/metadata with a configurable method.
type Comparator struct {
	bufferSize int
}

func New() *Comparator {
	return &Comparator{bufferSize: 64 * 1024}
}

func WithBufferSize(bufferSize int) *Comparator {
	return &Comparator{bufferSize: bufferSize}
}

// Compare compares the files at srcPath and dstPath on disk.
func (c *Comparator) Compare(srcPath, dstPath string, method Method) (Result, error) {
	srcInfo, srcErr := os.Stat(srcPath)
	dstInfo, dstErr := os.Stat(dstPath)

	srcExists, dstExists := srcErr == nil, dstErr == nil
	switch {
	case !srcExists && !dstExists:
		return 0, syncerr.Wrap(syncerr.Comparison, "neither file exists", srcPath, nil)
	case srcExists && !dstExists:
		if !os.IsNotExist(dstErr) {
			return 0, syncerr.Wrap(syncerr.Comparison, "reading destination metadata", dstPath, dstErr)
		}
		return SourceOnly, nil
	case !srcExists && dstExists:
		if !os.IsNotExist(srcErr) {
			return 0, syncerr.Wrap(syncerr.Comparison, "reading source metadata", srcPath, srcErr)
		}
		return DestinationOnly, nil
	}

	if srcInfo.IsDir() || dstInfo.IsDir() {
		return 0, syncerr.Wrap(syncerr.Comparison, "cannot compare directories", srcPath, nil)
	}

	switch method {
	case Size:
		return compareBySize(srcInfo.Size(), dstInfo.Size()), nil
	case Timestamp:
		return compareByTimestamp(srcInfo.ModTime(), dstInfo.ModTime()), nil
	case SizeAndTimestamp:
		if srcInfo.Size() != dstInfo.Size() {
			return DifferentSize, nil
		}
		return compareByTimestamp(srcInfo.ModTime(), dstInfo.ModTime()), nil
	case SHA256:
		return c.compareByHash(srcPath, dstPath, sha256Hasher)
	case BLAKE3:
		return c.compareByHash(srcPath, dstPath, blake3Hasher)
	case ByteByByte:
		return c.compareByteByByte(srcPath, dstPath)
	case Comprehensive:
		return c.compareComprehensive(srcPath, dstPath, srcInfo, dstInfo)
	default:
		return compareBySize(srcInfo.Size(), dstInfo.Size()), nil
	}
}

// CompareEntries compares two already-scanned entries. Metadata-only
// methods (Size, Timestamp, SizeAndTimestamp) are decided from the
// entries' own size and mtime without touching the disk; hash-based
// methods short-circuit to a digest comparison when both entries
// already carry one — avoiding a redundant file read.
func (c *Comparator) CompareEntries(src, dst model.FileEntry, method Method) (Result, error) {
	switch method {
	case Size:
		return compareBySize(src.Size, dst.Size), nil
	case Timestamp:
		return compareByTimestamp(src.ModTime, dst.ModTime), nil
	case SizeAndTimestamp:
		return QuickCompare(src, dst), nil
	}
	if src.Digest != "" && dst.Digest != "" {
		switch method {
		case SHA256, BLAKE3, Comprehensive:
			if src.Digest == dst.Digest {
				return Identical, nil
			}
			return DifferentContent, nil
		}
	}
	return c.Compare(src.Path, dst.Path, method)
}

// QuickCompare classifies two entries from metadata alone (size then
// modification time), without touching file content. CompareEntries
// uses it for SizeAndTimestamp, so the differ decides that method from
// the scanned entries alone.
func QuickCompare(src, dst model.FileEntry) Result {
	if src.Size != dst.Size {
		return DifferentSize
	}
	return compareByTimestamp(src.ModTime, dst.ModTime)
}

func compareBySize(srcSize, dstSize int64) Result {
	if srcSize == dstSize {
		return Identical
	}
	return DifferentSize
}

func compareByTimestamp(srcTime, dstTime time.Time) Result {
	switch {
	case srcTime.After(dstTime):
		return SourceNewer
	case srcTime.Before(dstTime):
		return DestinationNewer
	default:
		return Identical
	}
}

func sha256Hasher() hash.Hash { return sha256.New() }
func blake3Hasher() hash.Hash { return blake3.New(32, nil) }

func (c *Comparator) compareByHash(srcPath, dstPath string, newHasher func() hash.Hash) (Result, error) {
	srcHash, err := c.computeHash(srcPath, newHasher)
	if err != nil {
		return 0, err
	}
	dstHash, err := c.computeHash(dstPath, newHasher)
	if err != nil {
		return 0, err
	}
	if srcHash == dstHash {
		return Identical, nil
	}
	return DifferentContent, nil
}

// computeHash hashes the file at path, streamed in bufferSize chunks.
func (c *Comparator) computeHash(path string, newHasher func() hash.Hash) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", syncerr.Wrap(syncerr.Hashing, "opening file", path, err)
	}
	defer f.Close()

	h := newHasher()
	buf := make([]byte, c.bufSize())
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", syncerr.Wrap(syncerr.Hashing, "reading file", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (c *Comparator) bufSize() int {
	if c.bufferSize <= 0 {
		return 64 * 1024
	}
	return c.bufferSize
}

func (c *Comparator) compareByteByByte(srcPath, dstPath string) (Result, error) {
	srcFile, err := os.Open(srcPath)
	if err != nil {
		return 0, syncerr.Wrap(syncerr.Comparison, "opening source file", srcPath, err)
	}
	defer srcFile.Close()

	dstFile, err := os.Open(dstPath)
	if err != nil {
		return 0, syncerr.Wrap(syncerr.Comparison, "opening destination file", dstPath, err)
	}
	defer dstFile.Close()

	srcBuf := make([]byte, c.bufSize())
	dstBuf := make([]byte, c.bufSize())

	for {
		srcN, srcErr := srcFile.Read(srcBuf)
		if srcErr != nil && srcErr != io.EOF {
			return 0, syncerr.Wrap(syncerr.Comparison, "reading source file", srcPath, srcErr)
		}
		dstN, dstErr := dstFile.Read(dstBuf)
		if dstErr != nil && dstErr != io.EOF {
			return 0, syncerr.Wrap(syncerr.Comparison, "reading destination file", dstPath, dstErr)
		}

		if srcN == 0 && dstN == 0 {
			return Identical, nil
		}
		if srcN != dstN {
			return DifferentContent, nil
		}
		if !bytes.Equal(srcBuf[:srcN], dstBuf[:dstN]) {
			return DifferentContent, nil
		}
	}
}

// compareComprehensive checks size, then timestamp, and only falls back
// to a BLAKE3 content hash when timestamps disagree but size matches —
// mirroring the original's size/mtime/hash cascade exactly.
func (c *Comparator) compareComprehensive(srcPath, dstPath string, srcInfo, dstInfo os.FileInfo) (Result, error) {
	if srcInfo.Size() != dstInfo.Size() {
		return DifferentSize, nil
	}

	srcTime, dstTime := srcInfo.ModTime(), dstInfo.ModTime()
	if srcTime.Equal(dstTime) {
		return Identical, nil
	}

	result, err := c.compareByHash(srcPath, dstPath, blake3Hasher)
	if err != nil {
		return 0, err
	}
	switch result {
	case Identical:
		return Identical, nil
	case DifferentContent:
		if srcTime.After(dstTime) {
			return SourceNewer, nil
		}
		return DestinationNewer, nil
	default:
		return result, nil
	}
}
