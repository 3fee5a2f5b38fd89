package datafile

import (
	"io"
	"os"

	"github.com/klauspost/compress/snappy"
	"github.com/pkg/errors"
)

// Snapshot writes the mapped bytes of f to w, snappy framed when compress is
// set.
func (f *DataFile) Snapshot(w io.Writer, compress bool) error {
	if f.data == nil {
		return errors.Errorf("data file %s is not mapped", f.path)
	}
	if !compress {
		_, err := w.Write(f.data)
		return errors.Wrap(err, "write snapshot")
	}
	sw := snappy.NewBufferedWriter(w)
	if _, err := sw.Write(f.data); err != nil {
		sw.Close()
		return errors.Wrap(err, "write compressed snapshot")
	}
	return errors.Wrap(sw.Close(), "flush compressed snapshot")
}

// Restore writes a snapshot read from r to path and opens it.
func Restore(r io.Reader, path string, blockSize int, compressed bool) (*DataFile, error) {
	fp, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	src := r
	if compressed {
		src = snappy.NewReader(r)
	}
	if _, err := io.Copy(fp, src); err != nil {
		fp.Close()
		os.Remove(path)
		return nil, errors.Wrapf(err, "restore snapshot into %s", path)
	}
	if err := fp.Close(); err != nil {
		return nil, errors.Wrapf(err, "close %s", path)
	}
	return Open(path, blockSize)
}
