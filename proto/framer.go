package proto

import "bytes"

// Framer splits a raw byte stream into newline-delimited records. It
// keeps partial input between feeds; records have no maximum length
// here (the codec rejects oversized or malformed payloads).
type Framer struct {
	buf []byte
}

// NewFramer returns an empty framer.
func NewFramer() *Framer {
	return &Framer{}
}

// Feed appends input and returns every complete record now available.
// A trailing \r before the newline is stripped; empty records from
// consecutive newlines are discarded. Returned slices do not alias the
// internal buffer.
func (f *Framer) Feed(p []byte) [][]byte {
	f.buf = append(f.buf, p...)

	var records [][]byte
	for {
		i := bytes.IndexByte(f.buf, '\n')
		if i < 0 {
			break
		}
		rec := bytes.TrimSuffix(f.buf[:i], []byte{'\r'})
		if len(rec) > 0 {
			out := make([]byte, len(rec))
			copy(out, rec)
			records = append(records, out)
		}
		f.buf = f.buf[i+1:]
	}
	if len(f.buf) == 0 {
		f.buf = nil
	}
	return records
}

// Pending returns how many buffered bytes are waiting for a newline.
func (f *Framer) Pending() int {
	return len(f.buf)
}

// Encode terminates one outgoing record with exactly one newline.
func Encode(record []byte) []byte {
	out := make([]byte, 0, len(record)+1)
	out = append(out, record...)
	return append(out, '\n')
}
