package bsoncodec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// maxDocumentSize bounds the length prefix accepted by Reader.
const maxDocumentSize = 16 * 1024 * 1024

// Reader reads a stream of concatenated documents. It tracks the first error;
// after it, Next always returns false.
type Reader struct {
	r     *bufio.Reader
	doc   []byte
	count int64 // total bytes read
	err   error
}

// NewReader wraps r. A *bufio.Reader is used as is to prevent double-buffering.
func NewReader(r io.Reader) (*Reader, error) {
	if r == nil {
		return nil, ErrNilIO
	}
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 64*1024)
	}
	return &Reader{r: br}, nil
}

// Next reads the next document. It returns false at the end of the stream or on error.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}
	var head [4]byte
	n, err := io.ReadFull(r.r, head[:])
	r.count += int64(n)
	if err != nil {
		if err != io.EOF {
			r.setError(fmt.Errorf("%w: truncated length prefix", ErrMalformed))
		} else {
			r.setError(io.EOF)
		}
		return false
	}
	size := int(int32(Order.Uint32(head[:])))
	if size < 5 || size > maxDocumentSize {
		r.setError(fmt.Errorf("%w: invalid document length %d", ErrMalformed, size))
		return false
	}
	if cap(r.doc) < size {
		r.doc = make([]byte, size)
	}
	r.doc = r.doc[:size]
	copy(r.doc, head[:])
	n, err = io.ReadFull(r.r, r.doc[4:])
	r.count += int64(n)
	if err != nil {
		r.setError(fmt.Errorf("%w: truncated document: %v", ErrMalformed, err))
		return false
	}
	return true
}

// Document returns the current document. It is valid until the next call to Next.
func (r *Reader) Document() []byte { return r.doc }

// Count returns the number of bytes consumed.
func (r *Reader) Count() int64 { return r.count }

// Err returns the first error, nil at a clean end of stream.
func (r *Reader) Err() error {
	if errors.Is(r.err, io.EOF) {
		return nil
	}
	return r.err
}

// setError records the first non-nil error.
func (r *Reader) setError(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

// Writer writes concatenated documents through a buffer. It tracks the first error;
// after it, writes become no-ops.
type Writer struct {
	w     *bufio.Writer
	count int64 // total bytes written
	err   error
}

// NewWriter wraps w. A *bufio.Writer is used as is to prevent double-buffering.
func NewWriter(w io.Writer) (*Writer, error) {
	if w == nil {
		return nil, ErrNilIO
	}
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriterSize(w, 64*1024)
	}
	return &Writer{w: bw}, nil
}

// WriteDocument appends one document to the stream.
func (w *Writer) WriteDocument(doc []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(doc)
	w.count += int64(n)
	w.setError(err)
}

// Flush writes any buffered data to the underlying io.Writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	w.setError(w.w.Flush())
	return w.err
}

// Result flushes the buffer and returns the final count and error state.
func (w *Writer) Result() (int64, error) {
	_ = w.Flush()
	return w.count, w.err
}

func (w *Writer) Count() int64 { return w.count }
func (w *Writer) Err() error   { return w.err }

func (w *Writer) setError(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}
