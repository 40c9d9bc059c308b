package vm

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
)

// ---------------------------------------------------------------------------
// ByteIO: the input/output capability consumed by executors
// ---------------------------------------------------------------------------

// ErrNoInput is returned by BufferIO when a program reads past the end of
// the queued input.
var ErrNoInput = errors.New("no input available")

// ByteIO is the capability an executor uses for its two primitive I/O
// operations. Reads may block until input arrives; writes are
// fire-and-forget from the executor's perspective.
type ByteIO interface {
	io.ByteReader
	io.ByteWriter
}

// StdIO adapts the process streams: buffered reads from stdin, unbuffered
// writes to stdout.
type StdIO struct {
	in  *bufio.Reader
	buf [1]byte
}

// NewStdIO creates a live terminal adapter.
func NewStdIO() *StdIO {
	return &StdIO{in: bufio.NewReader(os.Stdin)}
}

// ReadByte blocks until one byte of input is available.
func (s *StdIO) ReadByte() (byte, error) {
	return s.in.ReadByte()
}

// WriteByte emits one byte to stdout.
func (s *StdIO) WriteByte(c byte) error {
	s.buf[0] = c
	_, err := os.Stdout.Write(s.buf[:])
	return err
}

// NullIO discards writes and panics on reads. Benchmarks use it so that
// measured runs pay no terminal cost; a benchmark program has no business
// reading input.
type NullIO struct{}

// ReadByte always panics.
func (NullIO) ReadByte() (byte, error) {
	panic("vm: read from NullIO")
}

// WriteByte discards the byte.
func (NullIO) WriteByte(byte) error {
	return nil
}

// BufferIO queues input bytes and accumulates output in memory. Tests use
// it to feed programs fixed input and inspect exactly what they wrote.
type BufferIO struct {
	in  []byte
	pos int
	out bytes.Buffer
}

// NewBufferIO creates an in-memory adapter over the given input queue.
func NewBufferIO(input []byte) *BufferIO {
	return &BufferIO{in: input}
}

// ReadByte dequeues the next input byte, or fails with ErrNoInput once the
// queue is exhausted.
func (b *BufferIO) ReadByte() (byte, error) {
	if b.pos >= len(b.in) {
		return 0, ErrNoInput
	}
	c := b.in[b.pos]
	b.pos++
	return c, nil
}

// WriteByte appends one byte to the output buffer.
func (b *BufferIO) WriteByte(c byte) error {
	return b.out.WriteByte(c)
}

// Output returns everything the program has written so far.
func (b *BufferIO) Output() string {
	return b.out.String()
}
