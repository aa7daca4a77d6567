package source

import (
	"bufio"
	"bytes"
	"io"
)

// lineReader splits a stream into lines, holding an unterminated tail until
// its newline arrives.
type lineReader struct {
	r       *bufio.Reader
	partial []byte
	offset  int64
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

// reset discards buffered state and reads from r.
func (lr *lineReader) reset(r io.Reader) {
	lr.r.Reset(r)
	lr.partial = nil
	lr.offset = 0
}

// drain emits every complete line currently readable. io.EOF is not an
// error.
func (lr *lineReader) drain(emit func([]byte)) error {
	for {
		chunk, err := lr.r.ReadBytes('\n')
		lr.offset += int64(len(chunk))
		if len(chunk) > 0 {
			lr.partial = append(lr.partial, chunk...)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line := trimEOL(lr.partial)
		lr.partial = nil
		if len(line) > 0 {
			emit(line)
		}
	}
}

// flush emits the unterminated tail, if any.
func (lr *lineReader) flush(emit func([]byte)) {
	line := trimEOL(lr.partial)
	lr.partial = nil
	if len(line) > 0 {
		emit(line)
	}
}

func trimEOL(b []byte) []byte {
	b = bytes.TrimSuffix(b, []byte("\n"))
	return bytes.TrimSuffix(b, []byte("\r"))
}
