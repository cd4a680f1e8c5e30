package wire

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/valyala/bytebufferpool"

	"github.com/flowerfulfort/scurl/internal/errdef"
	"github.com/flowerfulfort/scurl/internal/request"
)

const (
	// Boundary separates multipart parts. It is fixed so request bytes are
	// reproducible.
	Boundary = "------------------------cmeNT2ZxyH1uAG6jCp0boL"

	// MultipartContentType is the Content-Type value of a multipart request.
	MultipartContentType = "multipart/form-data; boundary=" + Boundary

	partDelimiter  = "--" + Boundary + CRLF
	closeDelimiter = "--" + Boundary + "--" + CRLF
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Multipart is an encoded multipart/form-data body held in a pooled
// buffer. Call Release once the body has been sent for the last time.
type Multipart struct {
	buf *bytebufferpool.ByteBuffer
}

// EncodeMultipart reads every part, in order, into one buffer:
//
//	--boundary CRLF part-header content CRLF  (per part)
//	--boundary-- CRLF
//
// File contents are copied as opaque bytes. A file that is missing at
// encode time, or whose size changes while it is read, is an error.
func EncodeMultipart(parts []request.Part) (*Multipart, error) {
	if len(parts) == 0 {
		return nil, errdef.New(errdef.CodeConfig, "multipart body needs at least one part")
	}

	want, err := MultipartLength(parts)
	if err != nil {
		return nil, err
	}

	buf := bytebufferpool.Get()
	for _, p := range parts {
		buf.WriteString(partDelimiter)
		buf.WriteString(PartHeader(p))
		if p.IsFile() {
			if err := appendFile(buf, p.File); err != nil {
				bytebufferpool.Put(buf)
				return nil, err
			}
		} else {
			buf.WriteString(p.Value)
		}
		buf.WriteString(CRLF)
	}
	buf.WriteString(closeDelimiter)

	if got := int64(buf.Len()); got != want {
		bytebufferpool.Put(buf)
		return nil, errdef.New(errdef.CodeConfig, "attachments changed while encoding: expected %d bytes, read %d", want, got)
	}
	return &Multipart{buf: buf}, nil
}

// MultipartLength computes the encoded size of parts from the framing
// lengths and each file's size on disk, without reading any file.
func MultipartLength(parts []request.Part) (int64, error) {
	var n int64
	for _, p := range parts {
		n += int64(len(partDelimiter) + len(PartHeader(p)) + len(CRLF))
		if !p.IsFile() {
			n += int64(len(p.Value))
			continue
		}
		info, err := os.Stat(p.File)
		if err != nil {
			return 0, errdef.Wrap(errdef.CodeConfig, err, "attachment %q", p.File)
		}
		n += info.Size()
	}
	return n + int64(len(closeDelimiter)), nil
}

// PartHeader returns the header block of one part, including the blank
// line that precedes its content.
func PartHeader(p request.Part) string {
	if p.IsFile() {
		return fmt.Sprintf("Content-Disposition: form-data; name=\"%s\"; filename=\"%s\"\r\nContent-Type: text/plain\r\n\r\n",
			quoteEscaper.Replace(p.Name), quoteEscaper.Replace(filepath.Base(p.File)))
	}
	return fmt.Sprintf("Content-Disposition: form-data; name=\"%s\"\r\n\r\n", quoteEscaper.Replace(p.Name))
}

// Len returns the exact body length for Content-Length.
func (m *Multipart) Len() int64 {
	return int64(m.buf.Len())
}

// Bytes returns the encoded body. The slice is invalid after Release.
func (m *Multipart) Bytes() []byte {
	return m.buf.B
}

// WriteTo writes the whole body to w.
func (m *Multipart) WriteTo(w io.Writer) (int64, error) {
	return m.buf.WriteTo(w)
}

// Release returns the buffer to the pool.
func (m *Multipart) Release() {
	if m == nil || m.buf == nil {
		return
	}
	bytebufferpool.Put(m.buf)
	m.buf = nil
}

func appendFile(buf *bytebufferpool.ByteBuffer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errdef.Wrap(errdef.CodeConfig, err, "attachment %q", path)
	}
	defer f.Close()

	if _, err := buf.ReadFrom(f); err != nil {
		return errdef.Wrap(errdef.CodeConfig, err, "read attachment %q", path)
	}
	return nil
}
