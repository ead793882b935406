// Package source turns a seekable byte stream into the character stream read
// by cursor.Buffered.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/zjrosen/peruse/internal/cursor"
	"github.com/zjrosen/peruse/internal/log"
)

// ErrUnsupportedEncoding is returned for encodings other than UTF-8, UTF-16
// and single-byte charmaps.
var ErrUnsupportedEncoding = errors.New("unsupported encoding")

// Encoding names reported by Decoder.Encoding.
const (
	UTF8    = "utf-8"
	UTF16LE = "utf-16le"
	UTF16BE = "utf-16be"
)

var _ cursor.CharSource = (*Decoder)(nil)

// Decoder reads characters from a seekable byte stream. Offsets are byte
// offsets relative to the first byte after any byte order mark.
type Decoder struct {
	r      io.ReadSeeker
	br     *bufio.Reader
	base   int64
	offset int64

	encoding string
	charmap  *charmap.Charmap
}

// Open creates a Decoder over r. A byte order mark selects UTF-8 or UTF-16
// and is skipped. Without one, encoding is used; an empty name means UTF-8.
// Returns cursor.ErrNotSeekable if r cannot seek.
func Open(r io.Reader, encoding string) (*Decoder, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		return nil, cursor.ErrNotSeekable
	}
	if _, err := rs.Seek(0, io.SeekCurrent); err != nil {
		return nil, fmt.Errorf("%w: %w", cursor.ErrNotSeekable, err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %w", cursor.ErrNotSeekable, err)
	}

	d := &Decoder{r: rs, br: bufio.NewReader(rs)}
	bom, _ := d.br.Peek(3)
	switch {
	case len(bom) >= 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF:
		d.encoding, d.base = UTF8, 3
	case len(bom) >= 2 && bom[0] == 0xFF && bom[1] == 0xFE:
		d.encoding, d.base = UTF16LE, 2
	case len(bom) >= 2 && bom[0] == 0xFE && bom[1] == 0xFF:
		d.encoding, d.base = UTF16BE, 2
	default:
		if err := d.useEncoding(encoding); err != nil {
			return nil, err
		}
	}
	log.Debug(log.CatSource, "opened stream", "encoding", d.encoding, "bom", d.base > 0)

	if err := d.Seek(0); err != nil {
		return nil, err
	}
	return d, nil
}

// OpenFile opens path read-only and decodes it. Closing the Decoder closes
// the file.
func OpenFile(path, encoding string) (*Decoder, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is the book the user asked to read
	if err != nil {
		return nil, err
	}
	d, err := Open(f, encoding)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return d, nil
}

// Supported reports whether name can be passed to Open.
func Supported(name string) bool {
	var d Decoder
	return d.useEncoding(name) == nil
}

// Encodings lists common encoding names accepted by Open. Other single-byte
// encodings known to the WHATWG index are accepted too.
func Encodings() []string {
	return []string{UTF8, UTF16LE, UTF16BE, "windows-1251", "windows-1252", "koi8-r", "iso-8859-1"}
}

func (d *Decoder) useEncoding(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", UTF8, "utf8":
		d.encoding = UTF8
		return nil
	case UTF16LE, UTF16BE:
		d.encoding = name
		return nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedEncoding, name)
	}
	cm, ok := enc.(*charmap.Charmap)
	if !ok {
		canonical, _ := htmlindex.Name(enc)
		if canonical == UTF8 {
			d.encoding = UTF8
			return nil
		}
		return fmt.Errorf("%w: %s is not a single-byte encoding", ErrUnsupportedEncoding, name)
	}
	canonical, err := htmlindex.Name(enc)
	if err != nil {
		canonical = name
	}
	d.encoding = canonical
	d.charmap = cm
	return nil
}

// Encoding returns the name of the encoding in use.
func (d *Decoder) Encoding() string { return d.encoding }

// Offset implements cursor.CharSource.
func (d *Decoder) Offset() int64 { return d.offset }

// Seek implements cursor.CharSource.
func (d *Decoder) Seek(offset int64) error {
	if offset < 0 {
		return fmt.Errorf("negative offset %d", offset)
	}
	if _, err := d.r.Seek(d.base+offset, io.SeekStart); err != nil {
		return err
	}
	d.br.Reset(d.r)
	d.offset = offset
	return nil
}

// ReadRunes implements cursor.CharSource. Undecodable bytes yield
// utf8.RuneError.
func (d *Decoder) ReadRunes(buf []rune) (int, error) {
	for i := range buf {
		r, size, err := d.next()
		if errors.Is(err, io.EOF) {
			if i == 0 {
				return 0, io.EOF
			}
			return i, nil
		}
		if err != nil {
			return i, err
		}
		buf[i] = r
		d.offset += int64(size)
	}
	return len(buf), nil
}

// Close closes the underlying stream if it is closable.
func (d *Decoder) Close() error {
	if c, ok := d.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (d *Decoder) next() (rune, int, error) {
	switch {
	case d.charmap != nil:
		b, err := d.br.ReadByte()
		if err != nil {
			return 0, 0, err
		}
		return d.charmap.DecodeByte(b), 1, nil
	case d.encoding == UTF16LE || d.encoding == UTF16BE:
		return d.next16()
	default:
		r, size, err := d.br.ReadRune()
		if err != nil {
			return 0, 0, err
		}
		return r, size, nil
	}
}

func (d *Decoder) next16() (rune, int, error) {
	var b [2]byte
	n, err := io.ReadFull(d.br, b[:])
	if n == 0 {
		return 0, 0, io.EOF
	}
	if err != nil {
		return utf8.RuneError, n, nil
	}
	u := d.unit(b)
	if !utf16.IsSurrogate(rune(u)) {
		return rune(u), 2, nil
	}
	peek, err := d.br.Peek(2)
	if err != nil || len(peek) < 2 {
		return utf8.RuneError, 2, nil
	}
	low := d.unit([2]byte{peek[0], peek[1]})
	r := utf16.DecodeRune(rune(u), rune(low))
	if r == utf8.RuneError {
		return utf8.RuneError, 2, nil
	}
	_, _ = d.br.Discard(2)
	return r, 4, nil
}

func (d *Decoder) unit(b [2]byte) uint16 {
	if d.encoding == UTF16BE {
		return uint16(b[0])<<8 | uint16(b[1])
	}
	return uint16(b[1])<<8 | uint16(b[0])
}
