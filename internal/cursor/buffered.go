package cursor

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/zjrosen/peruse/internal/log"
)

const (
	// DefaultBlockSize is the number of characters per cached block.
	DefaultBlockSize = 4096

	// DefaultBlockCount is the number of blocks kept in memory.
	DefaultBlockCount = 64
)

// CharSource is a seekable character stream. Characters have variable width
// in the underlying bytes, so a character index can only be turned into a
// byte offset after the stream has been read up to it once.
type CharSource interface {
	// Offset returns the byte offset of the next character to be read.
	Offset() int64

	// Seek moves to a byte offset previously returned by Offset.
	Seek(offset int64) error

	// ReadRunes reads up to len(buf) characters. It returns io.EOF only when
	// no characters remain.
	ReadRunes(buf []rune) (int, error)
}

// BufferedPosition is the position of a Buffered cursor. Besides the
// character index it carries the nearest block whose byte offset is known,
// so restoring it never requires rescanning from the start of the stream.
type BufferedPosition struct {
	Index  int64
	Block  int64
	Offset int64
}

// Kind implements Position.
func (BufferedPosition) Kind() string { return "buffered" }

// BufferedOptions configures a Buffered cursor.
type BufferedOptions struct {
	BlockSize  int
	BlockCount int
}

type block struct {
	no   int64
	data []rune
}

// Buffered is a leaf cursor giving character-at-a-time access to a
// CharSource. The stream is read in fixed-size blocks, a bounded number of
// which are cached. Byte offsets of every block boundary ever crossed are
// remembered so known blocks can be reached with a single seek.
type Buffered struct {
	src       CharSource
	blockSize int64

	cache  *simplelru.LRU[int64, *block]
	known  []int64 // sorted block numbers with a known byte offset
	starts map[int64]int64
	hinted map[int64]bool // starts taken from a position, not yet read

	endKnown  bool
	lastIndex int64

	index   int64
	current rune
	isLast  bool
}

// NewBuffered creates a cursor standing on the first character of src.
// Returns ErrNotSeekable if src cannot seek to its start and ErrEmptyInput if
// the stream holds no characters.
func NewBuffered(src CharSource, opts BufferedOptions) (*Buffered, error) {
	if opts.BlockSize <= 0 {
		opts.BlockSize = DefaultBlockSize
	}
	if opts.BlockCount <= 0 {
		opts.BlockCount = DefaultBlockCount
	}
	if err := src.Seek(0); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotSeekable, err)
	}
	cache, err := simplelru.NewLRU[int64, *block](opts.BlockCount, nil)
	if err != nil {
		return nil, fmt.Errorf("block cache: %w", err)
	}
	b := &Buffered{
		src:       src,
		blockSize: int64(opts.BlockSize),
		cache:     cache,
		starts:    map[int64]int64{0: 0},
		hinted:    make(map[int64]bool),
		known:     []int64{0},
		lastIndex: -1,
	}
	ok, err := b.exists(0)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrEmptyInput
	}
	if err := b.moveTo(0); err != nil {
		return nil, err
	}
	return b, nil
}

// Current implements Cursor.
func (b *Buffered) Current() rune { return b.current }

// IsFirst implements Cursor.
func (b *Buffered) IsFirst() bool { return b.index == 0 }

// IsLast implements Cursor.
func (b *Buffered) IsLast() bool { return b.isLast }

// Index returns the character index the cursor stands on.
func (b *Buffered) Index() int64 { return b.index }

// Next implements Cursor.
func (b *Buffered) Next() error {
	if b.isLast {
		return ErrOutOfRange
	}
	return b.moveTo(b.index + 1)
}

// Prev implements Cursor.
func (b *Buffered) Prev() error {
	if b.index == 0 {
		return ErrOutOfRange
	}
	return b.moveTo(b.index - 1)
}

// Position implements Cursor.
func (b *Buffered) Position() Position {
	no := b.index / b.blockSize
	if _, ok := b.starts[no]; !ok {
		no = b.nearestKnown(no)
	}
	return BufferedPosition{Index: b.index, Block: no, Offset: b.starts[no]}
}

// SetPosition implements Cursor. Positions of any other shape are rejected,
// and so are indexes past a discovered end of stream.
func (b *Buffered) SetPosition(p Position) error {
	bp, ok := p.(BufferedPosition)
	if !ok {
		return fmt.Errorf("buffered cursor given %T: %w", p, ErrForeignPosition)
	}
	if bp.Index < 0 || bp.Block < 0 || bp.Block*b.blockSize > bp.Index {
		return fmt.Errorf("buffered position %+v: %w", bp, ErrOutOfRange)
	}
	if b.endKnown && bp.Index > b.lastIndex {
		return fmt.Errorf("index %d past end %d: %w", bp.Index, b.lastIndex, ErrOutOfRange)
	}
	if _, ok := b.starts[bp.Block]; !ok {
		b.remember(bp.Block, bp.Offset)
		b.hinted[bp.Block] = true
	}
	return b.moveTo(bp.Index)
}

// Close closes the underlying source if it is closable.
func (b *Buffered) Close() error {
	if c, ok := b.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (b *Buffered) moveTo(i int64) error {
	r, err := b.runeAt(i)
	if err != nil {
		return err
	}
	next, err := b.exists(i + 1)
	if err != nil {
		return err
	}
	b.index = i
	b.current = r
	b.isLast = !next
	return nil
}

func (b *Buffered) runeAt(i int64) (rune, error) {
	ok, err := b.exists(i)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("index %d: %w", i, ErrOutOfRange)
	}
	blk, err := b.block(i / b.blockSize)
	if err != nil {
		return 0, err
	}
	return blk.data[i%b.blockSize], nil
}

func (b *Buffered) exists(i int64) (bool, error) {
	if i < 0 {
		return false, nil
	}
	if b.endKnown && i > b.lastIndex {
		return false, nil
	}
	blk, err := b.block(i / b.blockSize)
	if err != nil {
		return false, err
	}
	return blk != nil && i%b.blockSize < int64(len(blk.data)), nil
}

// block returns block no, reading forward from the nearest known block
// when its offset has not been discovered yet. It returns nil when the
// stream ends before block no.
func (b *Buffered) block(no int64) (*block, error) {
	if blk, ok := b.cache.Get(no); ok {
		return blk, nil
	}
	if _, ok := b.starts[no]; !ok {
		for n := b.nearestKnown(no); n < no; n++ {
			blk, err := b.load(n)
			if err != nil {
				return nil, err
			}
			if int64(len(blk.data)) < b.blockSize {
				return nil, nil
			}
		}
	}
	return b.load(no)
}

func (b *Buffered) load(no int64) (*block, error) {
	if blk, ok := b.cache.Get(no); ok {
		return blk, nil
	}
	blk, err := b.read(no)
	if err != nil {
		return nil, err
	}
	b.cache.Add(no, blk)
	return blk, nil
}

func (b *Buffered) read(no int64) (*block, error) {
	start := b.starts[no]
	if err := b.src.Seek(start); err != nil {
		if b.hinted[no] {
			delete(b.hinted, no)
			b.forget(no)
			return nil, fmt.Errorf("seeking block %d at %d: %w: %w", no, start, ErrStalePosition, err)
		}
		return nil, fmt.Errorf("seeking block %d at %d: %w", no, start, err)
	}
	data := make([]rune, b.blockSize)
	n := 0
	for n < len(data) {
		m, err := b.src.ReadRunes(data[n:])
		n += m
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading block %d: %w", no, err)
		}
		if m == 0 {
			break
		}
	}
	log.Debug(log.CatSource, "block read", "block", no, "offset", start, "chars", n)
	if b.hinted[no] {
		delete(b.hinted, no)
		if n == 0 {
			// The position came from a longer version of the stream.
			b.forget(no)
			return nil, fmt.Errorf("no characters in block %d at offset %d: %w", no, start, ErrStalePosition)
		}
	}
	if int64(n) < b.blockSize {
		b.endKnown = true
		b.lastIndex = no*b.blockSize + int64(n) - 1
	} else {
		b.remember(no+1, b.src.Offset())
	}
	return &block{no: no, data: data[:n]}, nil
}

func (b *Buffered) remember(no, offset int64) {
	if _, ok := b.starts[no]; ok {
		return
	}
	b.starts[no] = offset
	i, _ := slices.BinarySearch(b.known, no)
	b.known = slices.Insert(b.known, i, no)
}

func (b *Buffered) forget(no int64) {
	delete(b.starts, no)
	if i, ok := slices.BinarySearch(b.known, no); ok {
		b.known = slices.Delete(b.known, i, i+1)
	}
}

// nearestKnown returns the greatest known block number below no.
func (b *Buffered) nearestKnown(no int64) int64 {
	i, _ := slices.BinarySearch(b.known, no)
	if i == 0 {
		return 0
	}
	return b.known[i-1]
}
