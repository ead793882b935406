package bookmark

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zjrosen/peruse/internal/cursor"
	"github.com/zjrosen/peruse/internal/layout"
	"github.com/zjrosen/peruse/internal/markup"
)

// ErrUnsupportedPosition is returned for positions the codec does not know,
// and for stored documents of an unknown version.
var ErrUnsupportedPosition = errors.New("unsupported position")

// Version is the version of the stored position format.
const Version = 1

type document struct {
	Version  int   `json:"version"`
	Position *node `json:"position"`
}

// node is one layer of a position. Kind selects which fields are set.
type node struct {
	Kind       string   `json:"kind"`
	Index      int64    `json:"index,omitempty"`
	Block      int64    `json:"block,omitempty"`
	Offset     int64    `json:"offset,omitempty"`
	Ordinal    int64    `json:"ordinal,omitempty"`
	Epoch      uint64   `json:"epoch,omitempty"`
	Generation uint64   `json:"generation,omitempty"`
	Styles     []string `json:"styles,omitempty"`
	Inner      *node    `json:"inner,omitempty"`
}

// Encode returns the stored form of p.
func Encode(p cursor.Position) ([]byte, error) {
	n, err := toNode(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(document{Version: Version, Position: n})
}

// Decode parses a position stored by Encode.
func Decode(data []byte) (cursor.Position, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding position: %w", err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("position format version %d: %w", doc.Version, ErrUnsupportedPosition)
	}
	return fromNode(doc.Position)
}

func toNode(p cursor.Position) (*node, error) {
	switch p := p.(type) {
	case cursor.ArrayPosition:
		return &node{Kind: p.Kind(), Index: int64(p.Index)}, nil
	case cursor.BufferedPosition:
		return &node{Kind: p.Kind(), Index: p.Index, Block: p.Block, Offset: p.Offset}, nil
	case cursor.AggregatePosition:
		return wrap(&node{Kind: p.Kind()}, p.Begin)
	case cursor.SplitPosition:
		return wrap(&node{Kind: p.Kind(), Index: int64(p.Index), Ordinal: p.Ordinal, Epoch: p.Epoch}, p.Inner)
	case cursor.CachePosition:
		return wrap(&node{Kind: p.Kind(), Index: p.Index, Generation: p.Generation}, p.Inner)
	case layout.BuilderPosition:
		n := &node{Kind: p.Kind()}
		for _, s := range p.Styles {
			n.Styles = append(n.Styles, string(s))
		}
		return wrap(n, p.Inner)
	case nil:
		return nil, fmt.Errorf("nil position: %w", ErrUnsupportedPosition)
	default:
		return nil, fmt.Errorf("position kind %q: %w", p.Kind(), ErrUnsupportedPosition)
	}
}

func wrap(n *node, inner cursor.Position) (*node, error) {
	in, err := toNode(inner)
	if err != nil {
		return nil, err
	}
	n.Inner = in
	return n, nil
}

func fromNode(n *node) (cursor.Position, error) {
	if n == nil {
		return nil, fmt.Errorf("missing position: %w", ErrUnsupportedPosition)
	}
	switch n.Kind {
	case "array":
		return cursor.ArrayPosition{Index: int(n.Index)}, nil
	case "buffered":
		return cursor.BufferedPosition{Index: n.Index, Block: n.Block, Offset: n.Offset}, nil
	}

	inner, err := fromNode(n.Inner)
	if err != nil {
		return nil, err
	}
	switch n.Kind {
	case "aggregate":
		return cursor.AggregatePosition{Begin: inner}, nil
	case "split":
		return cursor.SplitPosition{Inner: inner, Index: int(n.Index), Ordinal: n.Ordinal, Epoch: n.Epoch}, nil
	case "cache":
		return cursor.CachePosition{Inner: inner, Index: n.Index, Generation: n.Generation}, nil
	case "builder":
		var styles []markup.Style
		for _, s := range n.Styles {
			st, ok := markup.ParseStyle(s)
			if !ok {
				return nil, fmt.Errorf("style %q: %w", s, ErrUnsupportedPosition)
			}
			styles = append(styles, st)
		}
		return layout.BuilderPosition{Inner: inner, Styles: styles}, nil
	default:
		return nil, fmt.Errorf("position kind %q: %w", n.Kind, ErrUnsupportedPosition)
	}
}
