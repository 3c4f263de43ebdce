package serialize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jeremyfa/loreline-go/ast"
	"github.com/jeremyfa/loreline-go/internal/exprvm"
)

// currentVersion is the save format's version number (spec §4.7.1,
// §4.7.3's forward-compatibility rule: a restorer refuses anything
// greater than its own).
const currentVersion = 1

// Document is the save format from spec §4.7.1, encoded with
// encoding/json for its well-typed envelope; leaf value/delta payloads
// nested inside it are the tagged JSON strings value.go/container.go
// produce, kept as opaque strings here rather than unmarshaled into
// concrete Go values up front.
type Document struct {
	Version int `json:"version"`

	Stack      []ScopeRecord              `json:"stack"`
	State      string                     `json:"state"`
	Characters map[string]string          `json:"characters"`
	NodeState  map[string]string          `json:"nodeState"`
	Insertions map[string]InsertionRecord `json:"insertions"`

	NextScopeID     int64 `json:"nextScopeId"`
	NextInsertionID int64 `json:"nextInsertionId"`
}

// NodeRef is the save format's recurring `{ id string, kind string }`
// shape identifying one AST node.
type NodeRef struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

// BeatRef is the `{ id string, dotted path }` shape used for beats,
// which restore resolves by path first and id second (spec §4.7.3 step
// 3).
type BeatRef struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// ScopeRecord is one entry of the save format's `stack`/insertion
// `stack` arrays (spec §4.7.1).
type ScopeRecord struct {
	ID int64 `json:"id"`

	Beat        *BeatRef          `json:"beat,omitempty"`
	Node        NodeRef           `json:"node"`
	BodyHead    *NodeRef          `json:"bodyHead,omitempty"`
	LocalState  *LocalStateRecord `json:"localState,omitempty"`
	NestedBeats []BeatRef         `json:"nestedBeats,omitempty"`
	InsertionID *int64            `json:"insertionId,omitempty"`
}

// LocalStateRecord is a scope's `local state` field: either a reference
// to a non-temporary container (already carried in full by the save's
// `nodeState` map, keyed by Owner) or a full value snapshot for a
// temporary one, which exists nowhere else in the save.
type LocalStateRecord struct {
	Temporary bool   `json:"temporary"`
	Owner     string `json:"owner"`
	Full      string `json:"full,omitempty"`
}

// InsertionRecord is the save format's insertion record (spec §4.7.1).
// Collected is not named in §4.7.1's logical shape directly, but is
// needed to tell apart the two ways an insertion can end up in this map:
// one still being collected (reachable only through a live-stack scope's
// attachment, never yet presented) versus one already collected and kept
// only for history (reachable through another insertion's captured
// stack). Restoring the wrong value would make evalChoice either
// re-collect a choice that had already been presented, or skip
// re-collecting one that genuinely hadn't.
type InsertionRecord struct {
	Origin    NodeRef        `json:"origin"`
	Collected bool           `json:"collected"`
	Options   []OptionRecord `json:"options"`
	Stack     []ScopeRecord  `json:"stack"`
}

// OptionRecord is the save format's choice option record (spec §4.7.1).
type OptionRecord struct {
	DisplayText string       `json:"displayText"`
	Tags        []exprvm.Tag `json:"tags,omitempty"`
	Enabled     bool         `json:"enabled"`
	Source      NodeRef      `json:"source"`
	InsertionID *int64       `json:"insertionId,omitempty"`
}

// marshalDocument/unmarshalDocument use encoding/json directly: unlike
// the leaf value payloads in value.go/container.go, the envelope's shape
// is fixed and fully typed, so struct-tag marshaling is a better fit than
// gjson/sjson's untyped-document manipulation.
func marshalDocument(doc Document) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func unmarshalDocument(blob string) (Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(blob), &doc); err != nil {
		return Document{}, fmt.Errorf("serialize: malformed save: %w", err)
	}
	return doc, nil
}

func nodeRef(n ast.Node) NodeRef {
	return NodeRef{ID: nodeIDKey(n.ID()), Kind: n.Kind().String()}
}

func beatRef(b *ast.BeatDecl) BeatRef {
	return BeatRef{ID: nodeIDKey(b.ID()), Path: b.DottedPath()}
}

func nodeIDKey(id ast.NodeID) string {
	return id.String()
}

func parseNodeID(s string) (ast.NodeID, error) {
	section, offset, ok := strings.Cut(s, ":")
	if !ok {
		return ast.NodeID{}, fmt.Errorf("serialize: malformed node id %q", s)
	}
	sec, err := strconv.Atoi(section)
	if err != nil {
		return ast.NodeID{}, fmt.Errorf("serialize: malformed node id %q: %w", s, err)
	}
	off, err := strconv.Atoi(offset)
	if err != nil {
		return ast.NodeID{}, fmt.Errorf("serialize: malformed node id %q: %w", s, err)
	}
	return ast.NodeID{Section: sec, Offset: off}, nil
}
