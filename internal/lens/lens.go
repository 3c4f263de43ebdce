// Package lens implements the AST Index from spec §2/§3: a lookup from
// stable node identifiers to live AST nodes, plus dotted beat path
// computation and the beat-name resolution search used by transitions,
// calls, and insertions (spec §4.4). It is built once per parsed script
// and consulted by both the Continuation Core and the Restorer.
package lens

import (
	"strings"

	"github.com/jeremyfa/loreline-go/ast"
)

// Lens is the built index over one Script.
type Lens struct {
	root          *ast.Script
	byID          map[ast.NodeID]ast.Node
	enclosingBeat map[ast.NodeID]*ast.BeatDecl
	beatsByPath   map[string]*ast.BeatDecl
	beatsByID     map[ast.NodeID]*ast.BeatDecl
	rootBeats     []*ast.BeatDecl
	functions     map[string]*ast.FunctionDecl
	characters    map[string]*ast.CharacterDecl
}

// Build walks script and produces a Lens indexing every node it
// contains.
func Build(script *ast.Script) *Lens {
	l := &Lens{
		root:          script,
		byID:          map[ast.NodeID]ast.Node{},
		enclosingBeat: map[ast.NodeID]*ast.BeatDecl{},
		beatsByPath:   map[string]*ast.BeatDecl{},
		beatsByID:     map[ast.NodeID]*ast.BeatDecl{},
		functions:     map[string]*ast.FunctionDecl{},
		characters:    map[string]*ast.CharacterDecl{},
	}
	l.index(script, nil)
	return l
}

func (l *Lens) index(n ast.Node, enclosing *ast.BeatDecl) {
	if n == nil {
		return
	}
	l.byID[n.ID()] = n
	if enclosing != nil {
		l.enclosingBeat[n.ID()] = enclosing
	}

	nextEnclosing := enclosing
	switch v := n.(type) {
	case *ast.BeatDecl:
		l.beatsByID[v.ID()] = v
		path := v.DottedPath()
		l.beatsByPath[path] = v
		if v.Parent == nil {
			l.rootBeats = append(l.rootBeats, v)
		}
		nextEnclosing = v
	case *ast.FunctionDecl:
		l.functions[v.Name] = v
	case *ast.CharacterDecl:
		l.characters[v.Name] = v
	}

	for _, child := range n.Children() {
		l.index(child, nextEnclosing)
	}
}

// Script returns the indexed root.
func (l *Lens) Script() *ast.Script { return l.root }

// NodeByID returns the live node for id, if any.
func (l *Lens) NodeByID(id ast.NodeID) (ast.Node, bool) {
	n, ok := l.byID[id]
	return n, ok
}

// EnclosingBeat returns the beat whose body (transitively) contains id.
func (l *Lens) EnclosingBeat(id ast.NodeID) (*ast.BeatDecl, bool) {
	b, ok := l.enclosingBeat[id]
	return b, ok
}

// BeatByPath looks up a beat by its full dotted path.
func (l *Lens) BeatByPath(path string) (*ast.BeatDecl, bool) {
	b, ok := l.beatsByPath[path]
	return b, ok
}

// BeatByID looks up a beat by its own node id.
func (l *Lens) BeatByID(id ast.NodeID) (*ast.BeatDecl, bool) {
	b, ok := l.beatsByID[id]
	return b, ok
}

// RootBeats returns the top-level (unnested) beats in declaration order.
func (l *Lens) RootBeats() []*ast.BeatDecl {
	out := make([]*ast.BeatDecl, len(l.rootBeats))
	copy(out, l.rootBeats)
	return out
}

// FunctionByName looks up a script-level function declaration.
func (l *Lens) FunctionByName(name string) (*ast.FunctionDecl, bool) {
	f, ok := l.functions[name]
	return f, ok
}

// CharacterByName looks up a character declaration.
func (l *Lens) CharacterByName(name string) (*ast.CharacterDecl, bool) {
	c, ok := l.characters[name]
	return c, ok
}

// ResolveBeat implements the Transition/Call target search from spec
// §4.4: search from the enclosing beat outward (nested children of the
// enclosing beat, then ancestor beats and their nested children, then the
// script root), matching by dotted path when target contains a dot.
// Special targets "." and "_" are handled by the caller (they do not name
// a beat to search for).
func (l *Lens) ResolveBeat(from *ast.BeatDecl, target string) (*ast.BeatDecl, bool) {
	if strings.Contains(target, ".") {
		if b, ok := l.beatsByPath[target]; ok {
			return b, true
		}
		// Fall through to a plain-name search keyed on the path's final
		// component, in case the dotted name was relative rather than
		// absolute.
		parts := strings.Split(target, ".")
		target = parts[len(parts)-1]
	}

	for beat := from; beat != nil; beat = beat.Parent {
		if child := findNestedBeatByName(beat, target); child != nil {
			return child, true
		}
		if beat.Name == target {
			return beat, true
		}
	}

	for _, root := range l.rootBeats {
		if found := findBeatByNameDFS(root, target); found != nil {
			return found, true
		}
	}
	return nil, false
}

func findNestedBeatByName(beat *ast.BeatDecl, name string) *ast.BeatDecl {
	for _, stmt := range beat.Body {
		if nested, ok := stmt.(*ast.BeatDecl); ok {
			if nested.Name == name {
				return nested
			}
		}
	}
	return nil
}

func findBeatByNameDFS(beat *ast.BeatDecl, name string) *ast.BeatDecl {
	if beat.Name == name {
		return beat
	}
	for _, stmt := range beat.Body {
		if nested, ok := stmt.(*ast.BeatDecl); ok {
			if found := findBeatByNameDFS(nested, name); found != nil {
				return found
			}
		}
	}
	return nil
}
