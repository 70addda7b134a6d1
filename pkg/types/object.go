// Package types defines the walker-facing contract for the terravc spatial
// filter: object identities, object kinds, visit situations, and the
// traversal directives the filter hands back.
package types

import (
	"encoding/hex"
	"fmt"
)

// ObjectKind identifies the kind of a content-addressed object.
type ObjectKind int

const (
	KindUnknown ObjectKind = iota
	KindCommit
	KindTree
	KindBlob
	KindTag
)

// String returns the canonical lowercase name of the kind.
func (k ObjectKind) String() string {
	switch k {
	case KindCommit:
		return "commit"
	case KindTree:
		return "tree"
	case KindBlob:
		return "blob"
	case KindTag:
		return "tag"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ObjectKindFromString parses a kind name as emitted by String.
func ObjectKindFromString(s string) (ObjectKind, error) {
	switch s {
	case "commit":
		return KindCommit, nil
	case "tree":
		return KindTree, nil
	case "blob":
		return KindBlob, nil
	case "tag":
		return KindTag, nil
	default:
		return KindUnknown, fmt.Errorf("unknown object kind %q", s)
	}
}

// Situation is the traversal phase the walker reports for a visited object.
// BeginTree and EndTree bracket descent into a tree; every other kind is
// delivered exactly once.
type Situation int

const (
	SituationUnknown Situation = iota
	SituationCommit
	SituationTag
	SituationBeginTree
	SituationEndTree
	SituationBlob
)

// String returns the canonical name of the situation.
func (s Situation) String() string {
	switch s {
	case SituationCommit:
		return "commit"
	case SituationTag:
		return "tag"
	case SituationBeginTree:
		return "begin-tree"
	case SituationEndTree:
		return "end-tree"
	case SituationBlob:
		return "blob"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// SituationFromString parses a situation name as emitted by String.
func SituationFromString(s string) (Situation, error) {
	switch s {
	case "commit":
		return SituationCommit, nil
	case "tag":
		return SituationTag, nil
	case "begin-tree":
		return SituationBeginTree, nil
	case "end-tree":
		return SituationEndTree, nil
	case "blob":
		return SituationBlob, nil
	default:
		return SituationUnknown, fmt.Errorf("unknown situation %q", s)
	}
}

// ObjectID is the fixed-width content hash identifying an object, held as
// raw bytes exactly as the index stores them. The filter only ever reads
// identities handed to it by the walker.
type ObjectID []byte

// Hex returns the lowercase hex encoding of the identity.
func (id ObjectID) Hex() string {
	return hex.EncodeToString(id)
}

// ObjectIDFromHex decodes a hex-encoded identity.
func ObjectIDFromHex(s string) (ObjectID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid object id %q: %w", s, err)
	}
	return ObjectID(b), nil
}

// Object is a visited object as delivered by the walker.
type Object struct {
	ID   ObjectID
	Kind ObjectKind
}

// Directive tells the walker what to do with a visited object.
// MarkSeen and Show correspond to the walker's traversal-control flags;
// Omit is set only when the object must be excluded from the result set.
type Directive struct {
	MarkSeen bool
	Show     bool
	Omit     bool
}

// Directive values for the common transitions.
var (
	// DirectiveShow includes the object in the result and marks it seen.
	DirectiveShow = Directive{MarkSeen: true, Show: true}
	// DirectiveOmit marks the object seen and excludes it from the result.
	DirectiveOmit = Directive{MarkSeen: true, Omit: true}
	// DirectiveNone is the no-op directive (end-tree).
	DirectiveNone = Directive{}
)
