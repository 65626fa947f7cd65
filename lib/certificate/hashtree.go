// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package certificate

import (
	"errors"
	"fmt"

	"github.com/aviate-labs/agent-go/certification/hashtree"

	"github.com/claimlink/signer/lib/codec"
)

// Digest is a SHA-256 hash tree digest.
type Digest [32]byte

// HashTree is a decoded, immutable hash tree.
type HashTree struct {
	tree hashtree.HashTree
}

// Digest returns the reconstructed root hash.
func (t *HashTree) Digest() Digest {
	return t.tree.Digest()
}

// DecodeTree decodes a CBOR-encoded hash tree.
func DecodeTree(encoded []byte) (*HashTree, error) {
	var generic any
	if err := codec.Unmarshal(encoded, &generic); err != nil {
		return nil, fmt.Errorf("decoding hash tree: %w", err)
	}
	if err := checkShape(generic); err != nil {
		return nil, fmt.Errorf("decoding hash tree: %w", err)
	}
	root, err := hashtree.DeserializeNode(generic.([]any))
	if err != nil {
		return nil, fmt.Errorf("decoding hash tree: %w", err)
	}
	return &HashTree{tree: hashtree.NewHashTree(root)}, nil
}

// checkShape rejects nodes that are not non-empty arrays before the
// deserializer indexes into them.
func checkShape(value any) error {
	elements, ok := value.([]any)
	if !ok || len(elements) == 0 {
		return fmt.Errorf("hash tree node is %T, want non-empty array", value)
	}
	for _, element := range elements[1:] {
		if _, nested := element.([]any); nested {
			if err := checkShape(element); err != nil {
				return err
			}
		}
	}
	return nil
}

// LookupStatus is the outcome of a path lookup.
type LookupStatus int

const (
	// Found means the path leads to a leaf; its value is returned.
	Found LookupStatus = iota
	// Absent means the tree proves the path does not exist.
	Absent
	// Unknown means the path is hidden behind a pruned subtree.
	Unknown
	// NotLeaf means the path leads to an inner node.
	NotLeaf
)

func (s LookupStatus) String() string {
	switch s {
	case Found:
		return "found"
	case Absent:
		return "absent"
	case Unknown:
		return "unknown"
	case NotLeaf:
		return "not a leaf"
	default:
		return fmt.Sprintf("LookupStatus(%d)", int(s))
	}
}

// Path is a sequence of labels.
type Path [][]byte

// NewPath builds a path from string and byte-slice labels.
func NewPath(labels ...any) Path {
	path := make(Path, 0, len(labels))
	for _, label := range labels {
		switch typed := label.(type) {
		case string:
			path = append(path, []byte(typed))
		case []byte:
			path = append(path, typed)
		default:
			panic(fmt.Sprintf("certificate.NewPath: unsupported label type %T", label))
		}
	}
	return path
}

// Lookup follows path through the tree.
func (t *HashTree) Lookup(path Path) ([]byte, LookupStatus) {
	labels := make([]hashtree.Label, len(path))
	for i, label := range path {
		labels[i] = label
	}
	value, err := t.tree.Lookup(labels...)
	if err == nil {
		return value, Found
	}
	var lookupErr hashtree.LookupError
	if !errors.As(err, &lookupErr) {
		return nil, NotLeaf
	}
	switch lookupErr.Type {
	case hashtree.LookupResultAbsent:
		return nil, Absent
	case hashtree.LookupResultUnknown:
		return nil, Unknown
	default:
		return nil, NotLeaf
	}
}
