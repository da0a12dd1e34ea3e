// Package nodes implements the data layer that source and transformer
// plugins populate through their action channels. Every unit of sourced data
// (a file, a parsed document, a remote record) is a Node; the schema phase
// and page creation read from this store.
package nodes

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Node is a unit of data in the data layer.
//
// Parent and Children express derivation: a transformer that parses a File
// node into a richer representation creates a child node and links the two.
type Node struct {
	// ID uniquely identifies the node. Left empty, the store assigns a UUID.
	ID string

	// Type groups nodes for schema inference and per-type dispatch
	// (e.g. "File", "MarkdownPage").
	Type string

	// Parent is the ID of the node this one was derived from, if any.
	Parent string

	// Children lists IDs of nodes derived from this one.
	Children []string

	// Owner is the plugin that created the node.
	Owner string

	// MediaType is the IANA media type of Content (e.g. "text/markdown").
	MediaType string

	// ContentDigest is a stable digest of the node's content, used for
	// change detection. Markdown nodes carry an mdfp fingerprint; other
	// nodes a sha256 hex digest.
	ContentDigest string

	CreatedAt time.Time

	// Fields holds structured data attached by plugins.
	Fields map[string]any

	// Content is the raw content, when the node carries any.
	Content []byte
}

// Validate checks structural invariants before the node enters the store.
func (n *Node) Validate() error {
	if n.Type == "" {
		return fmt.Errorf("node type is required")
	}
	if n.Owner == "" {
		return fmt.Errorf("node owner is required")
	}
	return nil
}

// Field returns a field value, or nil when absent.
func (n *Node) Field(key string) any {
	if n.Fields == nil {
		return nil
	}
	return n.Fields[key]
}

// StringField returns a field as a string, or "" when absent or not a string.
func (n *Node) StringField(key string) string {
	if v, ok := n.Field(key).(string); ok {
		return v
	}
	return ""
}

// NewID returns a fresh node ID.
func NewID() string {
	return uuid.NewString()
}

// Digest computes a sha256 hex digest over content.
func Digest(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}
