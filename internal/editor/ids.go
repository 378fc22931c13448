// Package editor implements the document mutation API. Every operation is a
// total function: it takes a document and returns either a modified copy and
// a journal description, or the same document and an empty description when
// nothing changed.
package editor

import "github.com/google/uuid"

// NewElementID returns a fresh element id.
func NewElementID() string {
	return "el-" + uuid.NewString()
}

// NewStyleClassID returns a fresh style class id.
func NewStyleClassID() string {
	return "class-" + uuid.NewString()
}
