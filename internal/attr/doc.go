// Package attr provides the immutable, structurally compared attribute
// values that code-generation metadata is built from.
//
// This package has no internal imports. Every other internal package that
// reads or writes metadata builds on attr.
//
// Key design constraints:
//   - NO float attributes anywhere; all numbers are int64
//   - An absent ArrayAttr (nil) is distinct from a present empty one
//   - Identity is structural: canonical JSON + SHA-256 (see Hash)
//   - Attributes are never mutated after construction, so a Pool may share
//     one instance between any number of operations
package attr
