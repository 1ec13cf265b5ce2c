// Package program is the in-memory program model that code-generation
// metadata attaches to: compute ops, loop ops that report partitionable
// loops, entry points with a workgroup size, and dispatches grouping them.
//
// Ops are not safe for concurrent mutation. A dispatch is owned by one
// pass at a time.
package program
