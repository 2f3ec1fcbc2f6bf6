// Package model defines the shared value types for schedule
// reconstruction: geometry primitives (Point, BBox, Line), positioned
// tokens, row clusters, assembled records, and the page geometry input
// contract.
//
// All types are plain values in page/image coordinates with Y growing
// downward. The reconstruction packages (pseudogrid, realgrid) consume
// and produce these types; nothing in this package performs I/O.
package model
