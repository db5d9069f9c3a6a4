// Package printing contains the label printing bounded context.
// It models printers and their paper in physical units, converts physical
// sizes to device pixels and describes the payload sent to a print backend.
package printing
