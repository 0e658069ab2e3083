// Package history keeps the finished stroke records of a layered drawing and
// replays them.
//
// A Layer is an ordered list of non-empty records plus a translation. Brush
// swaps and moves never edit a record: they replace it with a derived one or
// change how the layer is replayed.
//
// A Replayer renders a layer onto a surface one record at a time. Records
// with corrupt data are logged and skipped; any other error stops the
// replay. Replay checks its context between records, so a long layer can be
// cancelled at a stroke boundary.
package history
