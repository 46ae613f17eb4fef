// Package table holds the in-memory tabular form shared by every stage of
// dataset assembly: decoded files, per-cycle tables and the final dataset.
//
// A Table is a list of column names plus string rows. Every cell is the
// textual form of the value and the empty string marks a missing value, the
// same convention the on-disk CSV artifacts use, so tables read back from the
// cache are indistinguishable from freshly decoded ones.
package table
