// Package cache materializes decoded NHANES files on local disk.
//
// Each (cycle, file) pair maps to one artifact path:
//
//	<dir>/<cycle>/<file without extension>.csv
//
// The presence of that file is the whole validity check. A present artifact
// is read back and the remote file is never fetched again; artifacts are
// never invalidated automatically and must be removed with Clear. A stale or
// truncated artifact left by an interrupted external process is reused as
// is. Artifacts written by this package go through a temporary file and a
// rename, so a crash mid-write leaves no artifact behind.
//
// Concurrent processes sharing a directory are not coordinated: the last
// writer of an artifact wins.
package cache
