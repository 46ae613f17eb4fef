// Package xpt reads and writes SAS XPORT version 5 transport files, the
// format NHANES publishes its .XPT data files in.
//
// A transport file is a sequence of 80-byte records: a library header, then
// per member a descriptor, one NAMESTR entry per variable and the
// observations as fixed-width rows. Numeric values are IBM 370 floating
// point; character values are blank padded ISO 8859-1 text.
//
// Only the first member of a library is decoded. NHANES files always hold
// exactly one.
package xpt
