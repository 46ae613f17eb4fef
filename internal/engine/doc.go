// Package engine assembles analysis-ready NHANES datasets.
//
// Given variable names and survey cycles, the engine resolves which data
// files hold the variables, loads each file through the cache, merges the
// files of one cycle column-wise on the subject identifier and stacks the
// cycles row-wise into one dataset with the identifier first.
//
// ARCHITECTURE:
//
// Assemble runs the stages strictly in order, one cycle at a time and one
// file at a time:
//
//  1. Normalize: canonicalize names, add the identifier, reject unknown
//     variables or cycles before any I/O
//  2. Resolve (per cycle): the distinct files covering the variables
//  3. Retrieve (per cycle): load every resolved file through the cache
//  4. Assemble (per cycle): seed with the first file, join the rest on the
//     identifier with the request's join mode
//  5. Combine: concatenate cycles in request order, identifier first
//
// There is no retry and no partial result. Any failure ends the run in
// PhaseFailed; files already materialized in the cache stay there and are
// reused by the next run.
//
// An Engine is not safe for concurrent use. Callers that serve several
// requests must serialize calls to Assemble.
package engine
