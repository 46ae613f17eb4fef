// Package harness runs dataset assembly scenarios against an in-process
// engine with canned NHANES files.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	catalog:
//	  "2015-2016":
//	    DEMO_I.XPT: [RIAGENDR]
//	    DIQ_I.XPT: [DIQ010]
//	files:
//	  - year: "2015-2016"
//	    file: DIQ_I.XPT
//	    columns: [SEQN, DIQ010]
//	    rows:
//	      - ["83732", "1"]
//	  - year: "2015-2016"
//	    file: DEMO_I.XPT
//	    fail: "connection reset"   # download fails
//	steps:
//	  - request:
//	      vars: [DIQ010]
//	      years: ["2015-2016"]
//	      join: outer
//	    expect:
//	      phase: Done
//	      columns: [SEQN, DIQ010]
//	      rows: 1
//	      fetches: 1
//	assertions:
//	  - type: cached
//	    year: "2015-2016"
//	    file: DIQ_I.XPT
//	  - type: fetch_count
//	    year: "2015-2016"
//	    file: DIQ_I.XPT
//	    count: 1
//
// Files are encoded as XPT transport files on the fly and served by a fake
// fetcher; `raw` serves literal bytes instead. Steps run in order against
// one cache, so later steps observe artifacts cached by earlier ones.
//
// # Assertion Types
//
//   - cached: the artifact of (year, file) exists in the cache
//   - not_cached: the artifact of (year, file) does not exist
//   - fetch_count: (year, file) was downloaded exactly count times
//   - ledger_phase: run number `run` (1-based) ended in `phase`
//
// # Deterministic Testing
//
// Run ids are sequential ("run-1", "run-2", ...), the cache lives in a
// fresh temporary directory and the ledger in an in-memory database, so
// the dataset of the last successful step can be compared against a
// golden CSV with RunWithGolden.
package harness
