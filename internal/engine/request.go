package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/pravshot/nhutils/internal/catalog"
	"github.com/pravshot/nhutils/internal/table"
)

// Request is one dataset to assemble.
type Request struct {
	// Variables to include. The identifier is added when absent.
	Variables []string

	// Years are cycle labels ("2015-2016"), assembled in this order.
	Years []string

	// JoinKey defaults to the catalog identifier, the only key allowed.
	JoinKey string

	// JoinMode merges the files of one cycle. Defaults to table.JoinOuter.
	JoinMode table.JoinMode
}

// plan is a validated, canonical request.
type plan struct {
	// variables holds the identifier first, then the requested variables
	// in request order without duplicates.
	variables []string
	years     []string
	key       string
	mode      table.JoinMode
}

// normalize validates req against cat. It fails on the first problem and
// performs no I/O. Variables are checked before cycles.
func normalize(cat *catalog.Catalog, req Request) (*plan, error) {
	id := cat.Identifier()
	p := &plan{
		key:  id,
		mode: req.JoinMode,
	}

	if req.JoinKey != "" && catalog.CanonicalName(req.JoinKey) != id {
		return nil, &Error{
			Code:     ErrCodeInvalidRequest,
			Message:  fmt.Sprintf("join key must be the subject identifier %s", id),
			Variable: req.JoinKey,
		}
	}
	if p.mode == "" {
		p.mode = table.JoinOuter
	} else {
		mode, err := table.ParseJoinMode(string(req.JoinMode))
		if err != nil {
			return nil, &Error{Code: ErrCodeInvalidRequest, Message: "invalid join mode", Err: err}
		}
		p.mode = mode
	}

	seen := map[string]bool{id: true}
	p.variables = []string{id}
	for _, raw := range req.Variables {
		name := catalog.CanonicalName(raw)
		if seen[name] {
			continue
		}
		if !cat.HasVariable(name) {
			return nil, &Error{
				Code:     ErrCodeInvalidVariable,
				Message:  fmt.Sprintf("%q is not a valid variable", raw),
				Variable: raw,
			}
		}
		seen[name] = true
		p.variables = append(p.variables, name)
	}
	if len(p.variables) == 1 {
		return nil, &Error{Code: ErrCodeInvalidVariable, Message: "no variables requested besides the identifier"}
	}

	seenYear := make(map[string]bool)
	for _, raw := range req.Years {
		year := catalog.CanonicalYear(raw)
		if !cat.HasYear(year) {
			return nil, &Error{
				Code:    ErrCodeInvalidYear,
				Message: fmt.Sprintf("%q is not a valid year, valid years are %v", raw, cat.SupportedYears()),
				Year:    raw,
			}
		}
		if seenYear[year] {
			continue
		}
		seenYear[year] = true
		p.years = append(p.years, year)
	}
	if len(p.years) == 0 {
		return nil, &Error{Code: ErrCodeInvalidYear, Message: "no years requested"}
	}

	for _, year := range p.years {
		for _, v := range p.variables[1:] {
			if _, ok := cat.Lookup(year, v); !ok {
				return nil, &Error{
					Code:     ErrCodeInvalidVariable,
					Message:  fmt.Sprintf("%s is not available in %s", v, year),
					Variable: v,
					Year:     year,
				}
			}
		}
	}

	return p, nil
}

// Domain prefix for request fingerprints.
const domainRequest = "nhutils/request/v1"

// Fingerprint identifies a request independent of run. Identical requests
// have identical fingerprints.
func Fingerprint(req Request) string {
	data, _ := json.Marshal(struct {
		Variables []string `json:"variables"`
		Years     []string `json:"years"`
		JoinKey   string   `json:"join_key"`
		JoinMode  string   `json:"join_mode"`
	}{req.Variables, req.Years, req.JoinKey, string(req.JoinMode)})

	h := sha256.New()
	h.Write([]byte(domainRequest))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
