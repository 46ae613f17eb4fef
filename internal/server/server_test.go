package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pravshot/nhutils/internal/cache"
	"github.com/pravshot/nhutils/internal/catalog"
	"github.com/pravshot/nhutils/internal/engine"
	"github.com/pravshot/nhutils/internal/logging"
	"github.com/pravshot/nhutils/internal/testutil"
)

func newTestServer(t *testing.T) (*Server, *testutil.FakeFetcher) {
	t.Helper()
	cat, err := catalog.New("SEQN", map[string]map[string][]string{
		"2015-2016": {
			"DEMO_I.XPT": {"RIAGENDR"},
			"DIQ_I.XPT":  {"DIQ010"},
		},
	})
	require.NoError(t, err)

	f := testutil.NewFakeFetcher("")
	f.ServeFile("2015-2016", "DEMO_I.XPT", testutil.EncodeXPT("DEMO_I",
		[]string{"SEQN", "RIAGENDR"},
		[]string{"83732", "1"},
		[]string{"83733", "2"},
	))
	f.ServeFile("2015-2016", "DIQ_I.XPT", testutil.EncodeXPT("DIQ_I",
		[]string{"SEQN", "DIQ010"},
		[]string{"83732", "1"},
		[]string{"83733", "9"},
	))

	logger := logging.Discard()
	eng := engine.New(cat, cache.New(t.TempDir(), f, cache.WithLogger(logger)), engine.WithLogger(logger))
	return NewServer(eng, logger), f
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestYears(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/catalog/years")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"years":["2015-2016"]}`, rec.Body.String())
}

func TestDataset(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/datasets?vars=diq010,RIAGENDR&years=2015-2016&by=SEQN&join=inner")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "SEQN,DIQ010,RIAGENDR\n83732,1,1\n83733,9,2\n", rec.Body.String())
}

func TestDataset_Recodes(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/datasets?vars=DIQ010&vars=RIAGENDR&years=2015-2016&binary=diq010&minus-one=RIAGENDR")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "SEQN,DIQ010,RIAGENDR\n83732,1,0\n83733,,1\n", rec.Body.String())
}

func TestDataset_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"unknown variable", "/datasets?vars=NOTAREALVAR&years=2015-2016", http.StatusBadRequest, "INVALID_VARIABLE"},
		{"unknown year", "/datasets?vars=DIQ010&years=1900-1901", http.StatusBadRequest, "INVALID_YEAR"},
		{"bad join", "/datasets?vars=DIQ010&years=2015-2016&join=cross", http.StatusBadRequest, "INVALID_REQUEST"},
		{"bad recode column", "/datasets?vars=DIQ010&years=2015-2016&binary=RIAGENDR", http.StatusBadRequest, "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t)

			rec := get(t, s, tt.target)

			assert.Equal(t, tt.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestDataset_RetrievalFailure(t *testing.T) {
	s, f := newTestServer(t)
	f.FailFile("2015-2016", "DIQ_I.XPT", assert.AnError)

	rec := get(t, s, "/datasets?vars=DIQ010&years=2015-2016")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "RETRIEVAL_FAILURE")
}
