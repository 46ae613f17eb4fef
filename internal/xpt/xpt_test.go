package xpt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pravshot/nhutils/internal/table"
)

func TestIBMConversion_KnownValues(t *testing.T) {
	tests := []struct {
		value float64
		ibm   []byte
	}{
		{1, []byte{0x41, 0x10, 0, 0, 0, 0, 0, 0}},
		{-118.625, []byte{0xC2, 0x76, 0xA0, 0, 0, 0, 0, 0}},
		{0, []byte{0, 0, 0, 0, 0, 0, 0, 0}},
		{0.5, []byte{0x40, 0x80, 0, 0, 0, 0, 0, 0}},
	}

	for _, tt := range tests {
		got, err := floatToIBM(tt.value)
		require.NoError(t, err)
		assert.Equal(t, tt.ibm, got[:], "encode %v", tt.value)
		assert.Equal(t, tt.value, ibmToFloat(tt.ibm), "decode %v", tt.value)
	}
}

func TestIBMConversion_RoundTrip(t *testing.T) {
	for _, v := range []float64{83732, 27.5, 1e-10, 123456.789, -0.001, 5.397605346934028e-79} {
		b, err := floatToIBM(v)
		require.NoError(t, err)
		assert.Equal(t, v, ibmToFloat(b[:]))
	}
}

func TestIBMConversion_Truncated(t *testing.T) {
	// 3-byte numerics keep only the leading bytes
	assert.Equal(t, 1.0, ibmToFloat([]byte{0x41, 0x10, 0x00}))
}

func TestIsMissing(t *testing.T) {
	assert.True(t, isMissing([]byte{'.', 0, 0, 0, 0, 0, 0, 0}))
	assert.True(t, isMissing([]byte{'_', 0, 0, 0, 0, 0, 0, 0}))
	assert.True(t, isMissing([]byte{'Z', 0, 0, 0, 0, 0, 0, 0}))
	assert.False(t, isMissing([]byte{0x41, 0x10, 0, 0, 0, 0, 0, 0}))
	assert.False(t, isMissing([]byte{'.', 1, 0, 0, 0, 0, 0, 0}))
}

func sampleDataset() *Dataset {
	tbl := table.New([]string{"SEQN", "DIQ010", "NOTE"})
	tbl.Rows = [][]string{
		{"83732", "1", "café"},
		{"83733", "", ""},
		{"83734", "2", "x"},
	}
	return &Dataset{
		Name:  "DIQ_I",
		Label: "Diabetes",
		Variables: []Variable{
			{Name: "SEQN", Label: "Respondent sequence number", Numeric: true},
			{Name: "DIQ010", Label: "Doctor told you have diabetes", Numeric: true},
			{Name: "NOTE"},
		},
		Table: tbl,
	}
}

func TestEncodeRead_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleDataset()))
	assert.Equal(t, 0, buf.Len()%recordLen, "output must be whole records")

	ds, err := Read(buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, "DIQ_I", ds.Name)
	assert.Equal(t, "Diabetes", ds.Label)
	require.Len(t, ds.Variables, 3)
	assert.Equal(t, "Respondent sequence number", ds.Variables[0].Label)
	assert.True(t, ds.Variables[1].Numeric)
	assert.False(t, ds.Variables[2].Numeric)
	assert.Equal(t, 4, ds.Variables[2].Length, "widest latin-1 cell")

	assert.Equal(t, []string{"SEQN", "DIQ010", "NOTE"}, ds.Table.Columns)
	assert.Equal(t, [][]string{
		{"83732", "1", "café"},
		{"83733", "", ""},
		{"83734", "2", "x"},
	}, ds.Table.Rows)
}

func TestDecode_NoRows(t *testing.T) {
	ds := sampleDataset()
	ds.Table.Rows = nil

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, ds))

	tbl, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, []string{"SEQN", "DIQ010", "NOTE"}, tbl.Columns)
}

func TestDecode_Malformed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleDataset()))
	valid := buf.Bytes()

	tests := map[string][]byte{
		"empty":      nil,
		"html":       []byte("<!DOCTYPE html><html><body>Page not found</body></html>"),
		"truncated":  valid[:400],
		"no obs":     valid[:640],
		"v8 library": append([]byte("HEADER RECORD*******LIBV8   HEADER RECORD!!!!!!!"), valid[48:]...),
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(data)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestEncode_Errors(t *testing.T) {
	ds := sampleDataset()
	ds.Table.Rows[0][1] = "yes"
	assert.Error(t, Encode(&bytes.Buffer{}, ds))

	ds = sampleDataset()
	ds.Variables = ds.Variables[:2]
	assert.Error(t, Encode(&bytes.Buffer{}, ds))
}
