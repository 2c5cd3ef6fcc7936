package jsonfile

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/border-crossing-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eastportJSON = `{"Port Name":"Eastport","State":"ME","Port Code":"104","Border":"US-Canada Border","Month":"March","Year":"1996","Measure":"Trucks","Value":1000,"Latitude":44.9,"Longitude":-67.0}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func eastport() domain.Record {
	return domain.Record{
		PortName: "Eastport", State: "ME", PortCode: "104", Border: "US-Canada Border",
		Month: "March", Year: "1996", Measure: "Trucks", Value: 1000,
		Latitude: 44.9, Longitude: -67.0,
	}
}

func TestEncode(t *testing.T) {
	data, err := Encode([]domain.Record{eastport()})
	require.NoError(t, err)
	assert.Equal(t, "["+eastportJSON+"]", string(data))
}

func TestEncode_Empty(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestEncode_NoHTMLEscaping(t *testing.T) {
	rec := eastport()
	rec.Measure = "Trucks & Buses <loaded>"

	data, err := Encode([]domain.Record{rec})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Measure":"Trucks & Buses <loaded>"`)
}

func TestExporter_WritesAndOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "json", "data.json")
	exp := NewExporter(path, discardLogger())

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("stale content that is much longer than the new export"), 0o644))

	require.NoError(t, exp.Export(context.Background(), []domain.Record{eastport()}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "["+eastportJSON+"]", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestExporter_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	exp := NewExporter(path, discardLogger())
	records := []domain.Record{eastport(), eastport()}

	require.NoError(t, exp.Export(context.Background(), records))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, exp.Export(context.Background(), records))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestExporter_UnwritableLocation(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	exp := NewExporter(filepath.Join(blocker, "data.json"), discardLogger())
	err := exp.Export(context.Background(), []domain.Record{eastport()})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFileAccess)
}

func TestReadExport_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	want := []domain.Record{eastport()}
	require.NoError(t, NewExporter(path, discardLogger()).Export(context.Background(), want))

	got, err := ReadExport(path)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestReadExport_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadExport(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, domain.ErrFileAccess)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"not":"an array"}`), 0o644))
	_, err = ReadExport(bad)
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestObjectKeys(t *testing.T) {
	keys, err := ObjectKeys([]byte("[" + eastportJSON + "," + eastportJSON + "]"))
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, domain.Columns, keys[0])
	assert.Equal(t, domain.Columns, keys[1])

	keys, err = ObjectKeys([]byte(`[{"b":1,"a":{"nested":[1,2]}}]`))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"b", "a"}}, keys)

	keys, err = ObjectKeys([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestObjectKeys_Invalid(t *testing.T) {
	for _, in := range []string{`{}`, `[1]`, `[{"a":1}`, ``} {
		_, err := ObjectKeys([]byte(in))
		assert.ErrorIs(t, err, domain.ErrParse, in)
	}
}
