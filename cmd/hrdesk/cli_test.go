package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HRDESK_LOG_LEVEL", "error")
	buf := &bytes.Buffer{}
	cmd := newRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestPeriods_CurrentAndOverdue(t *testing.T) {
	out, err := execute(t, "periods", "--frequency", "quarterly", "--period", "2024-Q4", "--now", "2025-01-02")
	require.NoError(t, err)

	assert.Contains(t, out, "current:   2025-Q1")
	assert.Contains(t, out, "bounds:    2024-10-01 .. 2024-12-31")
	assert.Contains(t, out, "overdue:   true")
}

func TestPeriods_JSONWeeklyFallsBack(t *testing.T) {
	out, err := execute(t, "--format", "json", "periods", "-f", "weekly", "-p", "2025-W02", "--now", "2025-01-10")
	require.NoError(t, err)

	var got periodsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "2025-W02", got.Current)
	assert.True(t, got.Fallback)
	assert.Equal(t, "2025-01-01", got.Start)
	assert.Equal(t, "2025-01-10", got.End)
}

func TestPeriods_UnknownFrequency(t *testing.T) {
	_, err := execute(t, "periods", "--frequency", "fortnightly")
	require.Error(t, err)
}

func TestRoot_RejectsFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "periods", "-f", "annual")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}

func TestSeedThenImport(t *testing.T) {
	// GIVEN: A fresh database file
	db := filepath.Join(t.TempDir(), "hrdesk.db")
	seed := writeFile(t, "seed.yaml", `
employees:
  - {key: amy, name: Amy Ash, email: amy@example.com, branch: Leeds}
trackers:
  - name: Supervision
    frequency: quarterly
    records:
      - {employee: amy, period: 2024-Q4, completion: done}
`)

	// WHEN: Checking then loading a seed
	out, err := execute(t, "seed", seed, "--check")
	require.NoError(t, err)
	assert.Contains(t, out, "ok (1 employees, 1 trackers)")

	out, err = execute(t, "--db", db, "seed", seed)
	require.NoError(t, err)

	// THEN: Rows are reported as created
	assert.Contains(t, out, "employees  1 created, 0 skipped")
	assert.Contains(t, out, "records    1 created, 0 skipped")

	// AND: A spreadsheet import updates the seeded employee by email
	csv := writeFile(t, "staff.csv", "Name,Email,Branch\nAMY ASH,amy@example.com,York\nBen Birch,ben@example.com,York\n")
	out, err = execute(t, "--db", db, "--format", "json", "import", "employees", csv)
	require.NoError(t, err)

	var res struct {
		Created int `json:"created"`
		Updated int `json:"updated"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
}

func TestSeed_InvalidFile(t *testing.T) {
	seed := writeFile(t, "seed.yaml", "employes: []\n")
	_, err := execute(t, "seed", seed, "--check")
	require.Error(t, err)
}
