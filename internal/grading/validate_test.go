package grading

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempNotebook(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Loops.ipynb")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestIsNotebookValid(t *testing.T) {
	expected := allCellIDs("cellA", "cellB", "cellC")

	testCases := []struct {
		name     string
		content  []byte
		expected []string
		valid    bool
	}{
		{
			name:     "exact match",
			content:  notebookJSON("cellA", "cellB", "cellC"),
			expected: expected,
			valid:    true,
		},
		{
			name:     "permutation of expected cells",
			content:  notebookJSON("cellC", "cellA", "cellB"),
			expected: expected,
			valid:    true,
		},
		{
			name:     "missing graded cell",
			content:  notebookJSON("cellA", "cellB"),
			expected: expected,
			valid:    false,
		},
		{
			name:     "extra graded cell",
			content:  notebookJSON("cellA", "cellB", "cellC", "cellD"),
			expected: expected,
			valid:    false,
		},
		{
			name:     "duplicated graded cell",
			content:  notebookJSON("cellA", "cellA", "cellB", "cellC"),
			expected: expected,
			valid:    false,
		},
		{
			name:     "truncated json",
			content:  notebookJSON("cellA", "cellB", "cellC")[:25],
			expected: expected,
			valid:    false,
		},
		{
			name:     "not json at all",
			content:  []byte{0xff, 0xfe, 0x00, 0x01},
			expected: expected,
			valid:    false,
		},
		{
			name:     "no cells against empty schema",
			content:  []byte(`{"cells": []}`),
			expected: nil,
			valid:    true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.backend.On("ExpectedCellIDs", "Loops").Return(tc.expected, nil).Maybe()

			path := writeTempNotebook(t, tc.content)
			valid, err := f.grader.isNotebookValid(path, "Loops")
			require.NoError(t, err)
			assert.Equal(t, tc.valid, valid)
		})
	}
}

func TestIsNotebookValid_SchemaLookupFailure(t *testing.T) {
	f := newFixture(t)
	f.backend.On("ExpectedCellIDs", "Loops").Return(nil, assert.AnError).Once()

	path := writeTempNotebook(t, notebookJSON("cellA"))
	_, err := f.grader.isNotebookValid(path, "Loops")
	require.Error(t, err)
}
