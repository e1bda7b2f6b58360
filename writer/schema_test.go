package writer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaLookup(t *testing.T) {
	s := DefaultSchema()

	et, err := s.Lookup("transcribed_to")
	require.NoError(t, err)
	assert.Equal(t, "gene", et.Source)
	assert.Equal(t, "transcript", et.Target)

	_, err = s.Lookup("no_such_edge")
	require.Error(t, err)
}

func TestSchemaMerge(t *testing.T) {
	s := DefaultSchema()
	s.Merge(Schema{
		"regulates":      {Source: "gene", Target: "gene"},
		"transcribed_to": {Source: "gene", Target: "rna"},
	})

	et, err := s.Lookup("regulates")
	require.NoError(t, err)
	assert.Equal(t, "gene", et.Source)

	// merge overrides existing entries
	et, err = s.Lookup("transcribed_to")
	require.NoError(t, err)
	assert.Equal(t, "rna", et.Target)
}
