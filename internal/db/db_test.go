package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountRowsSQL(t *testing.T) {
	assert.Equal(t, `SELECT count(*) FROM "regatta_results"`, countRowsSQL("regatta_results"))
	assert.Equal(t, `SELECT count(*) FROM "bad""name"`, countRowsSQL(`bad"name`))
}
