package maintenance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeStatement(t *testing.T) {
	assert.Equal(t, `ANALYZE "regattas"`, AnalyzeStatement("regattas"))
	assert.Equal(t, `ANALYZE "odd""name"`, AnalyzeStatement(`odd"name`))
}
