package automatic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `gameID,ply,engine,column,score,depth,nodes
0,5,fast,4,3,4,100
0,6,slow,3,-3,8,900
0,7,fast,4,5,6,300
1,5,slow,2,0,10,1100
`

func TestAnalyzeLog(t *testing.T) {
	out, err := analyzeLog(strings.NewReader(sampleLog))
	require.NoError(t, err)
	assert.Equal(t,
		"Games played: 2\n"+
			"fast moves: 2  Mean depth: 5.00  Stdev: 1.41  Mean nodes: 200\n"+
			"slow moves: 2  Mean depth: 9.00  Stdev: 1.41  Mean nodes: 1000\n",
		out)
}

func TestAnalyzeLogBadRecord(t *testing.T) {
	_, err := analyzeLog(strings.NewReader("0,5,fast,4,3,x,100\n"))
	assert.Error(t, err)
	_, err = analyzeLog(strings.NewReader("0,5,fast\n"))
	assert.Error(t, err)
}

func TestAnalyzeLogFileMissing(t *testing.T) {
	_, err := AnalyzeLogFile(t.TempDir() + "/nope.csv")
	assert.Error(t, err)
}
