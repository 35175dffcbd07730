package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Dataset file contents matching Games and the CA/TX join example.
// Nevada's count is unparsable and Oregon has no count row.
const (
	RatingsCSV = "name,year,average_rating,users_rated\n" +
		"Catan,2015,7.2,50\n" +
		"Carcassonne,2015,7.9,10\n" +
		"Azul,2016,8.1,30\n" +
		"Codenames,2015,2.5,30\n" +
		"Patchwork,2016,7.4,20\n"

	CountsCSV = "state,count\n" +
		"California,120\n" +
		"Texas,\"1,200\"\n" +
		"Nevada,n/a\n"

	RegionsGeoJSON = `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"name":"California"},"geometry":{"type":"Point","coordinates":[-119.4,36.7]}},
{"type":"Feature","properties":{"name":"Texas"},"geometry":{"type":"Point","coordinates":[-99.9,31.9]}},
{"type":"Feature","properties":{"name":"Oregon"},"geometry":{"type":"Point","coordinates":[-120.5,43.8]}}
]}`
)

// Dataset file names written by WriteDatasets, matching the config defaults
const (
	RatingsFile = "board_games.csv"
	CountsFile  = "post_count_state.csv"
	RegionsFile = "us-states.json"
)

// WriteDatasets writes the three dataset files into a temp dir and
// returns it
func WriteDatasets(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		RatingsFile: RatingsCSV,
		CountsFile:  CountsCSV,
		RegionsFile: RegionsGeoJSON,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}
