package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "vizpipe/internal/errors"
	"vizpipe/internal/shared/testutil"
	"vizpipe/pkg/contracts/domain"
)

var (
	gameYear   = YearField("year")
	gameRating = FloorField("average_rating")
	usersRated = Field("users_rated", domain.KindNumber)
)

func names(records []domain.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r["name"].String()
	}
	return out
}

func TestTopN(t *testing.T) {
	records := []domain.Record{
		testutil.Game("A", 2016, 7.2, 50),
		testutil.Game("B", 2016, 7.9, 10),
		testutil.Game("C", 2016, 7.0, 30),
	}
	sel := domain.Selection{Outer: domain.Number(2016), Inner: domain.Number(7)}

	top, err := TopN(records, gameYear, gameRating, sel, 2, usersRated)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, names(top))
}

func TestTopN_Filtering(t *testing.T) {
	games := testutil.Games()

	tests := []struct {
		name string
		sel  domain.Selection
		n    int
		want []string
	}{
		{"selected bucket only", domain.Selection{Outer: domain.Number(2015), Inner: domain.Number(7)}, 5, []string{"Catan", "Carcassonne"}},
		{"truncates", domain.Selection{Outer: domain.Number(2015), Inner: domain.Number(7)}, 1, []string{"Catan"}},
		{"no match", domain.Selection{Outer: domain.Number(2019), Inner: domain.Number(7)}, 5, []string{}},
		{"zero n", domain.Selection{Outer: domain.Number(2015), Inner: domain.Number(7)}, 0, []string{}},
		{"kind must match", domain.Selection{Outer: domain.String("2015"), Inner: domain.Number(7)}, 5, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			top, err := TopN(games, gameYear, gameRating, tt.sel, tt.n, usersRated)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(top))
		})
	}
}

func TestTopN_StableTies(t *testing.T) {
	records := []domain.Record{
		testutil.Game("first", 2017, 6, 20),
		testutil.Game("second", 2017, 6, 20),
		testutil.Game("third", 2017, 6, 20),
	}
	sel := domain.Selection{Outer: domain.Number(2017), Inner: domain.Number(6)}

	for i := 0; i < 3; i++ {
		top, err := TopN(records, gameYear, gameRating, sel, 2, usersRated)
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second"}, names(top))
	}
}

func TestTopN_EmptyInput(t *testing.T) {
	top, err := TopN(nil, gameYear, gameRating, domain.Selection{}, 5, usersRated)
	require.NoError(t, err)
	assert.NotNil(t, top)
	assert.Empty(t, top)
}

func TestTopN_InvalidRecord(t *testing.T) {
	records := append(testutil.Games(), domain.Record{"name": domain.String("broken")})
	sel := domain.Selection{Outer: domain.Number(2015), Inner: domain.Number(7)}

	_, err := TopN(records, gameYear, gameRating, sel, 5, usersRated)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRecord)
}
