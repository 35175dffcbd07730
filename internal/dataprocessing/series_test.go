package dataprocessing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "vizpipe/internal/errors"
	"vizpipe/internal/shared/testutil"
	"vizpipe/pkg/contracts/domain"
)

func rated(year, rating float64) domain.Record {
	return domain.Record{"year": domain.Number(year), "rating": domain.Number(rating)}
}

var (
	yearKey   = Field("year", domain.KindNumber)
	ratingKey = Field("rating", domain.KindNumber)
)

func bucketKeys(g domain.OuterGroup) []string {
	keys := make([]string, len(g.Buckets))
	for i, b := range g.Buckets {
		keys[i] = b.Key.String()
	}
	return keys
}

func TestBuildSeries_PadsAndSorts(t *testing.T) {
	records := []domain.Record{rated(2015, 7), rated(2015, 7), rated(2015, 2)}

	groups, err := BuildSeries(records, yearKey, ratingKey, NumberDomain(0, 9))
	require.NoError(t, err)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.True(t, g.Key.Equal(domain.Number(2015)))
	assert.Equal(t, []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}, bucketKeys(g))

	for _, b := range g.Buckets {
		r, _ := b.Key.Num()
		switch r {
		case 7:
			assert.Equal(t, 2, b.Count)
		case 2:
			assert.Equal(t, 1, b.Count)
		default:
			assert.Equal(t, 0, b.Count, "rating %v", r)
			assert.True(t, b.Representative.Equal(domain.Number(2015)), "padding carries the outer key")
		}
	}
}

func TestBuildSeries_GroupProperties(t *testing.T) {
	records := []domain.Record{
		rated(2017, 9), rated(2015, 0), rated(2016, 5), rated(2015, 5),
		rated(2017, 9), rated(2016, 1), rated(2015, 9),
	}
	innerDomain := NumberDomain(0, 9)

	groups, err := BuildSeries(records, yearKey, ratingKey, innerDomain)
	require.NoError(t, err)

	// first-seen order of outer keys
	var outer []string
	for _, g := range groups {
		outer = append(outer, g.Key.String())
	}
	assert.Equal(t, []string{"2017", "2015", "2016"}, outer)

	for _, g := range groups {
		assert.Len(t, g.Buckets, len(innerDomain))

		want := 0
		for _, r := range records {
			if r["year"].Equal(g.Key) {
				want++
			}
		}
		assert.Equal(t, want, g.Total(), "group %s", g.Key)
	}

	again, err := BuildSeries(records, yearKey, ratingKey, innerDomain)
	require.NoError(t, err)
	assert.Equal(t, groups, again)
}

func TestBuildSeries_Domain(t *testing.T) {
	records := []domain.Record{rated(2015, 3), rated(2015, 1)}

	t.Run("duplicates collapse", func(t *testing.T) {
		d := []domain.Scalar{domain.Number(3), domain.Number(1), domain.Number(3), domain.Number(2)}
		groups, err := BuildSeries(records, yearKey, ratingKey, d)
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2", "3"}, bucketKeys(groups[0]))
	})

	t.Run("empty domain keeps observed keys", func(t *testing.T) {
		groups, err := BuildSeries(records, yearKey, ratingKey, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "3"}, bucketKeys(groups[0]))
	})

	t.Run("numeric strings sort numerically", func(t *testing.T) {
		recs := []domain.Record{
			{"g": domain.String("a"), "r": domain.String("10")},
			{"g": domain.String("a"), "r": domain.String("9")},
		}
		groups, err := BuildSeries(recs, Field("g"), Field("r", domain.KindString), nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"9", "10"}, bucketKeys(groups[0]))
	})

	t.Run("mixed string domain sorts the same in any order", func(t *testing.T) {
		recs := []domain.Record{{"g": domain.String("a"), "r": domain.String("2")}}
		orders := [][]string{
			{"2", "10", "1a"},
			{"1a", "2", "10"},
			{"10", "1a", "2"},
			{"1a", "10", "2"},
		}
		for _, order := range orders {
			d := make([]domain.Scalar, len(order))
			for i, v := range order {
				d[i] = domain.String(v)
			}
			groups, err := BuildSeries(recs, Field("g"), Field("r", domain.KindString), d)
			require.NoError(t, err)
			assert.Equal(t, []string{"2", "10", "1a"}, bucketKeys(groups[0]), "domain order %v", order)
		}
	})
}

func TestBuildSeries_EmptyInput(t *testing.T) {
	groups, err := BuildSeries(nil, yearKey, ratingKey, NumberDomain(0, 9))
	require.NoError(t, err)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestBuildSeries_InvalidRecords(t *testing.T) {
	tests := []struct {
		name      string
		records   []domain.Record
		wantIndex int
		wantField string
	}{
		{
			name:      "missing outer key",
			records:   []domain.Record{rated(2015, 1), {"rating": domain.Number(2)}},
			wantIndex: 1,
			wantField: "year",
		},
		{
			name:      "wrong inner kind",
			records:   []domain.Record{{"year": domain.Number(2015), "rating": domain.String("seven")}},
			wantIndex: 0,
			wantField: "rating",
		},
		{
			name:      "inner key outside domain",
			records:   []domain.Record{rated(2015, 1), rated(2015, 2), rated(2015, 12)},
			wantIndex: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups, err := BuildSeries(tt.records, yearKey, ratingKey, NumberDomain(0, 9))
			require.Error(t, err)
			assert.Nil(t, groups)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidRecord))

			var ire *InvalidRecordError
			require.ErrorAs(t, err, &ire)
			assert.Equal(t, tt.wantIndex, ire.Index)
			assert.Equal(t, tt.wantField, ire.Field)
		})
	}
}

func TestBuildSeries_Options(t *testing.T) {
	games := testutil.Games()
	outer := YearField("year")
	inner := FloorField("average_rating")

	t.Run("outer keys filter", func(t *testing.T) {
		groups, err := BuildSeries(games, outer, inner, NumberDomain(0, 9), WithOuterKeys(domain.Number(2016)))
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.True(t, groups[0].Key.Equal(domain.Number(2016)))
		assert.Equal(t, 2, groups[0].Total())
	})

	t.Run("filtered records are still validated", func(t *testing.T) {
		bad := append(append([]domain.Record{}, games...), domain.Record{"year": domain.Number(2020)})
		_, err := BuildSeries(bad, outer, inner, NumberDomain(0, 9), WithOuterKeys(domain.Number(2016)))
		assert.ErrorIs(t, err, apperrors.ErrInvalidRecord)
	})

	t.Run("representative from first record", func(t *testing.T) {
		groups, err := BuildSeries(games, outer, inner, NumberDomain(0, 9), WithRepresentative(Field("name")))
		require.NoError(t, err)

		b, ok := groups[0].Bucket(domain.Number(7))
		require.True(t, ok)
		assert.Equal(t, "Catan", b.Representative.String())

		padded, ok := groups[0].Bucket(domain.Number(0))
		require.True(t, ok)
		assert.True(t, padded.Representative.Equal(domain.Number(2015)))
	})
}

func TestSeriesExtent(t *testing.T) {
	groups, err := BuildSeries(testutil.Games(), YearField("year"), FloorField("average_rating"), NumberDomain(0, 9))
	require.NoError(t, err)

	maxCount, total := SeriesExtent(groups)
	assert.Equal(t, 2, maxCount)
	assert.Equal(t, 5, total)

	maxCount, total = SeriesExtent(nil)
	assert.Zero(t, maxCount)
	assert.Zero(t, total)
}
