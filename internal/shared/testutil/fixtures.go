package testutil

import (
	"time"

	"vizpipe/pkg/contracts/domain"
)

// Game builds a board game record in the shape the ratings loader produces
func Game(name string, year int, rating float64, usersRated float64) domain.Record {
	return domain.Record{
		"name":           domain.String(name),
		"year":           domain.Date(time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)),
		"average_rating": domain.Number(rating),
		"users_rated":    domain.Number(usersRated),
	}
}

// Games returns a small ratings dataset spanning two years
func Games() []domain.Record {
	return []domain.Record{
		Game("Catan", 2015, 7, 50),
		Game("Carcassonne", 2015, 7, 10),
		Game("Azul", 2016, 8, 30),
		Game("Codenames", 2015, 2, 30),
		Game("Patchwork", 2016, 7, 20),
	}
}

// Region builds a GeoJSON-like join target keyed by name
func Region(name string) domain.JoinTarget {
	return domain.JoinTarget{
		Key:        name,
		Properties: map[string]interface{}{"name": name},
	}
}

// CountRow builds a join source row as the counts loader produces it
func CountRow(state string, count domain.Scalar) domain.Record {
	return domain.Record{
		"state": domain.String(state),
		"count": count,
	}
}
