// Package ranking orders routes by estimated relevance to an observer
// position. A rider cares most about reaching the route's boarding point,
// then about whether the route passes nearby at all, and least about the
// far end, so the score is a weighted sum of those three distances.
package ranking

import (
	"fmt"
	"math"
	"sort"

	"github.com/tjtransit/rutas/internal/core/domain"
	"github.com/tjtransit/rutas/internal/pkg/geodist"
)

// Weights sum to 1.0 so the score stays in kilometers.
const (
	weightStart   = 0.7
	weightNearest = 0.2
	weightEnd     = 0.1
)

// DistanceKm is the great-circle distance in kilometers between two points.
func DistanceKm(a, b domain.GeoPoint) float64 {
	return geodist.DistanceKm(a.Lat, a.Lon, b.Lat, b.Lon)
}

// RouteScore computes the weighted distance from user to route in
// kilometers. Routes with an empty path score +Inf so they sort last.
func RouteScore(route *domain.Route, user domain.GeoPoint) float64 {
	start, ok := route.Path.Start()
	if !ok {
		return math.Inf(1)
	}
	end, _ := route.Path.End()

	distToStart := DistanceKm(start, user)
	distToEnd := DistanceKm(end, user)

	nearest := math.Inf(1)
	for _, p := range route.Path {
		if d := DistanceKm(p, user); d < nearest {
			nearest = d
		}
	}

	return weightStart*distToStart + weightNearest*nearest + weightEnd*distToEnd
}

// RankRoutes returns the routes ordered ascending by RouteScore. The sort is
// stable: routes with equal scores keep their original order. The input
// slice is not modified.
func RankRoutes(routes []domain.Route, user domain.GeoPoint) []domain.Route {
	ranked := make([]domain.Route, len(routes))
	copy(ranked, routes)

	for i := range ranked {
		score := RouteScore(&ranked[i], user)
		ranked[i].Score = &score
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].Score < *ranked[j].Score
	})
	return ranked
}

// DistanceToStartLabel formats the distance from user to the route's
// boarding point: rounded meters under one kilometer, otherwise kilometers
// with one decimal. ok is false when the route has no path.
func DistanceToStartLabel(route *domain.Route, user domain.GeoPoint) (string, bool) {
	start, okStart := route.Path.Start()
	if !okStart {
		return "", false
	}

	km := DistanceKm(start, user)
	if km < 1 {
		return fmt.Sprintf("%d m al inicio", int(math.Round(km*1000))), true
	}
	return fmt.Sprintf("%.1f km al inicio", km), true
}
