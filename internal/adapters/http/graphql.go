package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/tjtransit/rutas/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services. Read-only:
// mutations go through the REST surface where the admin gates live.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	scheduleType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Schedule",
		Fields: graphql.Fields{
			"start": &graphql.Field{Type: graphql.String},
			"end":   &graphql.Field{Type: graphql.String},
		},
	})

	routeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Route",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.String},
			"from":           &graphql.Field{Type: graphql.String},
			"to":             &graphql.Field{Type: graphql.String},
			"type":           &graphql.Field{Type: graphql.String},
			"color":          &graphql.Field{Type: graphql.String},
			"description":    &graphql.Field{Type: graphql.String},
			"schedule":       &graphql.Field{Type: scheduleType},
			"landmarks":      &graphql.Field{Type: graphql.NewList(graphql.String)},
			"path":           &graphql.Field{Type: graphql.NewList(geoPointType)},
			"active":         &graphql.Field{Type: graphql.Boolean},
			"status":         &graphql.Field{Type: graphql.String},
			"score":          &graphql.Field{Type: graphql.Float},
			"distance_label": &graphql.Field{Type: graphql.String},
		},
	})

	proposalType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Proposal",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"route":       &graphql.Field{Type: routeType},
			"proposed_by": &graphql.Field{Type: graphql.String},
			"status":      &graphql.Field{Type: graphql.String},
			"reason":      &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"routes": &graphql.Field{
				Type:        graphql.NewList(routeType),
				Description: "List active routes, optionally filtered and proximity-ranked",
				Args: graphql.FieldConfigArgument{
					"q":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"lat": &graphql.ArgumentConfig{Type: graphql.Float},
					"lon": &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q, _ := p.Args["q"].(string)
					var near *domain.GeoPoint
					if lat, ok := p.Args["lat"].(float64); ok {
						if lon, ok := p.Args["lon"].(float64); ok {
							near = &domain.GeoPoint{Lat: lat, Lon: lon}
						}
					}
					return deps.Routes.List(p.Context, q, near)
				},
			},
			"route": &graphql.Field{
				Type:        routeType,
				Description: "Get a route by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Routes.GetByID(p.Context, id)
				},
			},
			"searchRoutes": &graphql.Field{
				Type:        graphql.NewList(routeType),
				Description: "Search routes by name or landmark",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q := p.Args["query"].(string)
					limit := p.Args["limit"].(int)
					return deps.Routes.Search(p.Context, q, limit)
				},
			},
			"pendingProposals": &graphql.Field{
				Type:        graphql.NewList(proposalType),
				Description: "Proposals awaiting review",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Proposals.ListPending(p.Context)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
