package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/rihla/internal/core/domain"
)

type fareEntry struct {
	City  string  `json:"city"`
	Price float64 `json:"price"`
}

// buildSchema creates the read-only GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"lat":        &graphql.Field{Type: graphql.Float},
			"lng":        &graphql.Field{Type: graphql.Float},
			"updated_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	fareType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Fare",
		Fields: graphql.Fields{
			"city":  &graphql.Field{Type: graphql.String},
			"price": &graphql.Field{Type: graphql.Float},
		},
	})

	tripType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Trip",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"driver_id":    &graphql.Field{Type: graphql.String},
			"route_cities": &graphql.Field{Type: graphql.NewList(graphql.String)},
			"route_prices": &graphql.Field{
				Type:        graphql.NewList(fareType),
				Description: "Fare from each boarding stop, in route order",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					t, ok := p.Source.(*domain.Trip)
					if !ok {
						if v, isVal := p.Source.(domain.Trip); isVal {
							t = &v
						} else {
							return nil, nil
						}
					}
					route := t.Route()
					fares := make([]fareEntry, 0, len(route.Cities))
					for _, city := range route.Cities {
						if price, ok := route.FareFrom(city); ok {
							fares = append(fares, fareEntry{City: city, Price: price})
						}
					}
					return fares, nil
				},
			},
			"price":            &graphql.Field{Type: graphql.Float},
			"from_city":        &graphql.Field{Type: graphql.String},
			"to_city":          &graphql.Field{Type: graphql.String},
			"seats":            &graphql.Field{Type: graphql.Int},
			"available_seats":  &graphql.Field{Type: graphql.Int},
			"departure_time":   &graphql.Field{Type: graphql.DateTime},
			"status":           &graphql.Field{Type: graphql.String},
			"current_location": &graphql.Field{Type: locationType},
		},
	})

	quoteType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Quote",
		Fields: graphql.Fields{
			"trip_id":   &graphql.Field{Type: graphql.String},
			"from_city": &graphql.Field{Type: graphql.String},
			"to_city":   &graphql.Field{Type: graphql.String},
			"fare":      &graphql.Field{Type: graphql.Float},
			"seats":     &graphql.Field{Type: graphql.Int},
			"total":     &graphql.Field{Type: graphql.Float},
		},
	})

	adType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Ad",
		Fields: graphql.Fields{
			"id":              &graphql.Field{Type: graphql.String},
			"title":           &graphql.Field{Type: graphql.String},
			"description":     &graphql.Field{Type: graphql.String},
			"image_url":       &graphql.Field{Type: graphql.String},
			"destination":     &graphql.Field{Type: graphql.String},
			"price":           &graphql.Field{Type: graphql.Float},
			"seats":           &graphql.Field{Type: graphql.Int},
			"available_seats": &graphql.Field{Type: graphql.Int},
			"departure_date":  &graphql.Field{Type: graphql.DateTime},
			"status":          &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"trips": &graphql.Field{
				Type:        graphql.NewList(tripType),
				Description: "Active trips departing in the future",
				Args: graphql.FieldConfigArgument{
					"from":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"to":     &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					from, _ := p.Args["from"].(string)
					to, _ := p.Args["to"].(string)
					limit, _ := p.Args["limit"].(int)
					offset, _ := p.Args["offset"].(int)
					return deps.Trips.ListActive(p.Context, from, to, limit, offset)
				},
			},
			"trip": &graphql.Field{
				Type:        tripType,
				Description: "Get a trip by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, err := paramUUID("id", p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return deps.Trips.GetByID(p.Context, id)
				},
			},
			"fare": &graphql.Field{
				Type:        quoteType,
				Description: "Quote a leg of a trip",
				Args: graphql.FieldConfigArgument{
					"trip_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"from":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"to":      &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"seats":   &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, err := paramUUID("trip_id", p.Args["trip_id"].(string))
					if err != nil {
						return nil, err
					}
					to, _ := p.Args["to"].(string)
					seats, _ := p.Args["seats"].(int)
					return deps.Trips.Fare(p.Context, id, p.Args["from"].(string), to, seats)
				},
			},
			"ads": &graphql.Field{
				Type:        graphql.NewList(adType),
				Description: "Approved tourism ads",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Ads.ListActive(p.Context)
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
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
