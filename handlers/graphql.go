package handlers

import (
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"
)

// GraphQL serves queries against schema. With graphiql set, browsers get the
// GraphiQL IDE on GET.
func GraphQL(schema *graphql.Schema, graphiql bool) http.Handler {
	return handler.New(&handler.Config{
		Schema:   schema,
		Pretty:   true,
		GraphiQL: graphiql,
	})
}
