// Package graphql assembles the root schema for the dashboard API.
package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/docksafe/docksafe-backend/database"
	"github.com/docksafe/docksafe-backend/graphql/modules/dashboard"
)

var dbConn database.DBConnection

// InitDB stores the database connection used by the resolvers
func InitDB(db database.DBConnection) {
	dbConn = db
}

// CreateSchema builds the root query schema from the module query fields
func CreateSchema() (graphql.Schema, error) {
	rootQuery := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: dashboard.GetQueryFields(dbConn),
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: rootQuery,
	})
}
