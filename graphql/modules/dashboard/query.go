// Package dashboard defines the GraphQL queries for the dashboard.
package dashboard

import (
	"github.com/graphql-go/graphql"

	"github.com/docksafe/docksafe-backend/database"
)

// GetQueryFields returns the dashboard queries to be mounted in the root schema
func GetQueryFields(db database.DBConnection) graphql.Fields {
	return graphql.Fields{
		// Section 1: Top Cards (Overview)
		"scanStatistics": &graphql.Field{
			Type: ScanStatisticsType,
			Args: graphql.FieldConfigArgument{
				"groupId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				"days":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 30},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				groupID := p.Args["groupId"].(string)
				days := p.Args["days"].(int)
				return ResolveScanStatistics(db, groupID, days)
			},
		},
		// Section 2: Charts (Severity)
		"dashboardSeverity": &graphql.Field{
			Type: SeverityDistributionType,
			Args: graphql.FieldConfigArgument{
				"groupId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				"days":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 30},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				groupID := p.Args["groupId"].(string)
				days := p.Args["days"].(int)
				return ResolveSeverityDistribution(db, groupID, days)
			},
		},
		// Section 3: Trend Line (day-bucketed severity counts)
		"vulnerabilityTrend": &graphql.Field{
			Type: graphql.NewList(VulnerabilityTrendType),
			Args: graphql.FieldConfigArgument{
				"groupId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				"days":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 7},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				groupID := p.Args["groupId"].(string)
				days := p.Args["days"].(int)
				return ResolveVulnerabilityTrend(db, groupID, days)
			},
		},
		// Section 4: Recent scans table
		"recentScans": &graphql.Field{
			Type: graphql.NewList(RecentScanType),
			Args: graphql.FieldConfigArgument{
				"groupId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				"limit":   &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 5},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				groupID := p.Args["groupId"].(string)
				limit := p.Args["limit"].(int)
				return ResolveRecentScans(db, groupID, limit)
			},
		},
	}
}
