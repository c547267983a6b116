// Package dashboard defines the GraphQL types for the application dashboard.
package dashboard

import (
	"github.com/graphql-go/graphql"
)

// ScanStatisticsType represents the aggregate scan metrics for the top cards
var ScanStatisticsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ScanStatistics",
	Fields: graphql.Fields{
		"period_days":              &graphql.Field{Type: graphql.Int},
		"total_scans":              &graphql.Field{Type: graphql.Int},
		"successful_scans":         &graphql.Field{Type: graphql.Int},
		"failed_scans":             &graphql.Field{Type: graphql.Int},
		"success_rate":             &graphql.Field{Type: graphql.Float},
		"total_vulnerabilities":    &graphql.Field{Type: graphql.Int},
		"critical_vulnerabilities": &graphql.Field{Type: graphql.Int},
		"high_vulnerabilities":     &graphql.Field{Type: graphql.Int},
		"medium_vulnerabilities":   &graphql.Field{Type: graphql.Int},
		"low_vulnerabilities":      &graphql.Field{Type: graphql.Int},
	},
})

// SeverityDistributionType represents the data for the pie/bar charts
var SeverityDistributionType = graphql.NewObject(graphql.ObjectConfig{
	Name: "SeverityDistribution",
	Fields: graphql.Fields{
		"critical": &graphql.Field{Type: graphql.Int},
		"high":     &graphql.Field{Type: graphql.Int},
		"medium":   &graphql.Field{Type: graphql.Int},
		"low":      &graphql.Field{Type: graphql.Int},
	},
})

// VulnerabilityTrendType represents one day bucket of the severity trend
var VulnerabilityTrendType = graphql.NewObject(graphql.ObjectConfig{
	Name: "VulnerabilityTrend",
	Fields: graphql.Fields{
		"date":     &graphql.Field{Type: graphql.String},
		"critical": &graphql.Field{Type: graphql.Int},
		"high":     &graphql.Field{Type: graphql.Int},
		"medium":   &graphql.Field{Type: graphql.Int},
		"low":      &graphql.Field{Type: graphql.Int},
	},
})

// RecentScanType represents one row of the recent scans table
var RecentScanType = graphql.NewObject(graphql.ObjectConfig{
	Name: "RecentScan",
	Fields: graphql.Fields{
		"key":                   &graphql.Field{Type: graphql.String},
		"image_name":            &graphql.Field{Type: graphql.String},
		"image_tag":             &graphql.Field{Type: graphql.String},
		"scan_status":           &graphql.Field{Type: graphql.String},
		"scanner_type":          &graphql.Field{Type: graphql.String},
		"total_vulnerabilities": &graphql.Field{Type: graphql.Int},
		"critical_count":        &graphql.Field{Type: graphql.Int},
		"high_count":            &graphql.Field{Type: graphql.Int},
		"medium_count":          &graphql.Field{Type: graphql.Int},
		"low_count":             &graphql.Field{Type: graphql.Int},
		"created_at":            &graphql.Field{Type: graphql.String},
	},
})
