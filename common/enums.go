// Package common holds enums shared by configuration and linting code. They
// live separately so rule packages do not depend on configuration loading.
package common

//go:generate go tool go-enum --marshal --names

// Diagnostic severity.
// ENUM(error, warning)
type Severity int

// Output format for diagnostics.
// ENUM(text, json)
type ReportFormat int
