// Package billing holds the documents a team produces for its customers.
//
// Customers own their Addresses. Invoices and Contracts belong to the team
// and reference a customer and one of its addresses. Invoice totals are
// derived from the line items on every read (see CalculatePrices) and are
// never persisted.
//
// The package also aggregates the dashboard charts of a team (see BuildCharts).
package billing
