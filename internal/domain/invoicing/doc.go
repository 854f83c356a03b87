// Package invoicing holds customer and supplier invoices, the invoicer batches
// that collect generated invoices, and the small accounting catalog (products,
// accounts, journals, payment terms, analytic defaults) invoice lines refer to.
//
// Only the lifecycle transitions the billing services trigger are modelled:
// draft → open, draft|open → cancel and open → paid.
package invoicing
