// Package types defines the declared content model (content types, fields,
// taxonomies, relations), the field type registry, content records and
// query parameters, the Gateway and Dialect interfaces the storage core
// consumes, and the standard errors shared by every folio package.
package types
