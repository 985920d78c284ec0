// Package sanitizer provides input normalization for venue and booking data.
//
// All normalization functions are idempotent - applying them multiple times produces
// the same result. Functions handle invalid input gracefully, typically by returning
// empty strings or empty slices rather than errors, and leave rejection to validation.
//
// Normalization includes:
//   - Text (names, descriptions, street lines): collapse whitespace, trim
//   - Tags (sports, amenities): lowercase, single spaces - "Table  Tennis" becomes "table tennis"
//   - Cities: trimmed and whitespace-collapsed, case preserved for display
//   - URLs: enforce a scheme, lowercase host, drop tracking query parameters
//   - Slices: remove duplicates and empty values after normalization
package sanitizer
