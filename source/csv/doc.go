// Package csv reads identities from a CSV file with a header row, for
// fixtures and small imports.
//
// Recognized columns are uid, username, firstname, lastname, email,
// cellphone, personref and password. Matching ignores case, underscores
// and dashes, so "First_Name" and "first-name" both map to firstname.
// Unknown columns are ignored.
package csv
