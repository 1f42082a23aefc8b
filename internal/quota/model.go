// Package quota enforces the one-active-file-per-user upload limit. The
// state lives on the users row as an upload status; consuming the quota is
// a single conditional UPDATE so concurrent uploads cannot both win.
package quota

// Status is a user's upload eligibility.
type Status string

const (
	// StatusNotUploaded means the user may upload one file.
	StatusNotUploaded Status = "NOT_UPLOADED"
	// StatusUploaded means the user's single slot is taken.
	StatusUploaded Status = "UPLOADED"
	// StatusUnlimited exempts the user from the limit entirely.
	StatusUnlimited Status = "UNLIMITED"
)
