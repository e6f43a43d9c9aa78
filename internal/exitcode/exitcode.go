// Package exitcode lists the process exit statuses.
package exitcode

const (
	Success         = 0
	GeneralError    = 1
	ValidationError = 2
	Cancelled       = 3
)
