package hierarchy

import "github.com/hashicorp/go-multierror"

// appendMultiError accumulates non-nil errors into a *multierror.Error so
// batch validation can report every offending document instead of only the
// first one encountered.
func appendMultiError(acc error, err error) error {
	if err == nil {
		return acc
	}
	return multierror.Append(acc, err)
}
