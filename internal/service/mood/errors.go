package mood

import "errors"

var ErrInvalidScore = errors.New("mood score must be between 1 and 5")
