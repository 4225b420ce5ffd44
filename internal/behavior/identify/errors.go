package identify

import "errors"

var ErrTimeout = errors.New("identify: exchange timed out")
