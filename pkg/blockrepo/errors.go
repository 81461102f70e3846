package blockrepo

import "errors"

// ErrBlockNotFound indicates no block is stored under the requested CID.
var ErrBlockNotFound = errors.New("blockrepo: block not found")
