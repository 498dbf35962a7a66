package ledger

import "errors"

var errMultipleMatches = errors.New("code and email belong to different ledger entries")
