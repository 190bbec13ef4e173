package payout

import (
	"errors"
	"fmt"
)

// ErrInvalidWallet rejects malformed wallet addresses before any
// reconciliation work starts.
var ErrInvalidWallet = errors.New("invalid wallet address")

var errNoRepository = errors.New("repository not configured")

// SystemicError is the only failure class that fails a whole snapshot
// request: the baseline off-chain source is unreachable. Callers may retry.
type SystemicError struct {
	Op  string
	Err error
}

func (e *SystemicError) Error() string {
	return fmt.Sprintf("payout %s failed: %v", e.Op, e.Err)
}

func (e *SystemicError) Unwrap() error {
	return e.Err
}
