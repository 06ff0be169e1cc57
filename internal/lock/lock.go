// Package lock provides per-key critical sections
//
// The ledger stays correct without them thanks to row locks and conditional writes,
// the lock only keeps concurrent messages of one payer from racing each other.
package lock

import (
	"context"
)

type Unlock func()

type Locker interface {
	// Lock blocks until the key is held or ctx is done
	Lock(ctx context.Context, key string) (Unlock, error)
}

func PhoneKey(phone string) string {
	return "phone:" + phone
}
