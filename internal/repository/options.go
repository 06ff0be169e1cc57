package repository

type LockOptions struct {
	ForUpdate bool
}

type LockOption func(*LockOptions)

// Lock the selected row until the transaction ends
func ForUpdate() LockOption {
	return func(o *LockOptions) {
		o.ForUpdate = true
	}
}

func BuildLockOptions(opts ...LockOption) LockOptions {
	var o LockOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
