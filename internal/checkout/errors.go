package checkout

import "errors"

var (
	ErrNoCart              = errors.New("checkout needs a cart with at least one item")
	ErrSessionNotFound     = errors.New("checkout session not found")
	IllegalTransitionError = errors.New("illegal transition of checkout step")
	ErrStepIncomplete      = errors.New("checkout step is incomplete")
	ErrWrongStep           = errors.New("action not allowed at the current checkout step")
	ErrIncompatibleMethod  = errors.New("selection does not match the delivery method")
	ErrContactUnavailable  = errors.New("contact profile could not be resolved, try again")
	ErrCheckoutCompleted   = errors.New("checkout already completed")
)
