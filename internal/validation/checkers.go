package validation

import (
	"fmt"
	"time"

	"github.com/rishav/matching-core/internal/price"
)

// Conclusion is the validator's verdict: success, or
// failure carrying a human-readable reason surfaced as a reject message,
// never as a fatal error.
type Conclusion struct {
	err error
}

// Success returns a passing Conclusion.
func Success() Conclusion { return Conclusion{} }

// Failure returns a Conclusion carrying the given reason.
func Failure(reason string) Conclusion { return Conclusion{err: fmt.Errorf("%s", reason)} }

func (c Conclusion) Successful() bool { return c.err == nil }
func (c Conclusion) Err() error       { return c.err }
func (c Conclusion) Reason() string {
	if c.err == nil {
		return ""
	}
	return c.err.Error()
}

// Config is the venue's configurable price/quantity bounds.
// A zero Has* flag means that check is skipped, except MinQuantity's
// baseline qty>0 requirement, which always applies.
type Config struct {
	PriceTick      price.Price
	HasPriceTick   bool
	QuantityTick   int64
	HasQuantityTick bool
	MinQuantity    int64
	HasMinQuantity bool
	MaxQuantity    int64
	HasMaxQuantity bool
}

// CheckPriceTick verifies p is a positive multiple of the configured
// tick. Absent tick: skip. A configured tick that is itself non-positive
// is a violation for every price.
func (c Config) CheckPriceTick(p price.Price) error {
	if !c.HasPriceTick {
		return nil
	}
	if c.PriceTick.Sign() <= 0 {
		return fmt.Errorf("price tick is not positive")
	}
	if !price.RespectsTick(p, c.PriceTick) {
		return fmt.Errorf("price does not respect tick %s", c.PriceTick.String())
	}
	return nil
}

// CheckQuantity verifies qty > 0 always, then tick/min/max only if configured.
func (c Config) CheckQuantity(qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if c.HasQuantityTick && c.QuantityTick > 0 && qty%c.QuantityTick != 0 {
		return fmt.Errorf("quantity does not respect tick %d", c.QuantityTick)
	}
	if c.HasMinQuantity && qty < c.MinQuantity {
		return fmt.Errorf("quantity %d below minimum %d", qty, c.MinQuantity)
	}
	if c.HasMaxQuantity && qty > c.MaxQuantity {
		return fmt.Errorf("quantity %d above maximum %d", qty, c.MaxQuantity)
	}
	return nil
}

// CheckLowHigh validates an instrument-info recovery value: both prices
// respect tick, and low <= high.
func (c Config) CheckLowHigh(low, high price.Price) error {
	if err := c.CheckPriceTick(low); err != nil {
		return fmt.Errorf("low price: %w", err)
	}
	if err := c.CheckPriceTick(high); err != nil {
		return fmt.Errorf("high price: %w", err)
	}
	if low.GreaterThan(high) {
		return fmt.Errorf("low price %s greater than high price %s", low.String(), high.String())
	}
	return nil
}

// ExpireConsistency checks a recovered order's expire-time/date against
// the current phase clock: an expire instant/date that has already
// passed relative to "now" is inconsistent with recovering the order
// into a live book.
func ExpireConsistency(now time.Time, expireTime *time.Time, expireDate *time.Time) error {
	if expireTime != nil && !now.Before(*expireTime) {
		return fmt.Errorf("expire time %s is not after current time %s", expireTime, now)
	}
	if expireDate != nil && now.After(*expireDate) {
		return fmt.Errorf("expire date %s is before current date %s", expireDate.Format("2006-01-02"), now.Format("2006-01-02"))
	}
	return nil
}
