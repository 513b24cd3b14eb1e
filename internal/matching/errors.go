package matching

import (
	"errors"
	"fmt"
)

// Stable error codes carried by MatchError.
const (
	CodeInvalidConfig   = "invalid_config"
	CodeUnknownPlatform = "unknown_platform"
	CodeMatchFailed     = "match_failed"
	CodeCancelled       = "cancelled"
)

// MatchError is the structured error surfaced by the single-food entry
// point. Batch callers never see it; their failures degrade to empty results.
type MatchError struct {
	Code    string
	Message string
	FoodID  string
	Err     error
}

func (e *MatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (food %s): %v", e.Code, e.Message, e.FoodID, e.Err)
	}
	return fmt.Sprintf("%s: %s (food %s)", e.Code, e.Message, e.FoodID)
}

func (e *MatchError) Unwrap() error {
	return e.Err
}

func newMatchError(code, message, foodID string, err error) *MatchError {
	return &MatchError{Code: code, Message: message, FoodID: foodID, Err: err}
}

// AsMatchError unwraps err into a *MatchError when possible.
func AsMatchError(err error) (*MatchError, bool) {
	var me *MatchError
	if errors.As(err, &me) {
		return me, true
	}
	return nil, false
}

// ValidateConfig rejects malformed per-call configuration before any catalog
// read is issued.
func ValidateConfig(cfg MatchConfig) error {
	if mc := cfg.MinConfidence; mc != nil && (*mc < 0 || *mc > 1) {
		return fmt.Errorf("minConfidence %v outside [0,1]", *mc)
	}
	if cfg.MaxResults < 0 {
		return fmt.Errorf("maxResults %d is negative", cfg.MaxResults)
	}
	if pr := cfg.PriceRange; pr != nil {
		if pr.Min < 0 || pr.Max < 0 {
			return fmt.Errorf("priceRange bounds must be non-negative")
		}
		if pr.Max > 0 && pr.Min > pr.Max {
			return fmt.Errorf("priceRange min %v exceeds max %v", pr.Min, pr.Max)
		}
	}
	return nil
}
