package fusion

import (
	"encoding/json"
	"strings"

	"github.com/Pavankumar07s/ETHF/types"
)

// classifyPlacement inspects a placement/submission error payload for the
// venue's known failure categories and maps each onto a specific,
// remediation-carrying payment error instead of a generic failure.
func classifyPlacement(status int, body []byte) error {
	var envelope struct {
		Description string `json:"description"`
		Error       string `json:"error"`
		Message     string `json:"message"`
	}
	_ = json.Unmarshal(body, &envelope)

	detail := envelope.Description
	if detail == "" {
		detail = envelope.Error
	}
	if detail == "" {
		detail = envelope.Message
	}
	lower := strings.ToLower(detail)

	switch {
	case strings.Contains(detail, "NotEnoughBalanceOrAllowance"):
		// The venue reports a balance/allowance problem even though the
		// local pre-check passed; in practice that means the token is not
		// routable on this venue or lacks liquidity.
		pe := types.NewPaymentError(
			types.ErrUnsupportedTokenVenue,
			"the venue rejected this token despite sufficient balance; it may not be supported on this chain. Try a major token such as USDT or USDC",
		)
		pe.Data = detail
		return pe
	case strings.Contains(lower, "token"):
		pe := types.NewPaymentError(
			types.ErrUnsupportedTokenVenue,
			"this token is not supported by the settlement venue on this chain. Try a major token such as USDT or USDC",
		)
		pe.Data = detail
		return pe
	case strings.Contains(lower, "minimum") || strings.Contains(lower, "amount"):
		pe := types.NewPaymentError(
			types.ErrAmountBelowMinimum,
			"the order amount is below the venue minimum; increase the order to at least about $50",
		)
		pe.Data = detail
		return pe
	default:
		pe := types.NewPaymentError(
			types.ErrOrderPlacementFailed,
			"the settlement venue rejected the order (status %d)", status,
		)
		pe.Data = detail
		return pe
	}
}
