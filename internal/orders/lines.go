package orders

// ValidateLines rejects malformed input before any storage access.
// Duplicate product ids are rejected rather than merged: one line per
// product keeps reservation rollback accounting trivial.
func ValidateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return validationf("order has no line items")
	}
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if l.ProductID == "" {
			return validationf("line item missing product id")
		}
		if l.Qty <= 0 {
			return validationf("invalid qty for product %s", l.ProductID)
		}
		if seen[l.ProductID] {
			return validationf("duplicate line for product %s", l.ProductID)
		}
		seen[l.ProductID] = true
	}
	return nil
}
