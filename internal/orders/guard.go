package orders

// Authorize is the ownership gate: every mutation (and single-resource
// read) of a Client/Order runs it before anything else, so a denied
// request can never leave partial state behind.
func Authorize(actorID, sellerID string) error {
	if actorID != sellerID {
		return &PermissionError{ActorID: actorID, SellerID: sellerID}
	}
	return nil
}
