package handlers

import "errors"

var (
	errMissingSlotIDs  = errors.New("missing my_slot_id or their_slot_id")
	errAcceptedNotBool = errors.New("accepted must be a boolean (true/false)")
)
