package domain

import "strings"

// POStatus is the lifecycle status carried by the purchase-order feed.
type POStatus string

const (
	StatusPendingAcknowledgement POStatus = "PENDING_ACKNOWLEDGEMENT"
	StatusPendingGRN             POStatus = "PENDING_GRN"

	// StatusCompleted is the closed-state sentinel assigned to reconciled rows
	// that have no open purchase-order counterpart.
	StatusCompleted POStatus = "Completed"
)

// openStatuses is the set of statuses under which a PO is still awaiting goods
// receipt.
var openStatuses = map[POStatus]bool{
	StatusPendingAcknowledgement: true,
	StatusPendingGRN:             true,
}

// IsOpen reports whether the status belongs to the open set.
func (s POStatus) IsOpen() bool {
	return openStatuses[s]
}

// ParsePOStatus normalizes a raw status cell from the PO feed. Matching is
// case-insensitive for the open set; unknown labels are kept verbatim so they
// still classify as closed.
func ParsePOStatus(label string) POStatus {
	trimmed := strings.TrimSpace(label)
	switch strings.ToUpper(trimmed) {
	case string(StatusPendingAcknowledgement):
		return StatusPendingAcknowledgement
	case string(StatusPendingGRN):
		return StatusPendingGRN
	}

	return POStatus(trimmed)
}
