// model/request.go
package model

import "time"

type RequestStatus string

const (
	RequestPendingIssue  RequestStatus = "PENDING_ISSUE"
	RequestIssued        RequestStatus = "ISSUED"
	RequestPendingReturn RequestStatus = "PENDING_RETURN"
	RequestReturned      RequestStatus = "RETURNED"
	RequestRejected      RequestStatus = "REJECTED"
	RequestCancelled     RequestStatus = "CANCELLED"
)

// Terminal reports whether a status has no outgoing transitions.
func (s RequestStatus) Terminal() bool {
	switch s {
	case RequestReturned, RequestRejected, RequestCancelled:
		return true
	}
	return false
}

// ActiveStatuses are the non-terminal statuses; at most one request per
// (borrower, book) pair may carry one of these at a time.
var ActiveStatuses = []RequestStatus{RequestPendingIssue, RequestIssued, RequestPendingReturn}

type BorrowRequest struct {
	ID                int64         `json:"id"`
	BorrowerID        int64         `json:"borrower_id"`
	BookID            int64         `json:"book_id"`
	Status            RequestStatus `json:"status"`
	RequestedAt       time.Time     `json:"requested_at"`
	IssuedAt          *time.Time    `json:"issued_at,omitempty"`
	ReturnRequestedAt *time.Time    `json:"return_requested_at,omitempty"`
	ReturnedAt        *time.Time    `json:"returned_at,omitempty"`
}
