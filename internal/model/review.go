package model

// ReviewStatus is the doctor's clinical gating sub-state. It is independent
// of the case status and never advances it automatically.
type ReviewStatus string

const (
	// ReviewStatusPending is the implicit initial state (NULL column).
	ReviewStatusPending            ReviewStatus = "pending"
	ReviewStatusNeedsInfo          ReviewStatus = "needs_info"
	ReviewStatusApprovedForBooking ReviewStatus = "approved_for_booking"
	ReviewStatusRejected           ReviewStatus = "rejected"
)

func ReviewStatusFromString(s string) (ReviewStatus, bool) {
	rs := ReviewStatus(s)
	switch rs {
	case ReviewStatusPending, ReviewStatusNeedsInfo,
		ReviewStatusApprovedForBooking, ReviewStatusRejected:
		return rs, true
	}
	return rs, false
}

// Submittable reports whether a doctor may set this value through the review
// endpoint. Pending only exists as the initial state.
func (s ReviewStatus) Submittable() bool {
	switch s {
	case ReviewStatusNeedsInfo, ReviewStatusApprovedForBooking, ReviewStatusRejected:
		return true
	}
	return false
}

func (s ReviewStatus) Label() string {
	switch s {
	case ReviewStatusPending:
		return "Pending review"
	case ReviewStatusNeedsInfo:
		return "Needs more info"
	case ReviewStatusApprovedForBooking:
		return "Approved for booking"
	case ReviewStatusRejected:
		return "Rejected"
	}
	return string(s)
}

// SubmitReviewRequest sets both review fields in one atomic write. There is
// no API path that updates only one of them for the doctor role.
type SubmitReviewRequest struct {
	Status string `json:"status" binding:"required,review_status"`
	Notes  string `json:"notes"`
}
