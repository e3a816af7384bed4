package domain

import "time"

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
	ReviewHidden   ReviewStatus = "hidden"
)

func ParseReviewStatus(s string) (ReviewStatus, bool) {
	switch ReviewStatus(s) {
	case ReviewPending, ReviewApproved, ReviewRejected, ReviewHidden:
		return ReviewStatus(s), true
	default:
		return "", false
	}
}

type Review struct {
	ID             int64        `json:"id"`
	BookingID      int64        `json:"booking_id"`
	UserID         int64        `json:"user_id"`
	BusinessID     int64        `json:"business_id"`
	ServiceID      *int64       `json:"service_id,omitempty"`
	Rating         int          `json:"rating"`
	Title          string       `json:"title,omitempty"`
	Comment        string       `json:"comment,omitempty"`
	Pros           string       `json:"pros,omitempty"`
	Cons           string       `json:"cons,omitempty"`
	WouldRecommend *bool        `json:"would_recommend,omitempty"`
	IsVerified     bool         `json:"is_verified"`
	Status         ReviewStatus `json:"status"`
	HelpfulVotes   int          `json:"helpful_votes"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

type ReviewResponse struct {
	ID          int64     `json:"id"`
	ReviewID    int64     `json:"review_id"`
	BusinessID  int64     `json:"business_id"`
	Text        string    `json:"text"`
	RespondedBy int64     `json:"responded_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ReviewCreateRequest struct {
	BookingID      int64  `json:"booking_id"`
	BusinessID     int64  `json:"business_id"`
	ServiceID      *int64 `json:"service_id,omitempty"`
	Rating         int    `json:"rating"`
	Title          string `json:"title,omitempty"`
	Comment        string `json:"comment,omitempty"`
	Pros           string `json:"pros,omitempty"`
	Cons           string `json:"cons,omitempty"`
	WouldRecommend *bool  `json:"would_recommend,omitempty"`
}

func (r *ReviewCreateRequest) Validate() error {
	if r.BookingID == 0 || r.BusinessID == 0 {
		return Invalidf("booking_id and business_id are required")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return Invalidf("rating must be between 1 and 5")
	}
	return nil
}

type ReviewPatch struct {
	Rating         *int    `json:"rating,omitempty"`
	Title          *string `json:"title,omitempty"`
	Comment        *string `json:"comment,omitempty"`
	Pros           *string `json:"pros,omitempty"`
	Cons           *string `json:"cons,omitempty"`
	WouldRecommend *bool   `json:"would_recommend,omitempty"`
}

func (p *ReviewPatch) Validate() error {
	if p.Rating != nil && (*p.Rating < 1 || *p.Rating > 5) {
		return Invalidf("rating must be between 1 and 5")
	}
	return nil
}

type ReviewFilter struct {
	MinRating *int
	MaxRating *int
	Status    ReviewStatus
}

type ReviewResponseCreateRequest struct {
	ReviewID int64  `json:"review_id"`
	Text     string `json:"text"`
}

func (r *ReviewResponseCreateRequest) Validate() error {
	if r.ReviewID == 0 {
		return Invalidf("review_id is required")
	}
	if r.Text == "" {
		return Invalidf("response text is required")
	}
	return nil
}
