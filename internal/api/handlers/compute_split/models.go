package compute_split

import "github.com/m04kA/SMC-TherapyBooking/internal/domain"

// SplitResponse HTTP response model
type SplitResponse struct {
	Gross          int64 `json:"gross"`
	Professional   int64 `json:"professionalAmount"`
	Platform       int64 `json:"platformAmount"`
	SocialDonation int64 `json:"socialDonation"`
	PlatformNet    int64 `json:"platformNet"`
}

func fromDomain(s domain.MoneySplit) *SplitResponse {
	return &SplitResponse{
		Gross:          s.Gross,
		Professional:   s.Professional,
		Platform:       s.Platform,
		SocialDonation: s.SocialDonation,
		PlatformNet:    s.PlatformNet(),
	}
}
