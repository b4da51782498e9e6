package domain

// Доли в базисных пунктах (1/100 процента)
const (
	basisPoints           = 10000
	ProfessionalShareBP   = 8000 // 80% психологу
	PlatformShareBP       = 2000 // 20% платформе
	SocialDonationShareBP = 100  // 1% в социальный фонд, из доли платформы
)

// MoneySplit распределение стоимости сессии, суммы в минимальных единицах валюты
type MoneySplit struct {
	Gross          int64
	Professional   int64
	Platform       int64 // включает SocialDonation
	SocialDonation int64
}

// PlatformNet доля платформы за вычетом социального взноса
func (s MoneySplit) PlatformNet() int64 {
	return s.Platform - s.SocialDonation
}

// ComputeSplit рассчитывает распределение стоимости сессии.
// Professional + Platform == Gross всегда, остаток от округления уходит платформе.
func ComputeSplit(gross int64) MoneySplit {
	if gross <= 0 {
		return MoneySplit{Gross: gross}
	}

	professional := shareOf(gross, ProfessionalShareBP)
	return MoneySplit{
		Gross:          gross,
		Professional:   professional,
		Platform:       gross - professional,
		SocialDonation: shareOf(gross, SocialDonationShareBP),
	}
}

// shareOf округляет долю половиной вверх
func shareOf(amount int64, bp int64) int64 {
	return (amount*bp + basisPoints/2) / basisPoints
}
