package booking

import "mixlab/internal/domain"

// hourlyRates in PHP per hour.
var hourlyRates = map[domain.ServiceType]int64{
	domain.ServiceMusicLesson: 500,
	domain.ServiceRecording:   1500,
	domain.ServiceRehearsal:   800,
	domain.ServiceDance:       600,
	domain.ServiceArrangement: 2000,
	domain.ServiceVoiceover:   1000,
}

// FallbackService prices any service type the table does not know.
const FallbackService = domain.ServiceRehearsal

func Rate(st domain.ServiceType) int64 {
	if r, ok := hourlyRates[st]; ok {
		return r
	}
	return hourlyRates[FallbackService]
}

func TotalPrice(st domain.ServiceType, hours int) int64 {
	return Rate(st) * int64(hours)
}

// IsKnownService reports whether st has its own rate.
func IsKnownService(st domain.ServiceType) bool {
	_, ok := hourlyRates[st]
	return ok
}

// DisplayName is the label used on invoices.
func DisplayName(st domain.ServiceType) string {
	switch st {
	case domain.ServiceRecording:
		return "Recording Studio"
	case domain.ServiceVoiceover:
		return "Voiceover/Podcast"
	case domain.ServiceArrangement:
		return "Music Arrangement"
	}
	return string(st)
}
