package natsadapter

import "github.com/samirrijal/rihla/internal/core/domain"

const (
	SubjectBookingConfirmed = "rihla.booking.confirmed"
	SubjectBookingRejected  = "rihla.booking.rejected"
	SubjectAdModerated      = "rihla.ad.moderated"

	subjectLocationPrefix = "rihla.trip.location."
	subjectNotifyPrefix   = "rihla.notify."
)

var outboxSubjects = map[string]string{
	domain.EventAdModerated: SubjectAdModerated,
}

// LocationSubject is the per-trip live location channel.
func LocationSubject(tripID string) string { return subjectLocationPrefix + tripID }

// NotifySubject is the per-user notification push channel.
func NotifySubject(userID string) string { return subjectNotifyPrefix + userID }
