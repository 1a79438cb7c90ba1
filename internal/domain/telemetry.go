package domain

import "time"

// StatsHit is one recorded endpoint hit for the analytics collaborator.
type StatsHit struct {
	App       string    `json:"app"`
	URI       string    `json:"uri"`
	IP        string    `json:"ip"`
	Timestamp time.Time `json:"timestamp"`
}

// TelemetrySink records endpoint hits. Implementations are fire-and-forget:
// RecordHit must not block the caller on delivery and delivery failures never
// affect the caller's outcome.
type TelemetrySink interface {
	RecordHit(hit StatsHit)
}

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}
