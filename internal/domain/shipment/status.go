package shipment

import "strings"

type Status string

const (
	StatusPickedUp       Status = "PickedUp"
	StatusInTransit      Status = "InTransit"
	StatusEnRoute        Status = "EnRoute"
	StatusInCustoms      Status = "InCustoms"
	StatusAtHub          Status = "AtHub"
	StatusOutForDelivery Status = "OutForDelivery"
	StatusDelivered      Status = "Delivered"
	StatusDelayed        Status = "Delayed"
	StatusCancelled      Status = "Cancelled"
)

// Statuses lists every status in lifecycle order. Any status may follow any other.
func Statuses() []Status {
	return []Status{
		StatusPickedUp,
		StatusInTransit,
		StatusEnRoute,
		StatusInCustoms,
		StatusAtHub,
		StatusOutForDelivery,
		StatusDelivered,
		StatusDelayed,
		StatusCancelled,
	}
}

func (s Status) Valid() bool {
	for _, known := range Statuses() {
		if s == known {
			return true
		}
	}
	return false
}

func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.TrimSpace(raw))
	return s, s.Valid()
}

func StatusList() string {
	parts := make([]string, 0, len(Statuses()))
	for _, s := range Statuses() {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, ", ")
}
