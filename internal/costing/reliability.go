package costing

import "time"

// ReliabilitySource supplies a supplier reliability score in [0.6, 0.95].
// The original back office simulated this number; keeping it behind an
// interface lets the host wire real on-time delivery data while tests pin
// a fixed value.
type ReliabilitySource interface {
	Score(supplier string) float64
}

// Delivery is one historical purchase delivery for a supplier.
type Delivery struct {
	Supplier  string
	Promised  time.Time
	Delivered time.Time
}

// DeliveryHistorySource scores suppliers by their on-time delivery rate,
// scaled into the [0.6, 0.95] band the predictor expects. Suppliers with no
// recorded deliveries get the band midpoint.
type DeliveryHistorySource struct {
	onTime map[string]int
	total  map[string]int
}

// NewDeliveryHistorySource indexes the given deliveries by supplier.
func NewDeliveryHistorySource(deliveries []Delivery) *DeliveryHistorySource {
	s := &DeliveryHistorySource{
		onTime: make(map[string]int),
		total:  make(map[string]int),
	}
	for _, d := range deliveries {
		if d.Supplier == "" {
			continue
		}
		s.total[d.Supplier]++
		if !d.Delivered.After(d.Promised) {
			s.onTime[d.Supplier]++
		}
	}
	return s
}

func (s *DeliveryHistorySource) Score(supplier string) float64 {
	total := s.total[supplier]
	if total == 0 {
		return reliabilityFloor + (reliabilityCeil-reliabilityFloor)/2
	}

	rate := float64(s.onTime[supplier]) / float64(total)
	return reliabilityFloor + rate*(reliabilityCeil-reliabilityFloor)
}

const (
	reliabilityFloor = 0.6
	reliabilityCeil  = 0.95
)

// FixedReliability always returns the same score. Useful as a default and
// in tests.
type FixedReliability float64

func (f FixedReliability) Score(string) float64 { return float64(f) }
