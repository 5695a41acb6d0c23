package outbox

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (event per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Event types emitted by this service.
const (
	EventAppointmentBooked      = "appointments.appointment.booked.v1"
	EventAppointmentRescheduled = "appointments.appointment.rescheduled.v1"
	EventAppointmentCancelled   = "appointments.appointment.cancelled.v1"
	EventSaleCompleted          = "pos.sale.completed.v1"
	EventStockLow               = "inventory.stock.low.v1"
)
