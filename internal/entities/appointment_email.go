package entities

// AppointmentEmailData feeds the HTML notification template.
type AppointmentEmailData struct {
	ClientName         string
	StylistName        string
	ServiceName        string
	StartTimeFormatted string
	DurationMinutes    int
	Headline           string
	CurrentYear        int
}
