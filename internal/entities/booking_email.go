package entities

type BookingEmailData struct {
	StudentName        string
	BookingCode        string
	InstructorName     string
	LocationName       string
	VehicleName        string
	StartTimeFormatted string
	EndTimeFormatted   string
	Status             string
	CurrentYear        int
}
