package models

type NamedCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type AdminAnalytics struct {
	TotalPatients         int64        `json:"totalPatients"`
	TotalDoctors          int64        `json:"totalDoctors"`
	TotalReceptionists    int64        `json:"totalReceptionists"`
	MonthlyAppointments   int64        `json:"monthlyAppointments"`
	TodayAppointments     int64        `json:"todayAppointments"`
	PendingAppointments   int64        `json:"pendingAppointments"`
	CompletedAppointments int64        `json:"completedAppointments"`
	SimulatedRevenue      int64        `json:"simulatedRevenue"`
	TopDiagnoses          []NamedCount `json:"topDiagnoses"`
	AppointmentsByMonth   []NamedCount `json:"appointmentsByMonth"`
}

type DoctorAnalytics struct {
	TodayAppointments   int64        `json:"todayAppointments"`
	MonthlyAppointments int64        `json:"monthlyAppointments"`
	TotalPrescriptions  int64        `json:"totalPrescriptions"`
	PendingToday        int64        `json:"pendingToday"`
	CompletedThisMonth  int64        `json:"completedThisMonth"`
	DailyStats          []NamedCount `json:"dailyStats"`
}
