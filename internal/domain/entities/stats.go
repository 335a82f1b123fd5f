package entities

// Dashboard baselines. The program reports these on top of the live store.
const (
	BaselineEnrolled        = 450
	BaselinePaidInsights    = 320
	BaselineRevenueK        = 84
	BaselinePendingPayments = 15
	ActiveMissions          = 8
	MissionGoal             = 500
	EnrollmentFee           = 1250
)

// AdminStats feeds the admin dashboard cards.
type AdminStats struct {
	TotalEnrolled   int     `json:"totalEnrolled"`
	ActiveMissions  int     `json:"activeMissions"`
	RevenueK        float64 `json:"revenueK"`
	PendingPayments int     `json:"pendingPayments"`
}

// InsightStats is the aggregate sent to the insights generator.
type InsightStats struct {
	TotalInscritos int `json:"totalInscritos"`
	TotalPagos     int `json:"totalPagos"`
	MetaMissao     int `json:"metaMissao"`
}

// PaymentSummary backs the financial views.
type PaymentSummary struct {
	PaidCount    int            `json:"paidCount"`
	Revenue      int            `json:"revenue"`
	Transactions []*UserProfile `json:"transactions"`
}

// StatusReport counts enrollments per review state.
type StatusReport struct {
	Approved  int `json:"approved"`
	Reviewing int `json:"reviewing"`
	Pending   int `json:"pending"`
	Rejected  int `json:"rejected"`
	Total     int `json:"total"`
}
