package entities

import "time"

// AppView is the screen a session is currently showing.
type AppView string

const (
	ViewDashboard      AppView = "DASHBOARD"
	ViewEnrollment     AppView = "ENROLLMENT"
	ViewUsers          AppView = "USERS"
	ViewMissions       AppView = "MISSIONS"
	ViewPayments       AppView = "PAYMENTS"
	ViewReports        AppView = "REPORTS"
	ViewMissionInfo    AppView = "MISSION_INFO"
	ViewPaymentHistory AppView = "PAYMENT_HISTORY"
)

var (
	adminViews = []AppView{ViewDashboard, ViewUsers, ViewMissions, ViewPayments, ViewReports}
	userViews  = []AppView{ViewDashboard, ViewEnrollment, ViewMissionInfo, ViewPaymentHistory}
)

// MenuFor returns the navigation menu of a role.
func MenuFor(role UserRole) []AppView {
	src := userViews
	if role == UserRoleAdmin {
		src = adminViews
	}
	out := make([]AppView, len(src))
	copy(out, src)
	return out
}

// ViewAllowed reports whether the role's menu includes the view.
func ViewAllowed(role UserRole, view AppView) bool {
	for _, v := range MenuFor(role) {
		if v == view {
			return true
		}
	}
	return false
}

// ViewTitle returns the page header for a view.
func ViewTitle(view AppView, role UserRole) string {
	switch view {
	case ViewDashboard:
		if role == UserRoleAdmin {
			return "Logística Central"
		}
		return "Minha Jornada"
	case ViewEnrollment:
		return "Inscrição de Missão"
	case ViewUsers:
		return "Participantes Ativos"
	case ViewMissions:
		return "Operações de Campo"
	case ViewPayments:
		return "Logística Financeira"
	case ViewReports:
		return "Análise de Inteligência"
	case ViewMissionInfo:
		return "Sobre o Chamado"
	case ViewPaymentHistory:
		return "Minhas Transações"
	default:
		return "UOU MOVEMENT"
	}
}

// Briefing thresholds
const (
	BriefingCompletePercent = 95.0
	BriefingMaxSeekSeconds  = 2.0
)

// BriefingProgress tracks the mandatory briefing video.
type BriefingProgress struct {
	LastTime  float64 `json:"lastTime"`
	Progress  float64 `json:"progress"`
	Completed bool    `json:"completed"`
}

// Session is one client's view of the application.
type Session struct {
	ID        string           `json:"id"`
	Profile   *UserProfile     `json:"profile"`
	View      AppView          `json:"view"`
	Briefing  BriefingProgress `json:"briefing"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Authenticated reports whether a profile is active.
func (s *Session) Authenticated() bool {
	return s != nil && s.Profile != nil
}

// BriefingUpdate is the outcome of one briefing progress report. When a
// forward jump is rejected the client must seek back to SeekTo.
type BriefingUpdate struct {
	BriefingProgress
	Rejected bool    `json:"rejected"`
	SeekTo   float64 `json:"seekTo"`
}

// StatusBadge is the dashboard summary of an enrollment state.
type StatusBadge struct {
	Text    string `json:"text"`
	Subtext string `json:"subtext"`
}

// BadgeFor returns the dashboard badge of an enrollment status. Pending
// enrollments have none.
func BadgeFor(status EnrollmentStatus) *StatusBadge {
	switch status {
	case EnrollmentApproved:
		return &StatusBadge{Text: "Inscrição Aprovada", Subtext: "Prepare-se para o embarque."}
	case EnrollmentReviewing:
		return &StatusBadge{Text: "Em Análise Logística", Subtext: "Aguarde a validação do comando."}
	case EnrollmentRejected:
		return &StatusBadge{Text: "Acesso Negado", Subtext: "Revise suas informações."}
	}
	return nil
}
