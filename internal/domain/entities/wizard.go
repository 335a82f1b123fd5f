package entities

import "time"

// WizardStep is a position in the six-step enrollment wizard.
type WizardStep int

const (
	StepIdentity WizardStep = iota + 1
	StepBaseInfo
	StepProfile
	StepHealth
	StepLegalProtocol
	StepLogistics
)

const (
	FirstStep = StepIdentity
	LastStep  = StepLogistics
)

var stepTitles = map[WizardStep]string{
	StepIdentity:      "Identidade",
	StepBaseInfo:      "Base",
	StepProfile:       "Perfil",
	StepHealth:        "Saúde",
	StepLegalProtocol: "Protocolo",
	StepLogistics:     "Logística",
}

// Title returns the label shown in the step indicator.
func (s WizardStep) Title() string {
	return stepTitles[s]
}

func (s WizardStep) IsValid() bool {
	return s >= FirstStep && s <= LastStep
}

// PaymentMethod is the simulated payment option chosen at the last step.
type PaymentMethod string

const (
	PaymentMethodPix        PaymentMethod = "PIX"
	PaymentMethodCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentMethodBoleto     PaymentMethod = "BOLETO"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodPix, PaymentMethodCreditCard, PaymentMethodBoleto:
		return true
	}
	return false
}

// Inline validation messages
const (
	MsgVideoRequired    = "Vídeo Obrigatório"
	MsgGuardianRequired = "Dados do Responsável Obrigatórios"
	MsgVideoAlert       = "Para prosseguir, realize o vídeo de identificação."
	MsgGuardianAlert    = "Recrutas menores de 18 anos devem preencher os dados do responsável e um telefone válido."
)

// WizardSnapshot is the externally visible state of a wizard.
type WizardSnapshot struct {
	Step             WizardStep      `json:"step"`
	StepTitle        string          `json:"stepTitle"`
	Steps            []string        `json:"steps"`
	Data             EnrollmentData  `json:"data"`
	IsMinor          bool            `json:"isMinor"`
	Age              int             `json:"age"`
	ConsentText      string          `json:"consentText"`
	ConsentLoading   bool            `json:"consentLoading"`
	PaymentMethod    PaymentMethod   `json:"paymentMethod,omitempty"`
	PaymentProcessed bool            `json:"paymentProcessed"`
	Capture          CaptureSnapshot `json:"capture"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// StepTitles returns the ordered titles of all steps.
func StepTitles() []string {
	out := make([]string, 0, int(LastStep))
	for s := FirstStep; s <= LastStep; s++ {
		out = append(out, s.Title())
	}
	return out
}
