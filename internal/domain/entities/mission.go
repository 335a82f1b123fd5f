package entities

// MissionStatus represents mission lifecycle
type MissionStatus string

const (
	MissionOpen       MissionStatus = "OPEN"
	MissionClosed     MissionStatus = "CLOSED"
	MissionInProgress MissionStatus = "IN_PROGRESS"
)

func (s MissionStatus) IsValid() bool {
	return s == MissionOpen || s == MissionClosed || s == MissionInProgress
}

// Mission is a field operation participants can be assigned to.
type Mission struct {
	ID          string        `json:"id" yaml:"id"`
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description" yaml:"description"`
	StartDate   string        `json:"startDate" yaml:"startDate"`
	EndDate     string        `json:"endDate" yaml:"endDate"`
	Capacity    int           `json:"capacity" yaml:"capacity"`
	Enrolled    int           `json:"enrolled" yaml:"enrolled"`
	Status      MissionStatus `json:"status" yaml:"status"`
}

// OccupancyPercent returns enrolled/capacity as a percentage.
func (m *Mission) OccupancyPercent() float64 {
	if m.Capacity <= 0 {
		return 0
	}
	return float64(m.Enrolled) / float64(m.Capacity) * 100
}
