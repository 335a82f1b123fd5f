package usecases

import (
	"context"

	"golang.org/x/sync/errgroup"

	"chamado.backend/internal/domain/entities"
	domainerrors "chamado.backend/internal/domain/errors"
	"chamado.backend/internal/domain/repositories"
	"chamado.backend/pkg/utils"
)

// InsightsGenerator summarizes the dashboard aggregate. It always returns
// text; failures come back as fallback messages.
type InsightsGenerator interface {
	GenerateAdminInsights(ctx context.Context, stats entities.InsightStats) string
}

// StatusChanger applies an administrative enrollment decision.
type StatusChanger interface {
	SetEnrollmentStatus(ctx context.Context, userID string, status entities.EnrollmentStatus) (*entities.UserProfile, error)
}

// UserFilter narrows the participant list.
type UserFilter struct {
	Search           string
	PaymentStatus    entities.PaymentStatus
	EnrollmentStatus entities.EnrollmentStatus
}

// InsightsReport is the aggregate and the generated analysis.
type InsightsReport struct {
	Stats entities.InsightStats `json:"stats"`
	Text  string                `json:"text"`
}

// AdminDashboard bundles the admin landing page.
type AdminDashboard struct {
	Stats    *entities.AdminStats    `json:"stats"`
	Recent   []*entities.UserProfile `json:"recent"`
	Missions []*entities.Mission     `json:"missions"`
}

// recentLimit is the number of records on the dashboard table.
const recentLimit = 5

// AdminUsecase serves the administrator and dashboard read models.
type AdminUsecase struct {
	identities repositories.IdentityStore
	missions   repositories.MissionCatalog
	statuses   StatusChanger
	insights   InsightsGenerator
}

// NewAdminUsecase creates a new admin usecase
func NewAdminUsecase(
	identities repositories.IdentityStore,
	missions repositories.MissionCatalog,
	statuses StatusChanger,
	insights InsightsGenerator,
) *AdminUsecase {
	return &AdminUsecase{
		identities: identities,
		missions:   missions,
		statuses:   statuses,
		insights:   insights,
	}
}

// ListUsers returns the matching participants, paginated in store order.
func (u *AdminUsecase) ListUsers(ctx context.Context, filter UserFilter, p utils.PaginationParams) ([]*entities.UserProfile, utils.PaginationMeta, error) {
	if filter.PaymentStatus != "" && !filter.PaymentStatus.IsValid() {
		return nil, utils.PaginationMeta{}, domainerrors.ErrInvalidStatus
	}
	if filter.EnrollmentStatus != "" && !filter.EnrollmentStatus.IsValid() {
		return nil, utils.PaginationMeta{}, domainerrors.ErrInvalidStatus
	}

	preds := []repositories.ProfilePredicate{repositories.BySearch(filter.Search)}
	if filter.PaymentStatus != "" {
		preds = append(preds, repositories.ByPaymentStatus(filter.PaymentStatus))
	}
	if filter.EnrollmentStatus != "" {
		preds = append(preds, repositories.ByEnrollmentStatus(filter.EnrollmentStatus))
	}

	list, err := u.identities.Filter(ctx, repositories.All(preds...))
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	page, meta := utils.Paginate(list, p)
	return page, meta, nil
}

// GetUser returns one participant record.
func (u *AdminUsecase) GetUser(ctx context.Context, id string) (*entities.UserProfile, error) {
	return u.identities.GetByID(ctx, id)
}

func (u *AdminUsecase) Approve(ctx context.Context, id string) (*entities.UserProfile, error) {
	return u.statuses.SetEnrollmentStatus(ctx, id, entities.EnrollmentApproved)
}

func (u *AdminUsecase) Reject(ctx context.Context, id string) (*entities.UserProfile, error) {
	return u.statuses.SetEnrollmentStatus(ctx, id, entities.EnrollmentRejected)
}

func (u *AdminUsecase) SetStatus(ctx context.Context, id string, status entities.EnrollmentStatus) (*entities.UserProfile, error) {
	return u.statuses.SetEnrollmentStatus(ctx, id, status)
}

// Stats returns the dashboard cards: live counts on top of fixed baselines.
func (u *AdminUsecase) Stats(ctx context.Context) (*entities.AdminStats, error) {
	list, err := u.identities.Load(ctx)
	if err != nil {
		return nil, err
	}
	paid := countPayment(list, entities.PaymentPaid)
	unpaid := countPayment(list, entities.PaymentUnpaid)
	return &entities.AdminStats{
		TotalEnrolled:   entities.BaselineEnrolled + len(list),
		ActiveMissions:  entities.ActiveMissions,
		RevenueK:        entities.BaselineRevenueK + float64(paid)*0.5,
		PendingPayments: entities.BaselinePendingPayments + unpaid,
	}, nil
}

// InsightStats returns the aggregate sent to the insights generator.
func (u *AdminUsecase) InsightStats(ctx context.Context) (entities.InsightStats, error) {
	list, err := u.identities.Load(ctx)
	if err != nil {
		return entities.InsightStats{}, err
	}
	return entities.InsightStats{
		TotalInscritos: entities.BaselineEnrolled + len(list),
		TotalPagos:     entities.BaselinePaidInsights + countPayment(list, entities.PaymentPaid),
		MetaMissao:     entities.MissionGoal,
	}, nil
}

// Insights asks the generator for an analysis of the current aggregate.
func (u *AdminUsecase) Insights(ctx context.Context) (*InsightsReport, error) {
	stats, err := u.InsightStats(ctx)
	if err != nil {
		return nil, err
	}
	return &InsightsReport{
		Stats: stats,
		Text:  u.insights.GenerateAdminInsights(ctx, stats),
	}, nil
}

// Dashboard loads stats, the most recent records and the missions
// concurrently.
func (u *AdminUsecase) Dashboard(ctx context.Context) (*AdminDashboard, error) {
	out := &AdminDashboard{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := u.Stats(gctx)
		out.Stats = stats
		return err
	})
	g.Go(func() error {
		list, err := u.identities.Load(gctx)
		if err != nil {
			return err
		}
		if len(list) > recentLimit {
			list = list[:recentLimit]
		}
		out.Recent = list
		return nil
	})
	g.Go(func() error {
		missions, err := u.missions.List(gctx)
		out.Missions = missions
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Payments summarizes the financial view. Participants only see their own
// record.
func (u *AdminUsecase) Payments(ctx context.Context, viewer *entities.UserProfile) (*entities.PaymentSummary, error) {
	if viewer == nil {
		return nil, domainerrors.ErrNoActiveSession
	}
	var pred repositories.ProfilePredicate
	if !viewer.IsAdmin() {
		pred = repositories.ByID(viewer.ID)
	}
	list, err := u.identities.Filter(ctx, pred)
	if err != nil {
		return nil, err
	}
	paid := countPayment(list, entities.PaymentPaid)
	return &entities.PaymentSummary{
		PaidCount:    paid,
		Revenue:      paid * entities.EnrollmentFee,
		Transactions: list,
	}, nil
}

// Reports counts enrollments per review state.
func (u *AdminUsecase) Reports(ctx context.Context) (*entities.StatusReport, error) {
	list, err := u.identities.Load(ctx)
	if err != nil {
		return nil, err
	}
	r := &entities.StatusReport{Total: len(list)}
	for _, p := range list {
		switch p.EnrollmentStatus {
		case entities.EnrollmentApproved:
			r.Approved++
		case entities.EnrollmentReviewing:
			r.Reviewing++
		case entities.EnrollmentPending:
			r.Pending++
		case entities.EnrollmentRejected:
			r.Rejected++
		}
	}
	return r, nil
}

// Missions returns the mission catalog.
func (u *AdminUsecase) Missions(ctx context.Context) ([]*entities.Mission, error) {
	return u.missions.List(ctx)
}

func countPayment(list []*entities.UserProfile, status entities.PaymentStatus) int {
	n := 0
	for _, p := range list {
		if p.PaymentStatus == status {
			n++
		}
	}
	return n
}
