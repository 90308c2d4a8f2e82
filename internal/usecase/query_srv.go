package usecase

import (
	"context"
	"fmt"
	"sort"

	"clinic-booking/internal/data/entity"
	"clinic-booking/internal/data/repository"
	"clinic-booking/internal/dto/response"
	"clinic-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// latestLimit is how many recent bookings the dashboard lists.
const latestLimit = 5

// QueryService holds the read paths. None of them write.
type QueryService interface {
	MyAppointments(ctx context.Context, caller entity.Principal) ([]*response.AppointmentResponse, error)
	DoctorAppointments(ctx context.Context, caller entity.Principal, doctorID string) ([]*response.AppointmentResponse, error)
	AllAppointments(ctx context.Context, caller entity.Principal) ([]*response.AppointmentResponse, error)
	GetAppointment(ctx context.Context, caller entity.Principal, appointmentID string) (*response.AppointmentResponse, error)
	Dashboard(ctx context.Context, caller entity.Principal) (*response.DashboardResponse, error)
}

type queryService struct {
	repo repository.AppointmentRepository
	log  *zap.Logger
}

func NewQueryService(repo repository.AppointmentRepository, log *zap.Logger) QueryService {
	return &queryService{
		repo: repo,
		log:  log.With(zap.String("service", "query")),
	}
}

// sortNewestScheduled orders by scheduled date, then creation time, both
// descending.
func sortNewestScheduled(list []*entity.Appointment) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].ScheduledDate.Equal(list[j].ScheduledDate) {
			return list[i].ScheduledDate.After(list[j].ScheduledDate)
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

func (s *queryService) MyAppointments(ctx context.Context, caller entity.Principal) ([]*response.AppointmentResponse, error) {
	if !caller.Valid() {
		return nil, ErrUnauthenticated
	}
	if !caller.IsPatient() {
		return nil, fmt.Errorf("list own appointments as %s: %w", caller.Role, ErrForbidden)
	}

	list, err := s.repo.FindByPatient(ctx, caller.ID)
	if err != nil {
		return nil, storeError("find patient appointments", err)
	}
	sortNewestScheduled(list)

	return response.NewAppointmentListResponse(list), nil
}

func (s *queryService) DoctorAppointments(ctx context.Context, caller entity.Principal, doctorID string) ([]*response.AppointmentResponse, error) {
	if !caller.Valid() {
		return nil, ErrUnauthenticated
	}

	id, err := uuid.Parse(doctorID)
	if err != nil {
		return nil, fmt.Errorf("%w: doctor id %q", ErrInvalidInput, doctorID)
	}
	if !caller.IsAdmin() && !(caller.IsDoctor() && caller.ID == id) {
		s.log.Warn("Doctor appointments forbidden",
			zap.String("caller_id", caller.ID.String()),
			zap.String("doctor_id", doctorID),
		)
		return nil, fmt.Errorf("list appointments of doctor %s: %w", id, ErrForbidden)
	}

	list, err := s.repo.FindByDoctor(ctx, id)
	if err != nil {
		return nil, storeError("find doctor appointments", err)
	}
	sortNewestScheduled(list)

	return response.NewAppointmentListResponse(list), nil
}

func (s *queryService) AllAppointments(ctx context.Context, caller entity.Principal) ([]*response.AppointmentResponse, error) {
	if !caller.Valid() {
		return nil, ErrUnauthenticated
	}
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("list all appointments: %w", ErrForbidden)
	}

	list, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, storeError("find all appointments", err)
	}

	return response.NewAppointmentListResponse(list), nil
}

func (s *queryService) GetAppointment(ctx context.Context, caller entity.Principal, appointmentID string) (*response.AppointmentResponse, error) {
	if !caller.Valid() {
		return nil, ErrUnauthenticated
	}

	id, err := uuid.Parse(appointmentID)
	if err != nil {
		return nil, fmt.Errorf("%w: appointment id %q", ErrInvalidInput, appointmentID)
	}

	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("find appointment", err)
	}
	if a == nil {
		return nil, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
	}
	if !AllowedActions(caller, a).Has(ActionRead) {
		return nil, fmt.Errorf("read appointment %s: %w", id, ErrForbidden)
	}

	return response.NewAppointmentResponse(a), nil
}

func (s *queryService) Dashboard(ctx context.Context, caller entity.Principal) (*response.DashboardResponse, error) {
	if !caller.Valid() {
		return nil, ErrUnauthenticated
	}
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("dashboard: %w", ErrForbidden)
	}

	list, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, storeError("find all appointments", err)
	}

	return buildDashboard(list), nil
}

func buildDashboard(list []*entity.Appointment) *response.DashboardResponse {
	stats := &response.DashboardResponse{
		TotalAppointments: len(list),
		ByStatus: map[string]int{
			string(entity.StatusPending):   0,
			string(entity.StatusConfirmed): 0,
			string(entity.StatusCompleted): 0,
			string(entity.StatusCancelled): 0,
		},
		ByPaymentStatus: map[string]int{
			string(entity.PaymentStatusPending): 0,
			string(entity.PaymentStatusPaid):    0,
			string(entity.PaymentStatusFailed):  0,
		},
		PerDay: []response.DayCount{},
		Latest: []*response.AppointmentResponse{},
	}

	patients := make(map[uuid.UUID]struct{})
	doctors := make(map[uuid.UUID]struct{})
	perDay := make(map[string]int)
	revenue := decimal.Zero

	for _, a := range list {
		stats.ByStatus[string(a.Status)]++
		stats.ByPaymentStatus[string(a.PaymentStatus)]++
		patients[a.PatientID] = struct{}{}
		doctors[a.Doctor.DoctorID] = struct{}{}
		perDay[utils.FormatDate(a.ScheduledDate)]++

		if a.PaymentStatus == entity.PaymentStatusPaid && a.Status != entity.StatusCancelled {
			revenue = revenue.Add(a.Doctor.Fee)
		}
	}

	stats.Patients = len(patients)
	stats.Doctors = len(doctors)
	stats.PaidRevenue = revenue.StringFixed(2)

	for day, count := range perDay {
		stats.PerDay = append(stats.PerDay, response.DayCount{Date: day, Count: count})
	}
	sort.Slice(stats.PerDay, func(i, j int) bool { return stats.PerDay[i].Date < stats.PerDay[j].Date })

	recent := make([]*entity.Appointment, len(list))
	copy(recent, list)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].CreatedAt.After(recent[j].CreatedAt) })
	if len(recent) > latestLimit {
		recent = recent[:latestLimit]
	}
	stats.Latest = response.NewAppointmentListResponse(recent)

	return stats
}
