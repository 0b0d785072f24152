package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	apperrors "kelatic/internal/errors"

	"kelatic/internal/db"
	"kelatic/internal/entities"
)

type fakeStore struct {
	services map[uuid.UUID]*db.Service
	stylists map[uuid.UUID]*db.Profile
	weekly   []db.StylistSchedule
	timeOff  []db.StylistTimeOff
	existing []db.Appointment
	clients  map[string]*db.Profile

	createdAppt      *db.Appointment
	createdClient    *db.Profile
	createdPayment   *db.Payment
	insertedAddons   []db.Service
	phoneUpdates     map[uuid.UUID]string
	rescheduledStart time.Time
	rescheduledEnd   time.Time
	cancelledBy      string
	statusUpdates    map[uuid.UUID]string
	notifLogs        []string

	failCreateClient bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		services:      map[uuid.UUID]*db.Service{},
		stylists:      map[uuid.UUID]*db.Profile{},
		clients:       map[string]*db.Profile{},
		phoneUpdates:  map[uuid.UUID]string{},
		statusUpdates: map[uuid.UUID]string{},
	}
}

func (f *fakeStore) GetService(id uuid.UUID) (*db.Service, error) {
	return f.services[id], nil
}

func (f *fakeStore) GetServicesByIDs(ids []uuid.UUID) ([]db.Service, error) {
	var out []db.Service
	for _, id := range ids {
		if svc, ok := f.services[id]; ok {
			out = append(out, *svc)
		}
	}
	return out, nil
}

func (f *fakeStore) GetStylist(id uuid.UUID) (*db.Profile, error) {
	return f.stylists[id], nil
}

func (f *fakeStore) WeeklySchedule(uuid.UUID) ([]db.StylistSchedule, error) {
	return f.weekly, nil
}

func (f *fakeStore) TimeOffBetween(uuid.UUID, time.Time, time.Time) ([]db.StylistTimeOff, error) {
	return f.timeOff, nil
}

func (f *fakeStore) AppointmentsBetween(uuid.UUID, time.Time, time.Time) ([]db.Appointment, error) {
	return f.existing, nil
}

func (f *fakeStore) FindClientByEmail(email string) (*db.Profile, error) {
	return f.clients[email], nil
}

func (f *fakeStore) CreateClient(p *db.Profile) error {
	if f.failCreateClient {
		return errors.New("duplicate key")
	}
	f.createdClient = p
	f.clients[p.Email] = p
	return nil
}

func (f *fakeStore) UpdateClientPhone(id uuid.UUID, phone string) error {
	f.phoneUpdates[id] = phone
	return nil
}

func (f *fakeStore) CreateAppointment(appt *db.Appointment) error {
	f.createdAppt = appt
	f.existing = append(f.existing, *appt)
	return nil
}

func (f *fakeStore) RescheduleAppointment(id, stylistID uuid.UUID, start, end time.Time) error {
	f.rescheduledStart = start
	f.rescheduledEnd = end
	for i := range f.existing {
		if f.existing[i].ID == id {
			f.existing[i].StartTime = start
			f.existing[i].EndTime = end
		}
	}
	return nil
}

func (f *fakeStore) InsertAddons(_ uuid.UUID, addons []db.Service) error {
	f.insertedAddons = addons
	return nil
}

func (f *fakeStore) CreatePayment(p *db.Payment) error {
	f.createdPayment = p
	return nil
}

func (f *fakeStore) GetAppointment(id uuid.UUID) (*db.Appointment, error) {
	for i := range f.existing {
		if f.existing[i].ID == id {
			return &f.existing[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetAppointmentDetail(id uuid.UUID) (*entities.AppointmentDetail, error) {
	appt, _ := f.GetAppointment(id)
	if appt == nil {
		return nil, nil
	}
	detail := &entities.AppointmentDetail{
		ID:        appt.ID,
		StartTime: appt.StartTime,
		EndTime:   appt.EndTime,
		Status:    appt.Status,
	}
	if svc, ok := f.services[appt.ServiceID]; ok {
		detail.ServiceName = svc.Name
		detail.ServiceDuration = svc.Duration
	}
	if stylist, ok := f.stylists[appt.StylistID]; ok {
		detail.StylistName = stylist.FirstName + " " + stylist.LastName
	}
	for _, addon := range f.insertedAddons {
		detail.Addons = append(detail.Addons, entities.AddonLine{
			ServiceID: addon.ID,
			Price:     addon.BasePrice,
			Duration:  addon.Duration,
		})
	}
	return detail, nil
}

func (f *fakeStore) UpdateStatus(id uuid.UUID, status string) error {
	f.statusUpdates[id] = status
	for i := range f.existing {
		if f.existing[i].ID == id {
			f.existing[i].Status = status
		}
	}
	return nil
}

func (f *fakeStore) CancelAppointment(id uuid.UUID, cancelledBy, _ string) error {
	f.cancelledBy = cancelledBy
	return f.UpdateStatus(id, db.StatusCancelled)
}

func (f *fakeStore) InsertNotificationLog(_ uuid.UUID, notificationType string, _, _ bool, _, _ string) error {
	f.notifLogs = append(f.notifLogs, notificationType)
	return nil
}

type fakePayments struct {
	lastAmount int64
	fail       bool
}

func (f *fakePayments) CreateDepositIntent(amountCents int64, appointmentID uuid.UUID, _, _ string) (*entities.PaymentIntentInfo, error) {
	if f.fail {
		return nil, errors.New("stripe unavailable")
	}
	f.lastAmount = amountCents
	return &entities.PaymentIntentInfo{ID: "pi_test_" + appointmentID.String()[:8], ClientSecret: "secret"}, nil
}

type fakeNotifier struct {
	kinds []string
}

func (f *fakeNotifier) AppointmentEvent(_ *entities.AppointmentDetail, kind string) {
	f.kinds = append(f.kinds, kind)
}

// nextTuesday returns a Tuesday at midnight UTC at least a week in the
// future, so past-time validation never trips.
func nextTuesday() time.Time {
	day := time.Now().UTC().AddDate(0, 0, 7)
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	for day.Weekday() != time.Tuesday {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

type bookingFixture struct {
	store    *fakeStore
	payments *fakePayments
	notifier *fakeNotifier
	svc      *BookingService

	serviceID uuid.UUID
	stylistID uuid.UUID
	day       time.Time
}

func newBookingFixture() *bookingFixture {
	store := newFakeStore()
	serviceID := uuid.New()
	stylistID := uuid.New()

	store.services[serviceID] = &db.Service{
		ID:        serviceID,
		Name:      "Silk Press",
		Category:  "stylist",
		BasePrice: 85,
		Duration:  60,
		IsActive:  true,
	}
	store.stylists[stylistID] = &db.Profile{
		ID:        stylistID,
		FirstName: "Maya",
		LastName:  "Reed",
		Role:      db.RoleStylist,
		IsActive:  true,
	}
	store.weekly = tueToSat()

	payments := &fakePayments{}
	notifier := &fakeNotifier{}
	return &bookingFixture{
		store:    store,
		payments: payments,
		notifier: notifier,
		svc:      NewBookingService(store, payments, notifier, time.UTC),

		serviceID: serviceID,
		stylistID: stylistID,
		day:       nextTuesday(),
	}
}

func (fx *bookingFixture) request(hour, min int) *entities.BookingRequest {
	start := fx.day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
	return &entities.BookingRequest{
		ServiceID: fx.serviceID.String(),
		StylistID: fx.stylistID.String(),
		StartTime: start.Format("2006-01-02T15:04"),
		Client: entities.ClientInfo{
			FirstName: "Ada",
			LastName:  "Okafor",
			Email:     "ada@example.com",
			Phone:     "+15550100",
		},
	}
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var httpErr *apperrors.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	return httpErr.Code
}

func TestCreateBooking_ConfirmedWithoutDeposit(t *testing.T) {
	fx := newBookingFixture()

	resp, err := fx.svc.CreateBooking(fx.request(10, 0))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	if resp.Appointment.Status != db.StatusConfirmed {
		t.Errorf("status = %s, want confirmed", resp.Appointment.Status)
	}
	if resp.PaymentIntent != nil {
		t.Error("expected no payment intent for a no-deposit service")
	}
	if fx.store.createdAppt.QuotedPrice != 85 {
		t.Errorf("quoted price = %d, want 85", fx.store.createdAppt.QuotedPrice)
	}
	if got := fx.store.createdAppt.EndTime.Sub(fx.store.createdAppt.StartTime); got != time.Hour {
		t.Errorf("duration = %v, want 1h", got)
	}
	if len(fx.notifier.kinds) != 1 || fx.notifier.kinds[0] != NotifyConfirmation {
		t.Errorf("notifications = %v, want [confirmation]", fx.notifier.kinds)
	}
}

func TestCreateBooking_DepositMakesPending(t *testing.T) {
	fx := newBookingFixture()
	fx.store.services[fx.serviceID].Category = "barber"
	fx.store.services[fx.serviceID].Duration = 30

	resp, err := fx.svc.CreateBooking(fx.request(10, 0))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	if resp.Appointment.Status != db.StatusPending {
		t.Errorf("status = %s, want pending", resp.Appointment.Status)
	}
	if resp.PaymentIntent == nil || resp.PaymentIntent.ClientSecret == "" {
		t.Fatal("expected a payment intent with client secret")
	}
	if fx.payments.lastAmount != 1000 {
		t.Errorf("deposit = %d cents, want 1000", fx.payments.lastAmount)
	}
	if fx.store.createdPayment == nil {
		t.Fatal("expected a pending payment row")
	}
	if fx.store.createdPayment.Status != db.PaymentPending || !fx.store.createdPayment.IsDeposit {
		t.Errorf("payment row = %+v, want pending deposit", fx.store.createdPayment)
	}
}

func TestCreateBooking_AddonsExtendQuote(t *testing.T) {
	fx := newBookingFixture()
	addonID := uuid.New()
	fx.store.services[addonID] = &db.Service{
		ID: addonID, Name: "Deep Conditioning", BasePrice: 20, Duration: 30, IsActive: true,
	}

	req := fx.request(10, 0)
	req.AddonIDs = []string{addonID.String()}

	_, err := fx.svc.CreateBooking(req)
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	if fx.store.createdAppt.QuotedPrice != 105 {
		t.Errorf("quoted price = %d, want 105", fx.store.createdAppt.QuotedPrice)
	}
	if got := fx.store.createdAppt.EndTime.Sub(fx.store.createdAppt.StartTime); got != 90*time.Minute {
		t.Errorf("duration = %v, want 90m", got)
	}
	if len(fx.store.insertedAddons) != 1 {
		t.Errorf("inserted addons = %d, want 1", len(fx.store.insertedAddons))
	}
}

func TestCreateBooking_ReusesExistingClient(t *testing.T) {
	fx := newBookingFixture()
	existingID := uuid.New()
	fx.store.clients["ada@example.com"] = &db.Profile{
		ID: existingID, Email: "ada@example.com", FirstName: "Ada", Role: db.RoleClient,
	}

	_, err := fx.svc.CreateBooking(fx.request(10, 0))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	if fx.store.createdClient != nil {
		t.Error("should not create a new client profile")
	}
	if !fx.store.createdAppt.ClientID.Valid || fx.store.createdAppt.ClientID.UUID != existingID {
		t.Error("appointment not linked to existing client")
	}
	if fx.store.phoneUpdates[existingID] != "+15550100" {
		t.Error("expected phone to be updated on the existing profile")
	}
}

func TestCreateBooking_FallsBackToWalkIn(t *testing.T) {
	fx := newBookingFixture()
	fx.store.failCreateClient = true

	_, err := fx.svc.CreateBooking(fx.request(10, 0))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	appt := fx.store.createdAppt
	if !appt.IsWalkIn {
		t.Fatal("expected walk-in fallback when profile creation fails")
	}
	if appt.WalkInEmail.String != "ada@example.com" {
		t.Errorf("walk-in email = %q", appt.WalkInEmail.String)
	}
	if appt.ClientID.Valid {
		t.Error("walk-in booking should not reference a client profile")
	}
}

func TestCreateBooking_ConflictIs409(t *testing.T) {
	fx := newBookingFixture()
	taken := fx.day.Add(10 * time.Hour)
	fx.store.existing = []db.Appointment{
		appt(taken, taken.Add(time.Hour), db.StatusConfirmed),
	}

	_, err := fx.svc.CreateBooking(fx.request(10, 30))
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if code := httpCode(t, err); code != 409 {
		t.Errorf("code = %d, want 409", code)
	}
}

func TestCreateBooking_OutsideHoursIs400(t *testing.T) {
	fx := newBookingFixture()

	_, err := fx.svc.CreateBooking(fx.request(7, 0))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if code := httpCode(t, err); code != 400 {
		t.Errorf("code = %d, want 400", code)
	}
}

func TestCreateBooking_PastTimeRejected(t *testing.T) {
	fx := newBookingFixture()
	req := fx.request(10, 0)
	req.StartTime = "2020-01-07T10:00"

	_, err := fx.svc.CreateBooking(req)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if code := httpCode(t, err); code != 400 {
		t.Errorf("code = %d, want 400", code)
	}
}

func TestCreateBooking_UnknownServiceIs404(t *testing.T) {
	fx := newBookingFixture()
	req := fx.request(10, 0)
	req.ServiceID = uuid.New().String()

	_, err := fx.svc.CreateBooking(req)
	if err == nil {
		t.Fatal("expected not found error")
	}
	if code := httpCode(t, err); code != 404 {
		t.Errorf("code = %d, want 404", code)
	}
}

func TestReschedule_ExcludesOwnSlot(t *testing.T) {
	fx := newBookingFixture()

	resp, err := fx.svc.CreateBooking(fx.request(10, 0))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	id := resp.Appointment.ID

	// Moving 30 minutes later overlaps only the appointment itself.
	newStart := fx.day.Add(10*time.Hour + 30*time.Minute)
	detail, err := fx.svc.Reschedule(id, &entities.RescheduleRequest{
		NewStartTime: newStart.Format("2006-01-02T15:04"),
	})
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if !detail.StartTime.Equal(newStart) {
		t.Errorf("start = %v, want %v", detail.StartTime, newStart)
	}
	if !fx.store.rescheduledEnd.Equal(newStart.Add(time.Hour)) {
		t.Errorf("end = %v, want %v", fx.store.rescheduledEnd, newStart.Add(time.Hour))
	}
	if len(fx.notifier.kinds) != 2 || fx.notifier.kinds[1] != NotifyReschedule {
		t.Errorf("notifications = %v, want reschedule last", fx.notifier.kinds)
	}
}

func TestReschedule_IntoOtherBookingConflicts(t *testing.T) {
	fx := newBookingFixture()

	resp, err := fx.svc.CreateBooking(fx.request(10, 0))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	other := fx.day.Add(14 * time.Hour)
	fx.store.existing = append(fx.store.existing,
		appt(other, other.Add(time.Hour), db.StatusConfirmed))

	_, err = fx.svc.Reschedule(resp.Appointment.ID, &entities.RescheduleRequest{
		NewStartTime: fx.day.Add(14*time.Hour + 30*time.Minute).Format("2006-01-02T15:04"),
	})
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if code := httpCode(t, err); code != 409 {
		t.Errorf("code = %d, want 409", code)
	}
}

func TestReschedule_CancelledRejected(t *testing.T) {
	fx := newBookingFixture()

	resp, err := fx.svc.CreateBooking(fx.request(10, 0))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	fx.store.UpdateStatus(resp.Appointment.ID, db.StatusCancelled)

	_, err = fx.svc.Reschedule(resp.Appointment.ID, &entities.RescheduleRequest{
		NewStartTime: fx.day.Add(11 * time.Hour).Format("2006-01-02T15:04"),
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if code := httpCode(t, err); code != 400 {
		t.Errorf("code = %d, want 400", code)
	}
}

func TestCancel_SendsNotificationAndRecordsActor(t *testing.T) {
	fx := newBookingFixture()

	resp, err := fx.svc.CreateBooking(fx.request(10, 0))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	err = fx.svc.Cancel(resp.Appointment.ID, &entities.CancelRequest{Reason: "conflict came up"})
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if fx.store.cancelledBy != "client" {
		t.Errorf("cancelledBy = %q, want client", fx.store.cancelledBy)
	}
	if fx.notifier.kinds[len(fx.notifier.kinds)-1] != NotifyCancellation {
		t.Errorf("notifications = %v, want cancellation last", fx.notifier.kinds)
	}

	// Cancelling twice is rejected.
	if err := fx.svc.Cancel(resp.Appointment.ID, &entities.CancelRequest{}); err == nil {
		t.Fatal("expected error on double cancel")
	}
}

func TestChangeStatus_EnforcesLifecycle(t *testing.T) {
	fx := newBookingFixture()

	resp, err := fx.svc.CreateBooking(fx.request(10, 0))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	id := resp.Appointment.ID

	// confirmed -> in_progress is legal.
	if _, err := fx.svc.ChangeStatus(id, db.StatusInProgress); err != nil {
		t.Fatalf("ChangeStatus to in_progress: %v", err)
	}
	// in_progress -> pending is not.
	if _, err := fx.svc.ChangeStatus(id, db.StatusPending); err == nil {
		t.Fatal("expected invalid transition error")
	} else if code := httpCode(t, err); code != 400 {
		t.Errorf("code = %d, want 400", code)
	}
}

func TestDayAvailability_UsesServiceDuration(t *testing.T) {
	fx := newBookingFixture()
	fx.store.services[fx.serviceID].BufferTime = 15

	resp, err := fx.svc.DayAvailability(fx.stylistID, fx.serviceID, 0, fx.day.Format("2006-01-02"), uuid.Nil)
	if err != nil {
		t.Fatalf("DayAvailability: %v", err)
	}
	if len(resp.Slots) == 0 {
		t.Fatal("expected slots on a working day")
	}
	// 60 min service + 15 buffer on a 09:00-17:00 day: last start 15:45,
	// grid snaps to 15:30.
	last := resp.Slots[len(resp.Slots)-1]
	if last.Time != "15:30" {
		t.Errorf("last slot = %s, want 15:30", last.Time)
	}
}

func TestDayAvailability_BadDateRejected(t *testing.T) {
	fx := newBookingFixture()

	_, err := fx.svc.DayAvailability(fx.stylistID, fx.serviceID, 0, "06/11/2024", uuid.Nil)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if code := httpCode(t, err); code != 400 {
		t.Errorf("code = %d, want 400", code)
	}
}

func TestCheckAvailability_NormalizesToSalonTime(t *testing.T) {
	// DB drivers may scan timestamps back in UTC. An evening slot that
	// crosses UTC midnight must still land on the salon-local weekday.
	loc := time.FixedZone("EST", -5*60*60)
	store := newFakeStore()
	store.weekly = []db.StylistSchedule{block(2, "18:00", "23:00")}
	svc := NewBookingService(store, &fakePayments{}, &fakeNotifier{}, loc)

	// Tuesday 2024-06-11 22:30 in salon time, expressed as Wednesday in UTC.
	start := time.Date(2024, 6, 12, 3, 30, 0, 0, time.UTC)
	if start.In(loc).Weekday() != time.Tuesday {
		t.Fatal("fixture start must be a salon-local Tuesday")
	}

	if err := svc.checkAvailability(uuid.New(), start, 30, uuid.Nil); err != nil {
		t.Errorf("checkAvailability: %v, want slot inside Tuesday evening hours", err)
	}
}

func TestGetDetail_UnknownAppointmentIs404(t *testing.T) {
	fx := newBookingFixture()

	_, err := fx.svc.GetDetail(uuid.New())
	if err == nil {
		t.Fatal("expected not found error")
	}
	if code := httpCode(t, err); code != 404 {
		t.Errorf("code = %d, want 404", code)
	}
}
