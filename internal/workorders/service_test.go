package workorders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmoralesv/moldops-backend/pkg/db/models"
	"github.com/rmoralesv/moldops-backend/pkg/enums"
	pkgerrors "github.com/rmoralesv/moldops-backend/pkg/errors"
	"github.com/rmoralesv/moldops-backend/pkg/outbox"
	"github.com/rmoralesv/moldops-backend/pkg/pagination"
)

type fakeRepository struct {
	orders     map[uuid.UUID]*models.WorkOrder
	equipment  map[uuid.UUID]*models.Equipment
	production []*models.ProductionRecord
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		orders:    map[uuid.UUID]*models.WorkOrder{},
		equipment: map[uuid.UUID]*models.Equipment{},
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) CreateWorkOrder(ctx context.Context, o *models.WorkOrder) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	f.orders[o.ID] = o
	return nil
}

func (f *fakeRepository) SaveWorkOrder(ctx context.Context, o *models.WorkOrder) error {
	f.orders[o.ID] = o
	return nil
}

func (f *fakeRepository) FindWorkOrder(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *o
	return &copied, nil
}

func (f *fakeRepository) FindWorkOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	return f.FindWorkOrder(ctx, id)
}

func (f *fakeRepository) ListWorkOrders(ctx context.Context, status *enums.WorkOrderStatus, params pagination.Params) ([]models.WorkOrder, string, error) {
	var rows []models.WorkOrder
	for _, o := range f.orders {
		if status != nil && o.Status != *status {
			continue
		}
		rows = append(rows, *o)
	}
	return rows, "", nil
}

func (f *fakeRepository) CreateEquipment(ctx context.Context, e *models.Equipment) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	f.equipment[e.ID] = e
	return nil
}

func (f *fakeRepository) SaveEquipment(ctx context.Context, e *models.Equipment) error {
	f.equipment[e.ID] = e
	return nil
}

func (f *fakeRepository) FindEquipment(ctx context.Context, id uuid.UUID) (*models.Equipment, error) {
	e, ok := f.equipment[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *e
	return &copied, nil
}

func (f *fakeRepository) FindEquipmentForUpdate(ctx context.Context, id uuid.UUID) (*models.Equipment, error) {
	return f.FindEquipment(ctx, id)
}

func (f *fakeRepository) ListEquipment(ctx context.Context) ([]models.Equipment, error) {
	var rows []models.Equipment
	for _, e := range f.equipment {
		rows = append(rows, *e)
	}
	return rows, nil
}

func (f *fakeRepository) CreateProductionRecord(ctx context.Context, r *models.ProductionRecord) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	f.production = append(f.production, r)
	return nil
}

func (f *fakeRepository) ListProductionRecords(ctx context.Context, workOrderID uuid.UUID) ([]models.ProductionRecord, error) {
	var rows []models.ProductionRecord
	for _, r := range f.production {
		if r.WorkOrderID == workOrderID {
			rows = append(rows, *r)
		}
	}
	return rows, nil
}

func (f *fakeRepository) ListProductionRecordsByDate(ctx context.Context, date time.Time) ([]models.ProductionRecord, error) {
	var rows []models.ProductionRecord
	for _, r := range f.production {
		if r.ReportDate.Equal(date) {
			rows = append(rows, *r)
		}
	}
	return rows, nil
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeOutbox struct {
	emitted []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.emitted = append(f.emitted, event)
	return nil
}

func (f *fakeOutbox) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	return f.Emit(ctx, tx, event)
}

func newTestService(t *testing.T, repo Repository, ob *fakeOutbox) Service {
	t.Helper()
	svc, err := NewService(repo, fakeTx{}, ob)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func seedEquipment(repo *fakeRepository) *models.Equipment {
	e := &models.Equipment{
		ID:     uuid.New(),
		Code:   "IMM-03",
		Name:   "280t press",
		Status: enums.EquipmentStatusIdle,
	}
	repo.equipment[e.ID] = e
	return e
}

func seedOrder(repo *fakeRepository, equipmentID *uuid.UUID, target int) *models.WorkOrder {
	o := &models.WorkOrder{
		ID:          uuid.New(),
		OrderNo:     "WO-2026-031",
		ProductID:   uuid.New(),
		EquipmentID: equipmentID,
		Status:      enums.WorkOrderStatusPending,
		TargetQty:   target,
	}
	repo.orders[o.ID] = o
	return o
}

func reportDate() time.Time {
	return time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
}

func TestStartOccupiesEquipment(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo, &fakeOutbox{})
	equipment := seedEquipment(repo)
	order := seedOrder(repo, &equipment.ID, 5000)

	started, err := svc.Start(context.Background(), order.ID, Actor{})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if started.Status != enums.WorkOrderStatusRunning {
		t.Fatalf("expected running, got %s", started.Status)
	}
	if started.StartTime == nil {
		t.Fatal("start time should be set")
	}

	stored := repo.equipment[equipment.ID]
	if stored.Status != enums.EquipmentStatusRunning {
		t.Fatalf("equipment should be running, got %s", stored.Status)
	}
	if stored.CurrentWorkOrderID == nil || *stored.CurrentWorkOrderID != order.ID {
		t.Fatal("equipment should point at the running order")
	}
}

func TestStartRequiresPending(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo, &fakeOutbox{})
	order := seedOrder(repo, nil, 5000)

	if _, err := svc.Start(context.Background(), order.ID, Actor{}); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	_, err := svc.Start(context.Background(), order.ID, Actor{})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict starting a running order, got %v", err)
	}
}

func TestStartRejectsOccupiedEquipment(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo, &fakeOutbox{})
	equipment := seedEquipment(repo)
	first := seedOrder(repo, &equipment.ID, 5000)
	second := seedOrder(repo, &equipment.ID, 2000)
	second.OrderNo = "WO-2026-032"

	if _, err := svc.Start(context.Background(), first.ID, Actor{}); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	_, err := svc.Start(context.Background(), second.ID, Actor{})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on occupied equipment, got %v", err)
	}
	if repo.orders[second.ID].Status != enums.WorkOrderStatusPending {
		t.Fatal("second order must stay pending")
	}
}

func TestRecordProductionAppendsRecordAndCounts(t *testing.T) {
	repo := newFakeRepository()
	ob := &fakeOutbox{}
	svc := newTestService(t, repo, ob)
	order := seedOrder(repo, nil, 5000)

	if _, err := svc.Start(context.Background(), order.ID, Actor{}); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	updated, err := svc.RecordProduction(context.Background(), RecordProductionInput{
		OrderID:    order.ID,
		Delta:      1200,
		ReportDate: reportDate(),
	})
	if err != nil {
		t.Fatalf("RecordProduction error: %v", err)
	}
	if updated.ProducedQty != 1200 {
		t.Fatalf("expected produced 1200, got %d", updated.ProducedQty)
	}
	if len(repo.production) != 1 || repo.production[0].Quantity != 1200 {
		t.Fatal("production record should be appended")
	}
	if len(ob.emitted) != 0 {
		t.Fatal("no target event below the target")
	}
}

func TestRecordProductionEmitsTargetReachedOnce(t *testing.T) {
	repo := newFakeRepository()
	ob := &fakeOutbox{}
	svc := newTestService(t, repo, ob)
	order := seedOrder(repo, nil, 2000)

	if _, err := svc.Start(context.Background(), order.ID, Actor{}); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	for _, delta := range []int{1500, 600, 300} {
		if _, err := svc.RecordProduction(context.Background(), RecordProductionInput{
			OrderID:    order.ID,
			Delta:      delta,
			ReportDate: reportDate(),
		}); err != nil {
			t.Fatalf("RecordProduction error: %v", err)
		}
	}

	if len(ob.emitted) != 1 {
		t.Fatalf("expected exactly one target reached event, got %d", len(ob.emitted))
	}
	if ob.emitted[0].EventType != enums.EventProductionTargetReached {
		t.Fatalf("unexpected event type %s", ob.emitted[0].EventType)
	}
	if repo.orders[order.ID].Status != enums.WorkOrderStatusRunning {
		t.Fatal("reaching target must not change the order status")
	}
}

func TestRecordProductionRequiresRunning(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo, &fakeOutbox{})
	order := seedOrder(repo, nil, 5000)

	_, err := svc.RecordProduction(context.Background(), RecordProductionInput{
		OrderID:    order.ID,
		Delta:      100,
		ReportDate: reportDate(),
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on pending order, got %v", err)
	}
}

func TestCompleteReleasesEquipment(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo, &fakeOutbox{})
	equipment := seedEquipment(repo)
	order := seedOrder(repo, &equipment.ID, 5000)

	if _, err := svc.Start(context.Background(), order.ID, Actor{}); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	done, err := svc.Complete(context.Background(), order.ID, Actor{})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if done.Status != enums.WorkOrderStatusCompleted || done.EndTime == nil {
		t.Fatalf("unexpected completed order %+v", done)
	}

	stored := repo.equipment[equipment.ID]
	if stored.Status != enums.EquipmentStatusIdle || stored.CurrentWorkOrderID != nil {
		t.Fatal("equipment should be released on complete")
	}
}

func TestCompleteRequiresRunning(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo, &fakeOutbox{})
	order := seedOrder(repo, nil, 5000)

	_, err := svc.Complete(context.Background(), order.ID, Actor{})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict completing pending order, got %v", err)
	}
}

func TestCancelReleasesEquipment(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo, &fakeOutbox{})
	equipment := seedEquipment(repo)
	order := seedOrder(repo, &equipment.ID, 5000)

	if _, err := svc.Start(context.Background(), order.ID, Actor{}); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	cancelled, err := svc.Cancel(context.Background(), order.ID, Actor{})
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if cancelled.Status != enums.WorkOrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	stored := repo.equipment[equipment.ID]
	if stored.Status != enums.EquipmentStatusIdle || stored.CurrentWorkOrderID != nil {
		t.Fatal("cancel must release the equipment")
	}
}

func TestCancelPendingOrder(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo, &fakeOutbox{})
	order := seedOrder(repo, nil, 5000)

	cancelled, err := svc.Cancel(context.Background(), order.ID, Actor{})
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if cancelled.Status != enums.WorkOrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	_, err = svc.Cancel(context.Background(), order.ID, Actor{})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict cancelling twice, got %v", err)
	}
}

func TestSetProducedQuantityOverride(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(t, repo, &fakeOutbox{})
	order := seedOrder(repo, nil, 5000)

	updated, err := svc.SetProducedQuantity(context.Background(), order.ID, 4321, Actor{Role: enums.UserRoleAdmin})
	if err != nil {
		t.Fatalf("SetProducedQuantity error: %v", err)
	}
	if updated.ProducedQty != 4321 {
		t.Fatalf("expected 4321, got %d", updated.ProducedQty)
	}
	if len(repo.production) != 0 {
		t.Fatal("override must not append production records")
	}

	if _, err := svc.SetProducedQuantity(context.Background(), order.ID, -1, Actor{}); err == nil {
		t.Fatal("expected validation error for negative quantity")
	}
}
