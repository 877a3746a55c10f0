package shipments

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rmoralesv/moldops-backend/pkg/db/models"
	"github.com/rmoralesv/moldops-backend/pkg/enums"
	pkgerrors "github.com/rmoralesv/moldops-backend/pkg/errors"
)

// Service records finished-goods moves and reconstructs historical stock by
// replaying them.
type Service interface {
	RecordTransaction(ctx context.Context, input RecordTransactionInput) (*models.InventoryTransaction, error)
	ListTransactions(ctx context.Context, filter ListFilter) ([]models.InventoryTransaction, error)
	SnapshotAt(ctx context.Context, cutoff time.Time) ([]SnapshotItem, error)
}

type service struct {
	repo Repository
}

// RecordTransactionInput captures one IN or OUT move of a finished item.
type RecordTransactionInput struct {
	Type            enums.InventoryTransactionType
	ItemCode        *string
	ItemName        string
	Unit            *string
	Quantity        decimal.Decimal
	UnitPrice       *decimal.Decimal
	TransactionDate time.Time
	ClientName      *string
	Note            *string
}

// SnapshotItem is one item's reconstructed stock as of a cutoff date.
type SnapshotItem struct {
	ItemName string          `json:"item_name"`
	ItemCode *string         `json:"item_code,omitempty"`
	Unit     *string         `json:"unit,omitempty"`
	Stock    decimal.Decimal `json:"stock"`
}

// NewService wires a shipments service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipments repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) RecordTransaction(ctx context.Context, input RecordTransactionInput) (*models.InventoryTransaction, error) {
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction type %q", input.Type))
	}
	if input.ItemName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name required")
	}
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.TransactionDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction date required")
	}

	row := &models.InventoryTransaction{
		Type:            input.Type,
		ItemCode:        input.ItemCode,
		ItemName:        input.ItemName,
		Unit:            input.Unit,
		Quantity:        input.Quantity,
		UnitPrice:       input.UnitPrice,
		TransactionDate: input.TransactionDate,
		ClientName:      input.ClientName,
		Note:            input.Note,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inventory transaction")
	}
	return row, nil
}

func (s *service) ListTransactions(ctx context.Context, filter ListFilter) ([]models.InventoryTransaction, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory transactions")
	}
	return rows, nil
}

// SnapshotAt replays every transaction dated at or before the cutoff in
// chronological order. Items are keyed by item code when present, otherwise
// by name. The full scan per call is deliberate; snapshot reads are rare.
func (s *service) SnapshotAt(ctx context.Context, cutoff time.Time) ([]SnapshotItem, error) {
	if cutoff.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cutoff date required")
	}

	rows, err := s.repo.ListThrough(ctx, cutoff)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory transactions")
	}

	index := map[string]int{}
	items := make([]SnapshotItem, 0, len(rows))
	for _, row := range rows {
		key := itemKey(row)
		pos, seen := index[key]
		if !seen {
			pos = len(items)
			index[key] = pos
			items = append(items, SnapshotItem{
				ItemName: row.ItemName,
				ItemCode: row.ItemCode,
				Unit:     row.Unit,
				Stock:    decimal.Zero,
			})
		}

		switch row.Type {
		case enums.TransactionTypeIn:
			items[pos].Stock = items[pos].Stock.Add(row.Quantity)
		case enums.TransactionTypeOut:
			items[pos].Stock = items[pos].Stock.Sub(row.Quantity)
		}
		// later rows refresh the display fields
		if row.ItemName != "" {
			items[pos].ItemName = row.ItemName
		}
		if row.Unit != nil {
			items[pos].Unit = row.Unit
		}
	}
	return items, nil
}

func itemKey(row models.InventoryTransaction) string {
	if row.ItemCode != nil && *row.ItemCode != "" {
		return "code:" + *row.ItemCode
	}
	return "name:" + row.ItemName
}
