package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/repositories"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/clients/postgres"
	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
)

// ConsultationAdapter implements the ConsultationRepository interface. Every
// method commits its own transaction.
type ConsultationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
	now    func() time.Time
}

// NewConsultationAdapter creates a new consultation adapter
func NewConsultationAdapter(client *postgres.Client) repositories.ConsultationRepository {
	return &ConsultationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
		now:    time.Now,
	}
}

// Complete marks a consultation COMPLETED. Completing an already completed
// consultation returns it unchanged; a cancelled one is a conflict.
func (a *ConsultationAdapter) Complete(ctx context.Context, consultationID string) (*entities.Consultation, error) {
	var completed *entities.Consultation
	err := a.inTx(ctx, func(tx *sql.Tx) error {
		current, err := a.lockConsultation(ctx, tx, consultationID)
		if err != nil {
			return err
		}

		switch current.Status {
		case entities.ConsultationStatusCompleted:
			completed = current
			return nil
		case entities.ConsultationStatusCancelled:
			return apperrors.NewConflictError(fmt.Sprintf("consultation %s is cancelled", consultationID))
		}

		now := a.now().UTC()
		query, args, err := a.db.Update(tableConsultations).
			Set(goqu.Record{
				"status":       entities.ConsultationStatusCompleted,
				"completed_at": now,
				"updated_at":   now,
			}).
			Where(goqu.Ex{"id": current.ID, "tenant_id": current.TenantID}).
			ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build update query", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to complete consultation", err)
		}

		current.Status = entities.ConsultationStatusCompleted
		current.CompletedAt = &now
		current.UpdatedAt = now
		completed = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// SaveAIInsight re-reads the consultation under a row lock and writes the
// insight onto the fresh row.
func (a *ConsultationAdapter) SaveAIInsight(ctx context.Context, consultationID string, insight string) error {
	return a.inTx(ctx, func(tx *sql.Tx) error {
		current, err := a.lockConsultation(ctx, tx, consultationID)
		if err != nil {
			return err
		}

		query, args, err := a.db.Update(tableConsultations).
			Set(goqu.Record{
				"ai_insight": insight,
				"updated_at": a.now().UTC(),
			}).
			Where(goqu.Ex{"id": current.ID, "tenant_id": current.TenantID}).
			ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build update query", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to save consultation insight", err)
		}
		return nil
	})
}

func (a *ConsultationAdapter) lockConsultation(ctx context.Context, tx *sql.Tx, consultationID string) (*entities.Consultation, error) {
	scope, err := tenantFilter(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := a.db.Select(consultationColumns...).
		From(tableConsultations).
		Where(scope, goqu.Ex{"id": consultationID}).
		ForUpdate(goqu.Wait).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	c, err := scanConsultation(tx.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("consultation with id %s not found", consultationID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to lock consultation", err)
	}
	return c, nil
}

func (a *ConsultationAdapter) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit transaction", err)
	}
	return nil
}
