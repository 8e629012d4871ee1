package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/entities"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/domain/repositories"
	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/clients/postgres"
	apperrors "github.com/duyho0705/chronic-disease-management-system-sub000/pkg/errors"
	"github.com/duyho0705/chronic-disease-management-system-sub000/pkg/tenant"
)

const (
	tableConsultations       = "consultations"
	tablePatients            = "patients"
	tableSelfReportedVitals  = "patient_vitals"
	tableConsultationVitals  = "consultation_vitals"
	tableLabResults          = "lab_results"
	tableChronicConditions   = "chronic_conditions"
	tableVitalTargets        = "vital_targets"
	tableMedicationSchedules = "medication_schedules"
	tableAdherenceLogs       = "medication_adherence_logs"
	tablePrescriptions       = "prescriptions"
	tablePrescriptionItems   = "prescription_items"
)

var consultationColumns = []interface{}{
	"id", "tenant_id", "branch_id", "patient_id", "doctor_id", "status",
	"chief_complaint", "diagnosis", "notes", "ai_insight",
	"started_at", "completed_at", "updated_at",
}

// ClinicalDataAdapter implements the ClinicalDataRepository interface
type ClinicalDataAdapter struct {
	client *postgres.Client
	db     *goqu.Database
	now    func() time.Time
}

// NewClinicalDataAdapter creates a new clinical data adapter
func NewClinicalDataAdapter(client *postgres.Client) repositories.ClinicalDataRepository {
	return &ClinicalDataAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
		now:    time.Now,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConsultation(row rowScanner) (*entities.Consultation, error) {
	c := &entities.Consultation{}
	var branchID, doctorID, complaint, diagnosis, notes, insight sql.NullString
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&c.ID,
		&c.TenantID,
		&branchID,
		&c.PatientID,
		&doctorID,
		&c.Status,
		&complaint,
		&diagnosis,
		&notes,
		&insight,
		&startedAt,
		&completedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.BranchID = branchID.String
	c.DoctorID = doctorID.String
	c.ChiefComplaint = complaint.String
	c.Diagnosis = diagnosis.String
	c.Notes = notes.String
	c.AIInsight = insight.String
	if startedAt.Valid {
		c.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		c.CompletedAt = &completedAt.Time
	}
	return c, nil
}

// GetConsultation retrieves a consultation by ID
func (a *ClinicalDataAdapter) GetConsultation(ctx context.Context, consultationID string) (*entities.Consultation, error) {
	scope, err := tenantFilter(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := a.db.Select(consultationColumns...).
		From(tableConsultations).
		Where(scope, goqu.Ex{"id": consultationID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	c, err := scanConsultation(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("consultation with id %s not found", consultationID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get consultation", err)
	}
	return c, nil
}

// GetPatient retrieves a patient profile by ID
func (a *ClinicalDataAdapter) GetPatient(ctx context.Context, patientID string) (*entities.Patient, error) {
	scope, err := tenantFilter(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := a.db.Select(
		"id", "tenant_id", "branch_id", "full_name", "date_of_birth", "gender",
		"blood_type", "allergies", "height_cm", "weight_kg",
	).From(tablePatients).
		Where(scope, goqu.Ex{"id": patientID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	p := &entities.Patient{}
	var branchID, gender, bloodType, allergies sql.NullString
	var dob sql.NullTime
	var height, weight sql.NullFloat64

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&p.ID,
		&p.TenantID,
		&branchID,
		&p.FullName,
		&dob,
		&gender,
		&bloodType,
		&allergies,
		&height,
		&weight,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", patientID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get patient", err)
	}

	p.BranchID = branchID.String
	p.Gender = gender.String
	p.BloodType = bloodType.String
	p.Allergies = allergies.String
	p.HeightCm = height.Float64
	p.WeightKg = weight.Float64
	if dob.Valid {
		p.DateOfBirth = &dob.Time
	}
	return p, nil
}

// ListSelfReportedVitals returns home telemetry readings, newest first
func (a *ClinicalDataAdapter) ListSelfReportedVitals(ctx context.Context, patientID string, since time.Time, limit int) ([]*entities.Vital, error) {
	scope, err := tenantFilter(ctx)
	if err != nil {
		return nil, err
	}

	ds := a.db.Select("id", "patient_id", goqu.L("NULL").As("consultation_id"), "vital_type", "value", "unit", "recorded_at").
		From(tableSelfReportedVitals).
		Where(scope, goqu.Ex{"patient_id": patientID}, goqu.C("recorded_at").Gte(since)).
		Order(goqu.C("recorded_at").Desc()).
		Limit(uint(limit))

	return a.queryVitals(ctx, ds, entities.VitalSourceSelfReported)
}

// ListClinicVitals returns vitals measured by clinic staff, newest first
func (a *ClinicalDataAdapter) ListClinicVitals(ctx context.Context, patientID string, since time.Time, limit int) ([]*entities.Vital, error) {
	scope, err := tenantFilter(ctx)
	if err != nil {
		return nil, err
	}

	ds := a.db.Select("id", "patient_id", "consultation_id", "vital_type", "value", "unit", "recorded_at").
		From(tableConsultationVitals).
		Where(scope, goqu.Ex{"patient_id": patientID}, goqu.C("recorded_at").Gte(since)).
		Order(goqu.C("recorded_at").Desc()).
		Limit(uint(limit))

	return a.queryVitals(ctx, ds, entities.VitalSourceClinic)
}

// ListConsultationVitals returns the vitals recorded during one encounter
func (a *ClinicalDataAdapter) ListConsultationVitals(ctx context.Context, consultationID string) ([]*entities.Vital, error) {
	scope, err := tenantFilter(ctx)
	if err != nil {
		return nil, err
	}

	ds := a.db.Select("id", "patient_id", "consultation_id", "vital_type", "value", "unit", "recorded_at").
		From(tableConsultationVitals).
		Where(scope, goqu.Ex{"consultation_id": consultationID}).
		Order(goqu.C("recorded_at").Desc())

	return a.queryVitals(ctx, ds, entities.VitalSourceClinic)
}

func (a *ClinicalDataAdapter) queryVitals(ctx context.Context, ds *goqu.SelectDataset, source entities.VitalSource) ([]*entities.Vital, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list vitals", err)
	}
	defer rows.Close()

	var vitals []*entities.Vital
	for rows.Next() {
		v := &entities.Vital{Source: source}
		var consultationID, unit sql.NullString
		if err := rows.Scan(&v.ID, &v.PatientID, &consultationID, &v.Type, &v.Value, &unit, &v.RecordedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan vital", err)
		}
		v.ConsultationID = consultationID.String
		v.Unit = unit.String
		vitals = append(vitals, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate vitals", err)
	}
	return vitals, nil
}

// ListLabResults returns the newest lab results of a patient
func (a *ClinicalDataAdapter) ListLabResults(ctx context.Context, patientID string, limit int) ([]*entities.LabResult, error) {
	scope, err := tenantFilter(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := a.db.Select("id", "patient_id", "test_name", "value", "unit", "reference_range", "abnormal", "resulted_at").
		From(tableLabResults).
		Where(scope, goqu.Ex{"patient_id": patientID}).
		Order(goqu.C("resulted_at").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list lab results", err)
	}
	defer rows.Close()

	var results []*entities.LabResult
	for rows.Next() {
		l := &entities.LabResult{}
		var unit, reference sql.NullString
		if err := rows.Scan(&l.ID, &l.PatientID, &l.TestName, &l.Value, &unit, &reference, &l.Abnormal, &l.ResultedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan lab result", err)
		}
		l.Unit = unit.String
		l.ReferenceRange = reference.String
		results = append(results, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate lab results", err)
	}
	return results, nil
}

// ListChronicConditions returns the active chronic diagnoses of a patient
func (a *ClinicalDataAdapter) ListChronicConditions(ctx context.Context, patientID string) ([]*entities.ChronicCondition, error) {
	scope, err := tenantFilter(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := a.db.Select("id", "patient_id", "name", "icd10_code", "severity", "status", "diagnosed_at").
		From(tableChronicConditions).
		Where(scope, goqu.Ex{"patient_id": patientID}, goqu.C("status").Neq("RESOLVED")).
		Order(goqu.C("diagnosed_at").Desc().NullsLast()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list chronic conditions", err)
	}
	defer rows.Close()

	var conditions []*entities.ChronicCondition
	for rows.Next() {
		c := &entities.ChronicCondition{}
		var code, severity sql.NullString
		var diagnosedAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.PatientID, &c.Name, &code, &severity, &c.Status, &diagnosedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan chronic condition", err)
		}
		c.ICD10Code = code.String
		c.Severity = severity.String
		if diagnosedAt.Valid {
			c.DiagnosedAt = &diagnosedAt.Time
		}
		conditions = append(conditions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate chronic conditions", err)
	}
	return conditions, nil
}

// ListVitalTargets returns the personalised vital ranges of a patient
func (a *ClinicalDataAdapter) ListVitalTargets(ctx context.Context, patientID string) ([]*entities.VitalTarget, error) {
	scope, err := tenantFilter(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := a.db.Select("id", "patient_id", "vital_type", "min_value", "max_value", "unit").
		From(tableVitalTargets).
		Where(scope, goqu.Ex{"patient_id": patientID}).
		Order(goqu.C("vital_type").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list vital targets", err)
	}
	defer rows.Close()

	var targets []*entities.VitalTarget
	for rows.Next() {
		t := &entities.VitalTarget{}
		var minValue, maxValue sql.NullFloat64
		var unit sql.NullString
		if err := rows.Scan(&t.ID, &t.PatientID, &t.VitalType, &minValue, &maxValue, &unit); err != nil {
			return nil, apperrors.NewInternalError("failed to scan vital target", err)
		}
		if minValue.Valid {
			t.MinValue = &minValue.Float64
		}
		if maxValue.Valid {
			t.MaxValue = &maxValue.Float64
		}
		t.Unit = unit.String
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate vital targets", err)
	}
	return targets, nil
}

// ListActiveMedications returns schedules that are running today
func (a *ClinicalDataAdapter) ListActiveMedications(ctx context.Context, patientID string) ([]*entities.MedicationSchedule, error) {
	scope, err := tenantFilter(ctx)
	if err != nil {
		return nil, err
	}
	now := a.now()

	query, args, err := a.db.Select("id", "patient_id", "medicine_name", "dosage", "frequency", "scheduled_times", "start_date", "end_date").
		From(tableMedicationSchedules).
		Where(
			scope,
			goqu.Ex{"patient_id": patientID},
			goqu.C("start_date").Lte(now),
			goqu.Or(goqu.C("end_date").IsNull(), goqu.C("end_date").Gte(now)),
		).
		Order(goqu.C("medicine_name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list medications", err)
	}
	defer rows.Close()

	var schedules []*entities.MedicationSchedule
	for rows.Next() {
		m := &entities.MedicationSchedule{}
		var dosage, frequency sql.NullString
		var times pq.StringArray
		var endDate sql.NullTime
		if err := rows.Scan(&m.ID, &m.PatientID, &m.MedicineName, &dosage, &frequency, &times, &m.StartDate, &endDate); err != nil {
			return nil, apperrors.NewInternalError("failed to scan medication schedule", err)
		}
		m.Dosage = dosage.String
		m.Frequency = frequency.String
		m.ScheduledTimes = []string(times)
		if endDate.Valid {
			m.EndDate = &endDate.Time
		}
		schedules = append(schedules, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate medications", err)
	}
	return schedules, nil
}

// ListAdherenceLogs returns dose records due since the given time
func (a *ClinicalDataAdapter) ListAdherenceLogs(ctx context.Context, patientID string, since time.Time) ([]*entities.AdherenceLog, error) {
	scope, err := tenantFilter(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := a.db.Select("id", "schedule_id", "patient_id", "medicine_name", "status", "due_at", "taken_at").
		From(tableAdherenceLogs).
		Where(scope, goqu.Ex{"patient_id": patientID}, goqu.C("due_at").Gte(since)).
		Order(goqu.C("due_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list adherence logs", err)
	}
	defer rows.Close()

	var logs []*entities.AdherenceLog
	for rows.Next() {
		l := &entities.AdherenceLog{}
		var takenAt sql.NullTime
		if err := rows.Scan(&l.ID, &l.ScheduleID, &l.PatientID, &l.MedicineName, &l.Status, &l.DueAt, &takenAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan adherence log", err)
		}
		if takenAt.Valid {
			l.TakenAt = &takenAt.Time
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate adherence logs", err)
	}
	return logs, nil
}

// GetPrescription retrieves a prescription with its items
func (a *ClinicalDataAdapter) GetPrescription(ctx context.Context, prescriptionID string) (*entities.Prescription, error) {
	scope, err := tenantFilter(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := a.db.Select("id", "patient_id", "consultation_id", "doctor_id", "created_at").
		From(tablePrescriptions).
		Where(scope, goqu.Ex{"id": prescriptionID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	p := &entities.Prescription{}
	var consultationID, doctorID sql.NullString
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.PatientID, &consultationID, &doctorID, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("prescription with id %s not found", prescriptionID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get prescription", err)
	}
	p.ConsultationID = consultationID.String
	p.DoctorID = doctorID.String

	itemQuery, itemArgs, err := a.db.Select("medicine_name", "dosage", "frequency", "duration_days", "instructions").
		From(tablePrescriptionItems).
		Where(goqu.Ex{"prescription_id": p.ID}).
		Order(goqu.C("position").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, itemQuery, itemArgs...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list prescription items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item entities.PrescriptionItem
		var dosage, frequency, instructions sql.NullString
		var duration sql.NullInt64
		if err := rows.Scan(&item.MedicineName, &dosage, &frequency, &duration, &instructions); err != nil {
			return nil, apperrors.NewInternalError("failed to scan prescription item", err)
		}
		item.Dosage = dosage.String
		item.Frequency = frequency.String
		item.DurationDays = int(duration.Int64)
		item.Instructions = instructions.String
		p.Items = append(p.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate prescription items", err)
	}
	return p, nil
}

const branchCareStatsQuery = `
WITH branch_patients AS (
	SELECT id FROM patients WHERE tenant_id = $1 AND branch_id = $2
),
adherence AS (
	SELECT l.patient_id,
	       AVG(CASE WHEN l.status = 'TAKEN' THEN 1.0 ELSE 0.0 END) AS rate
	FROM medication_adherence_logs l
	JOIN branch_patients bp ON bp.id = l.patient_id
	WHERE l.tenant_id = $1 AND l.due_at >= $3
	GROUP BY l.patient_id
)
SELECT
	(SELECT COUNT(*) FROM branch_patients),
	(SELECT COUNT(DISTINCT c.patient_id) FROM chronic_conditions c
	   JOIN branch_patients bp ON bp.id = c.patient_id
	  WHERE c.tenant_id = $1 AND c.status <> 'RESOLVED'),
	(SELECT COUNT(*) FROM consultations
	  WHERE tenant_id = $1 AND branch_id = $2 AND status = 'SCHEDULED' AND scheduled_at < $4),
	(SELECT COUNT(*) FROM adherence WHERE rate < 0.8),
	(SELECT COUNT(DISTINCT c.patient_id) FROM chronic_conditions c
	   JOIN branch_patients bp ON bp.id = c.patient_id
	  WHERE c.tenant_id = $1 AND c.severity = 'SEVERE' AND c.status <> 'RESOLVED'),
	COALESCE((SELECT AVG(rate) FROM adherence), 0)
`

// GetBranchCareStats aggregates the care-coordination indicators of a branch
func (a *ClinicalDataAdapter) GetBranchCareStats(ctx context.Context, branchID string) (*entities.BranchCareStats, error) {
	tenantID := tenant.TenantID(ctx)
	if tenantID == "" {
		return nil, errTenantRequired
	}
	now := a.now()

	stats := &entities.BranchCareStats{BranchID: branchID}
	err := a.client.DB().QueryRowContext(ctx, branchCareStatsQuery, tenantID, branchID, now.AddDate(0, 0, -30), now).Scan(
		&stats.TotalPatients,
		&stats.ChronicPatients,
		&stats.OverdueFollowUps,
		&stats.LowAdherencePatients,
		&stats.HighRiskPatients,
		&stats.AverageAdherenceRate,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to aggregate branch care stats", err)
	}
	return stats, nil
}
