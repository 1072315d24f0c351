package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"MediCore/aiclient"
	"MediCore/authz"
	"MediCore/events"
	"MediCore/models"
	"MediCore/repositories"
	"MediCore/utils"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

const (
	defaultAITimeout = 20 * time.Second
	publishTimeout   = 3 * time.Second
	riskHistoryLimit = 10
)

var errAINotConfigured = errors.New("AI service not configured")

type SymptomCheckInput struct {
	PatientID      string        `json:"patientId"`
	Symptoms       []string      `json:"symptoms"`
	Age            *int          `json:"age"`
	Gender         models.Gender `json:"gender"`
	MedicalHistory string        `json:"medicalHistory,omitempty"`
	DoctorNotes    string        `json:"doctorNotes,omitempty"`
}

func (i SymptomCheckInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.PatientID, validation.Required, is.UUID),
		validation.Field(&i.Symptoms, validation.Required, validation.Length(1, 30),
			validation.Each(validation.Required, validation.Length(1, 200))),
		validation.Field(&i.Age, validation.NotNil, validation.Min(0), validation.Max(150)),
		validation.Field(&i.Gender, validation.Required, validation.In(genders...)),
		validation.Field(&i.MedicalHistory, validation.Length(0, 2000)),
		validation.Field(&i.DoctorNotes, validation.Length(0, 2000)),
	)
}

type PrescriptionExplainInput struct {
	PrescriptionID string `json:"prescriptionId"`
	Language       string `json:"language,omitempty"`
}

func (i PrescriptionExplainInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.PrescriptionID, validation.Required, is.UUID),
		validation.Field(&i.Language, validation.In("english", "urdu")),
	)
}

type RiskFlagInput struct {
	DoctorNotes string `json:"doctorNotes,omitempty"`
}

func (i RiskFlagInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.DoctorNotes, validation.Length(0, 2000)),
	)
}

// DiagnosisResult is returned by every AI workflow, degraded or not.
type DiagnosisResult struct {
	Log        *models.DiagnosisLog `json:"log"`
	AIResponse json.RawMessage      `json:"aiResponse"`
	AIFailed   bool                 `json:"aiFailed"`
	RiskLevel  *models.RiskLevel    `json:"riskLevel"`
}

// DiagnosisService runs the AI workflows. Once input validation and lookups
// pass, each invocation writes exactly one diagnosis log and never fails
// because of the model.
type DiagnosisService struct {
	logs          repositories.DiagnosisLogRepository
	patients      repositories.PatientRepository
	prescriptions repositories.PrescriptionRepository
	appointments  repositories.AppointmentRepository
	model         aiclient.DiagnosticModel
	events        events.Publisher
	timeout       time.Duration
	log           zerolog.Logger
}

func NewDiagnosisService(deps Dependencies) *DiagnosisService {
	timeout := deps.AITimeout
	if timeout <= 0 {
		timeout = defaultAITimeout
	}
	return &DiagnosisService{
		logs:          deps.Repos.DiagnosisLogs,
		patients:      deps.Repos.Patients,
		prescriptions: deps.Repos.Prescriptions,
		appointments:  deps.Repos.Appointments,
		model:         deps.Model,
		events:        deps.Events,
		timeout:       timeout,
		log:           deps.Log.With().Str("service", "diagnoses").Logger(),
	}
}

func (s *DiagnosisService) SymptomCheck(ctx context.Context, caller authz.Identity, input SymptomCheckInput) (*DiagnosisResult, error) {
	if err := authz.Require(caller, authz.RunSymptomCheck); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.patients.GetByID(ctx, input.PatientID); err != nil {
		return nil, notFound(err, "Patient")
	}
	return s.run(ctx, workflow{
		kind:        models.DiagnosisSymptomCheck,
		patientID:   input.PatientID,
		requestedBy: caller.ID,
		input:       input,
		prompt:      buildSymptomCheckPrompt(input),
		riskField:   "riskLevel",
	})
}

func (s *DiagnosisService) ExplainPrescription(ctx context.Context, caller authz.Identity, input PrescriptionExplainInput) (*DiagnosisResult, error) {
	if err := authz.Require(caller, authz.ExplainPrescription); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if input.Language == "" {
		input.Language = "english"
	}
	prescription, err := s.prescriptions.GetByID(ctx, input.PrescriptionID)
	if err != nil {
		return nil, notFound(err, "Prescription")
	}
	if err := readablePatient(ctx, s.patients, caller, prescription.PatientID); err != nil {
		return nil, err
	}
	return s.run(ctx, workflow{
		kind:           models.DiagnosisPrescriptionExplain,
		patientID:      prescription.PatientID,
		requestedBy:    caller.ID,
		prescriptionID: &prescription.ID,
		input:          input,
		prompt:         buildPrescriptionExplainPrompt(prescription, input.Language),
	})
}

// RiskFlag analyses the recent history of a patient. It is a Pro feature.
func (s *DiagnosisService) RiskFlag(ctx context.Context, caller authz.Identity, patientID string, input RiskFlagInput) (*DiagnosisResult, error) {
	if err := authz.Require(caller, authz.RunRiskFlag); err != nil {
		return nil, err
	}
	if err := authz.RequirePlan(caller, models.PlanPro); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	patient, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, notFound(err, "Patient")
	}

	var (
		appointments  []models.Appointment
		prescriptions []models.Prescription
		history       []models.DiagnosisLog
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		appointments, err = s.appointments.ListByPatient(gctx, patientID, riskHistoryLimit)
		return err
	})
	g.Go(func() (err error) {
		prescriptions, err = s.prescriptions.ListByPatient(gctx, patientID, riskHistoryLimit)
		return err
	})
	g.Go(func() (err error) {
		history, err = s.logs.ListByPatient(gctx, patientID, riskHistoryLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rc := riskContext{
		patient:     patient,
		visits:      len(appointments),
		doctorNotes: input.DoctorNotes,
		diagnoses: lo.FilterMap(prescriptions, func(p models.Prescription, _ int) (string, bool) {
			return p.Diagnosis, p.Diagnosis != ""
		}),
		symptoms: lo.FlatMap(history, func(l models.DiagnosisLog, _ int) []string {
			var logged struct {
				Symptoms []string `json:"symptoms"`
			}
			_ = json.Unmarshal(l.Input, &logged)
			return logged.Symptoms
		}),
	}
	return s.run(ctx, workflow{
		kind:        models.DiagnosisRiskFlag,
		patientID:   patientID,
		requestedBy: caller.ID,
		input: map[string]interface{}{
			"patientId":     patientID,
			"doctorNotes":   input.DoctorNotes,
			"visits":        rc.visits,
			"diagnoses":     rc.diagnoses,
			"prescriptions": len(prescriptions),
		},
		prompt:    buildRiskFlagPrompt(rc),
		riskField: "overallRisk",
	})
}

func (s *DiagnosisService) Logs(ctx context.Context, caller authz.Identity, filter repositories.DiagnosisLogFilter) (models.PageResult[models.DiagnosisLog], error) {
	if err := authz.Require(caller, authz.ViewDiagnosisLogs); err != nil {
		return models.PageResult[models.DiagnosisLog]{}, err
	}
	switch filter.Type {
	case "", models.DiagnosisSymptomCheck, models.DiagnosisPrescriptionExplain, models.DiagnosisRiskFlag:
	default:
		return models.PageResult[models.DiagnosisLog]{}, utils.ValidationFailed("Validation failed", utils.FieldError{Field: "type", Message: "unknown diagnosis type"})
	}
	if caller.Role == models.RoleDoctor {
		filter.RequestedBy = caller.ID
	}
	logs, total, err := s.logs.List(ctx, filter)
	if err != nil {
		return models.PageResult[models.DiagnosisLog]{}, err
	}
	return models.NewPageResult(logs, total, filter.Page), nil
}

func (s *DiagnosisService) Log(ctx context.Context, caller authz.Identity, id string) (*models.DiagnosisLog, error) {
	if err := authz.Require(caller, authz.ViewDiagnosisLogs); err != nil {
		return nil, err
	}
	entry, err := s.logs.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Diagnosis log")
	}
	if caller.Role == models.RoleDoctor && entry.RequestedBy != caller.ID {
		return nil, utils.Forbidden("You can only view your own diagnosis logs")
	}
	return entry, nil
}

type workflow struct {
	kind           models.DiagnosisType
	patientID      string
	requestedBy    string
	prescriptionID *string
	input          interface{}
	prompt         string
	// riskField names the response key holding the risk level, if any.
	riskField string
}

// run calls the model and records the outcome. Model failures of any kind
// end up in the log with AIFailed set; only a failed write is returned.
func (s *DiagnosisService) run(ctx context.Context, w workflow) (*DiagnosisResult, error) {
	input, err := json.Marshal(w.input)
	if err != nil {
		return nil, utils.Internal(err)
	}
	entry := &models.DiagnosisLog{
		Type:           w.kind,
		PatientID:      w.patientID,
		RequestedBy:    w.requestedBy,
		PrescriptionID: w.prescriptionID,
		Input:          datatypes.JSON(input),
	}

	text, callErr := s.generate(ctx, w.prompt)
	if callErr != nil {
		s.log.Warn().Err(callErr).Str("type", string(w.kind)).Str("patient_id", w.patientID).Msg("AI call failed, recording degraded result")
		failure, _ := json.Marshal(map[string]string{"error": callErr.Error()})
		entry.AIFailed = true
		entry.AIResponse = datatypes.JSON(failure)
	} else {
		payload := parseModelOutput(text)
		entry.AIResponse = datatypes.JSON(payload)
		entry.RiskLevel = extractRiskLevel(payload, w.riskField)
	}

	// the log is kept even if the client has gone away
	persistCtx := context.WithoutCancel(ctx)
	if err := s.logs.Create(persistCtx, entry); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to persist diagnosis log")
	}
	s.publish(persistCtx, entry)

	result := &DiagnosisResult{Log: entry, AIFailed: entry.AIFailed, RiskLevel: entry.RiskLevel}
	if !entry.AIFailed {
		result.AIResponse = json.RawMessage(entry.AIResponse)
	}
	return result, nil
}

type modelReply struct {
	text string
	err  error
}

// generate invokes the model with a bounded timeout that does not follow
// client cancellation. Panics inside the client are reported as errors.
func (s *DiagnosisService) generate(ctx context.Context, prompt string) (string, error) {
	if s.model == nil {
		return "", errAINotConfigured
	}
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	done := make(chan modelReply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- modelReply{err: fmt.Errorf("AI client panicked: %v", r)}
			}
		}()
		text, err := s.model.GenerateDiagnosticText(callCtx, prompt)
		done <- modelReply{text: text, err: err}
	}()

	select {
	case reply := <-done:
		return reply.text, reply.err
	case <-callCtx.Done():
		return "", fmt.Errorf("AI request timed out after %s", s.timeout)
	}
}

func (s *DiagnosisService) publish(ctx context.Context, entry *models.DiagnosisLog) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	event := events.Event{
		Type:       events.DiagnosisLogged,
		Key:        entry.PatientID,
		OccurredAt: entry.CreatedAt,
		Payload: map[string]interface{}{
			"id":          entry.ID,
			"type":        entry.Type,
			"patientId":   entry.PatientID,
			"requestedBy": entry.RequestedBy,
			"riskLevel":   entry.RiskLevel,
			"aiFailed":    entry.AIFailed,
		},
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Error().Err(err).Str("log_id", entry.ID).Msg("failed to publish diagnosis event")
	}
}

// parseModelOutput strips markdown fencing and returns the text as JSON when
// it parses, otherwise a {parseError, raw} envelope around it.
func parseModelOutput(text string) []byte {
	cleaned := bytes.TrimSpace([]byte(text))
	cleaned = bytes.ReplaceAll(cleaned, []byte("```json"), nil)
	cleaned = bytes.ReplaceAll(cleaned, []byte("```"), nil)
	cleaned = bytes.TrimSpace(cleaned)
	if len(cleaned) > 0 && (cleaned[0] == '{' || cleaned[0] == '[') && json.Valid(cleaned) {
		return cleaned
	}
	wrapped, _ := json.Marshal(map[string]interface{}{"parseError": true, "raw": text})
	return wrapped
}

func extractRiskLevel(payload []byte, field string) *models.RiskLevel {
	if field == "" {
		return nil
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil
	}
	value, _ := fields[field].(string)
	level := models.RiskLevel(value)
	if !level.Valid() {
		return nil
	}
	return &level
}
