package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"MediCore/authz"
	"MediCore/models"
	"MediCore/repositories"
	"MediCore/repositories/memory"
	"MediCore/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubModel answers every prompt with reply, or calls fn when set.
type stubModel struct {
	reply   string
	err     error
	fn      func(ctx context.Context) (string, error)
	prompts []string
}

func (m *stubModel) GenerateDiagnosticText(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.fn != nil {
		return m.fn(ctx)
	}
	return m.reply, m.err
}

func blockingModel() *stubModel {
	return &stubModel{fn: func(ctx context.Context) (string, error) {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return "", ctx.Err()
	}}
}

func panickingModel() *stubModel {
	return &stubModel{fn: func(context.Context) (string, error) {
		panic("gemini client exploded")
	}}
}

func logCount(t *testing.T, f *fixture) int {
	t.Helper()
	repo, ok := f.repos.DiagnosisLogs.(*memory.DiagnosisLogRepository)
	require.True(t, ok)
	return repo.Count()
}

func symptomInput(patientID string) SymptomCheckInput {
	age := 42
	return SymptomCheckInput{
		PatientID: patientID,
		Symptoms:  []string{"chest pain", "shortness of breath"},
		Age:       &age,
		Gender:    models.GenderMale,
	}
}

func TestSymptomCheckDegradesWithoutFailing(t *testing.T) {
	cases := []struct {
		name      string
		model     *stubModel
		wantError string
	}{
		{name: "not configured", model: nil, wantError: "AI service not configured"},
		{name: "provider error", model: &stubModel{err: errors.New("upstream returned 503")}, wantError: "upstream returned 503"},
		{name: "timeout", model: blockingModel(), wantError: "AI request timed out"},
		{name: "panic", model: panickingModel(), wantError: "AI client panicked"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var f *fixture
			if tc.model == nil {
				f = newFixture(t, nil)
			} else {
				f = newFixture(t, tc.model)
			}
			doctor := f.identity(models.RoleDoctor)
			patient := f.patient(nil)

			result, err := f.container.Diagnoses.SymptomCheck(context.Background(), doctor, symptomInput(patient.ID))
			require.NoError(t, err)

			assert.True(t, result.AIFailed)
			assert.Nil(t, result.AIResponse)
			assert.Nil(t, result.RiskLevel)
			assert.Equal(t, 1, logCount(t, f))

			stored, err := f.repos.DiagnosisLogs.GetByID(context.Background(), result.Log.ID)
			require.NoError(t, err)
			assert.True(t, stored.AIFailed)
			assert.Equal(t, doctor.ID, stored.RequestedBy)
			assert.Contains(t, string(stored.AIResponse), tc.wantError)
		})
	}
}

func TestSymptomCheckParsesFencedJSON(t *testing.T) {
	model := &stubModel{reply: "```json\n{\"riskLevel\":\"high\",\"urgency\":\"urgent\"}\n```"}
	f := newFixture(t, model)
	doctor := f.identity(models.RoleDoctor)
	patient := f.patient(nil)

	result, err := f.container.Diagnoses.SymptomCheck(context.Background(), doctor, symptomInput(patient.ID))
	require.NoError(t, err)

	assert.False(t, result.AIFailed)
	require.NotNil(t, result.RiskLevel)
	assert.Equal(t, models.RiskHigh, *result.RiskLevel)
	assert.JSONEq(t, `{"riskLevel":"high","urgency":"urgent"}`, string(result.AIResponse))
	assert.Equal(t, 1, logCount(t, f))

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "chest pain, shortness of breath")
	assert.Contains(t, model.prompts[0], "Age: 42 years")

	var input SymptomCheckInput
	require.NoError(t, json.Unmarshal(result.Log.Input, &input))
	assert.Equal(t, []string{"chest pain", "shortness of breath"}, input.Symptoms)
}

func TestUnparseableReplyIsKeptRaw(t *testing.T) {
	f := newFixture(t, &stubModel{reply: "The patient likely has a cold."})
	doctor := f.identity(models.RoleDoctor)
	patient := f.patient(nil)

	result, err := f.container.Diagnoses.SymptomCheck(context.Background(), doctor, symptomInput(patient.ID))
	require.NoError(t, err)

	assert.False(t, result.AIFailed)
	assert.Nil(t, result.RiskLevel)
	assert.JSONEq(t, `{"parseError":true,"raw":"The patient likely has a cold."}`, string(result.AIResponse))
	assert.Equal(t, 1, logCount(t, f))
}

func TestUnknownRiskLevelIsDropped(t *testing.T) {
	f := newFixture(t, &stubModel{reply: `{"riskLevel":"catastrophic"}`})
	doctor := f.identity(models.RoleDoctor)
	patient := f.patient(nil)

	result, err := f.container.Diagnoses.SymptomCheck(context.Background(), doctor, symptomInput(patient.ID))
	require.NoError(t, err)
	assert.Nil(t, result.RiskLevel)
}

func TestRejectedRequestsWriteNoLog(t *testing.T) {
	f := newFixture(t, &stubModel{reply: `{}`})
	ctx := context.Background()
	doctor := f.identity(models.RoleDoctor)
	patient := f.patient(nil)

	invalid := symptomInput(patient.ID)
	invalid.Symptoms = nil
	_, err := f.container.Diagnoses.SymptomCheck(ctx, doctor, invalid)
	assert.Equal(t, utils.KindValidationFailed, utils.AsAPIError(err).Kind)

	_, err = f.container.Diagnoses.SymptomCheck(ctx, doctor, symptomInput("5b0f7a1e-8d7c-4a44-9d61-5b2b3b9f0c11"))
	assert.True(t, errors.Is(err, utils.ErrNotFound))

	_, err = f.container.Diagnoses.SymptomCheck(ctx, f.identity(models.RoleReceptionist), symptomInput(patient.ID))
	assert.True(t, errors.Is(err, utils.ErrForbidden))

	assert.Equal(t, 0, logCount(t, f))
}

func writePrescription(t *testing.T, f *fixture, doctor *models.User, patient *models.Patient) *models.Prescription {
	t.Helper()
	prescription, err := f.container.Prescriptions.Create(context.Background(), authz.IdentityOf(doctor), PrescriptionInput{
		PatientID: patient.ID,
		Diagnosis: "Seasonal influenza",
		Medicines: []MedicineInput{{Name: "Paracetamol", Dosage: "500mg", Frequency: "3 times a day", Duration: "5 days"}},
		Notes:     "Rest and fluids",
	})
	require.NoError(t, err)
	return prescription
}

func TestExplainPrescription(t *testing.T) {
	model := &stubModel{reply: `{"summary":"You have the flu."}`}
	f := newFixture(t, model)
	ctx := context.Background()

	doctor := f.user(models.RoleDoctor, models.PlanFree)
	owner := f.user(models.RolePatient, models.PlanFree)
	patient := f.patient(owner)
	prescription := writePrescription(t, f, doctor, patient)

	result, err := f.container.Diagnoses.ExplainPrescription(ctx, authz.IdentityOf(owner), PrescriptionExplainInput{PrescriptionID: prescription.ID, Language: "urdu"})
	require.NoError(t, err)
	assert.False(t, result.AIFailed)
	require.NotNil(t, result.Log.PrescriptionID)
	assert.Equal(t, prescription.ID, *result.Log.PrescriptionID)
	assert.Equal(t, patient.ID, result.Log.PatientID)
	assert.Nil(t, result.RiskLevel)
	assert.Contains(t, model.prompts[0], "Respond in simple Urdu language.")
	assert.Contains(t, model.prompts[0], "Paracetamol (500mg) - 3 times a day for 5 days")

	stranger := f.user(models.RolePatient, models.PlanFree)
	_, err = f.container.Diagnoses.ExplainPrescription(ctx, authz.IdentityOf(stranger), PrescriptionExplainInput{PrescriptionID: prescription.ID})
	assert.True(t, errors.Is(err, utils.ErrForbidden))

	assert.Equal(t, 1, logCount(t, f))
}

func TestExplainPrescriptionDegrades(t *testing.T) {
	f := newFixture(t, &stubModel{err: errors.New("quota exceeded")})
	doctor := f.user(models.RoleDoctor, models.PlanFree)
	prescription := writePrescription(t, f, doctor, f.patient(nil))

	result, err := f.container.Diagnoses.ExplainPrescription(context.Background(), authz.IdentityOf(doctor), PrescriptionExplainInput{PrescriptionID: prescription.ID})
	require.NoError(t, err)
	assert.True(t, result.AIFailed)
	assert.Equal(t, 1, logCount(t, f))
}

func TestRiskFlagRequiresPro(t *testing.T) {
	f := newFixture(t, &stubModel{reply: `{"overallRisk":"medium"}`})
	patient := f.patient(nil)

	freeDoctor := authz.IdentityOf(f.user(models.RoleDoctor, models.PlanFree))
	_, err := f.container.Diagnoses.RiskFlag(context.Background(), freeDoctor, patient.ID, RiskFlagInput{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrForbidden))
	assert.Contains(t, utils.AsAPIError(err).Message, "Pro")
	assert.Equal(t, 0, logCount(t, f))
}

func TestRiskFlagUsesHistory(t *testing.T) {
	model := &stubModel{reply: `{"overallRisk":"critical","redFlags":["recurring chest pain"]}`}
	f := newFixture(t, model)
	ctx := context.Background()

	doctorUser := f.user(models.RoleDoctor, models.PlanPro)
	doctor := authz.IdentityOf(doctorUser)
	patient := f.patient(nil)
	writePrescription(t, f, doctorUser, patient)

	_, err := f.container.Diagnoses.SymptomCheck(ctx, doctor, symptomInput(patient.ID))
	require.NoError(t, err)

	result, err := f.container.Diagnoses.RiskFlag(ctx, doctor, patient.ID, RiskFlagInput{DoctorNotes: "smoker"})
	require.NoError(t, err)
	assert.False(t, result.AIFailed)
	require.NotNil(t, result.RiskLevel)
	assert.Equal(t, models.RiskCritical, *result.RiskLevel)
	assert.Equal(t, models.DiagnosisRiskFlag, result.Log.Type)

	prompt := model.prompts[len(model.prompts)-1]
	assert.Contains(t, prompt, "Recent Diagnoses (last 10 visits): Seasonal influenza")
	assert.Contains(t, prompt, "Recurring Symptoms: chest pain, shortness of breath")
	assert.Contains(t, prompt, "Doctor's Notes: smoker")
	assert.Equal(t, 2, logCount(t, f))
}

func TestRiskFlagDegradesOnTimeout(t *testing.T) {
	f := newFixture(t, blockingModel())
	doctor := authz.IdentityOf(f.user(models.RoleDoctor, models.PlanPro))
	patient := f.patient(nil)

	started := time.Now()
	result, err := f.container.Diagnoses.RiskFlag(context.Background(), doctor, patient.ID, RiskFlagInput{})
	require.NoError(t, err)
	assert.True(t, result.AIFailed)
	assert.Less(t, time.Since(started), 2*time.Second)
	assert.Equal(t, 1, logCount(t, f))
}

func TestCancelledClientStillGetsLogged(t *testing.T) {
	f := newFixture(t, &stubModel{reply: `{"riskLevel":"low"}`})
	doctor := f.identity(models.RoleDoctor)
	patient := f.patient(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.container.Diagnoses.SymptomCheck(ctx, doctor, symptomInput(patient.ID))
	require.NoError(t, err)
	assert.False(t, result.AIFailed)
	assert.Equal(t, 1, logCount(t, f))
}

func TestDiagnosisLogsAreScopedToRequester(t *testing.T) {
	f := newFixture(t, &stubModel{reply: `{}`})
	ctx := context.Background()
	patient := f.patient(nil)
	first := f.identity(models.RoleDoctor)
	second := f.identity(models.RoleDoctor)

	mine, err := f.container.Diagnoses.SymptomCheck(ctx, first, symptomInput(patient.ID))
	require.NoError(t, err)
	_, err = f.container.Diagnoses.SymptomCheck(ctx, second, symptomInput(patient.ID))
	require.NoError(t, err)

	page, err := f.container.Diagnoses.Logs(ctx, first, repositories.DiagnosisLogFilter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, mine.Log.ID, page.Items[0].ID)

	all, err := f.container.Diagnoses.Logs(ctx, f.identity(models.RoleAdmin), repositories.DiagnosisLogFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.Pagination.Total)

	_, err = f.container.Diagnoses.Log(ctx, second, mine.Log.ID)
	assert.True(t, errors.Is(err, utils.ErrForbidden))

	_, err = f.container.Diagnoses.Logs(ctx, first, repositories.DiagnosisLogFilter{Type: "horoscope"})
	assert.Equal(t, utils.KindValidationFailed, utils.AsAPIError(err).Kind)
}
