package services

import (
	"fmt"
	"strings"

	"MediCore/models"

	"github.com/samber/lo"
)

const symptomCheckPrompt = `You are a medical AI assistant helping a doctor (not replacing one). Analyze the following patient information and provide a structured response.

Patient Information:
- Symptoms: %s
- Age: %d years
- Gender: %s
- Medical History: %s
- Doctor's Notes: %s

Respond with a valid JSON object (no markdown) with this exact structure:
{
  "possibleConditions": [
    { "name": "condition name", "probability": "high/medium/low", "description": "brief description" }
  ],
  "riskLevel": "low|medium|high|critical",
  "recommendedTests": ["test 1", "test 2"],
  "urgency": "routine|soon|urgent|emergency",
  "generalAdvice": "brief advice for the doctor",
  "disclaimer": "This AI suggestion is not a diagnosis. Always use clinical judgment."
}`

const prescriptionExplainPrompt = `You are a medical assistant helping patients understand their prescription. %s

Diagnosis: %s
Medicines:
%s
%s
Provide a simple patient-friendly explanation as a JSON object (no markdown):
{
  "summary": "simple 2-3 sentence explanation of the diagnosis",
  "medicineExplanations": [
    { "name": "medicine name", "purpose": "what it does in simple terms", "importantTips": "key tips" }
  ],
  "lifestyleRecommendations": ["tip 1", "tip 2"],
  "preventiveAdvice": ["advice 1", "advice 2"],
  "whenToSeeDoctor": "brief warning signs to watch for",
  "disclaimer": "This explanation is for understanding only. Follow your doctor's instructions."
}`

const riskFlagPrompt = `You are a medical AI analyzing a patient's health history for risk patterns.

Patient: %s, Age: %d, Gender: %s
Chronic Conditions: %s
Allergies: %s
Recent Diagnoses (last 10 visits): %s
Recurring Symptoms: %s
Total Visits: %d
Doctor's Notes: %s

Analyze and return a JSON object (no markdown):
{
  "overallRisk": "low|medium|high|critical",
  "redFlags": ["concerning pattern 1", "concerning pattern 2"],
  "chronicRisks": ["identified chronic risk"],
  "recommendations": ["recommendation 1", "recommendation 2"],
  "followUpSuggested": true,
  "summary": "brief overall health risk summary",
  "disclaimer": "AI analysis only. Clinical judgment required."
}`

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func joinOrNone(values []string) string {
	return orDefault(strings.Join(values, ", "), "None")
}

func buildSymptomCheckPrompt(input SymptomCheckInput) string {
	return fmt.Sprintf(symptomCheckPrompt,
		strings.Join(input.Symptoms, ", "),
		*input.Age,
		input.Gender,
		orDefault(input.MedicalHistory, "None provided"),
		orDefault(input.DoctorNotes, "None"),
	)
}

func buildPrescriptionExplainPrompt(prescription *models.Prescription, language string) string {
	instruction := "Respond in simple English suitable for a patient."
	if language == "urdu" {
		instruction = "Respond in simple Urdu language."
	}
	medicines := lo.Map(prescription.Medicines, func(m models.Medicine, _ int) string {
		line := fmt.Sprintf("%s (%s) - %s for %s", m.Name, m.Dosage, m.Frequency, m.Duration)
		if m.Instructions != "" {
			line += ", " + m.Instructions
		}
		return line
	})
	notes := ""
	if prescription.Notes != "" {
		notes = "Doctor's Notes: " + prescription.Notes + "\n"
	}
	return fmt.Sprintf(prescriptionExplainPrompt, instruction, prescription.Diagnosis, strings.Join(medicines, "\n"), notes)
}

// riskContext is what the risk flag prompt is built from.
type riskContext struct {
	patient     *models.Patient
	visits      int
	diagnoses   []string
	symptoms    []string
	doctorNotes string
}

func buildRiskFlagPrompt(rc riskContext) string {
	return fmt.Sprintf(riskFlagPrompt,
		rc.patient.Name,
		rc.patient.Age,
		rc.patient.Gender,
		joinOrNone(rc.patient.ChronicConditions),
		joinOrNone(rc.patient.Allergies),
		joinOrNone(rc.diagnoses),
		joinOrNone(rc.symptoms),
		rc.visits,
		orDefault(rc.doctorNotes, "None"),
	)
}
