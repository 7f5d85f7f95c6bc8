package triage

import (
	"github.com/one2ten/stetho-agent/internal/classifier"
	"github.com/one2ten/stetho-agent/internal/literature"
)

// Severity is the patient-reported symptom intensity.
type Severity string

const (
	SeverityMild       Severity = "mild"
	SeverityModerate   Severity = "moderate"
	SeveritySevere     Severity = "severe"
	SeverityVerySevere Severity = "very severe"
)

// Severities lists every accepted severity in ascending order.
var Severities = []Severity{SeverityMild, SeverityModerate, SeveritySevere, SeverityVerySevere}

// UserMode selects the audience the recommendation is written for.
type UserMode string

const (
	ModeGeneral      UserMode = "general"
	ModeProfessional UserMode = "professional"
)

// Vitals are the measured vital signs.
type Vitals struct {
	HeartRate   int     `json:"heart_rate" validate:"gte=30,lte=250"`
	Systolic    int     `json:"systolic" validate:"gte=60,lte=300"`
	Diastolic   int     `json:"diastolic" validate:"gte=30,lte=200"`
	Temperature float64 `json:"temperature" validate:"gte=34,lte=43"`
}

// Symptoms is the patient's own account plus the structured checklist.
type Symptoms struct {
	FreeText  string   `json:"free_text" validate:"max=4000"`
	Checklist []string `json:"checklist" validate:"dive,symptom_tag"`
	Duration  string   `json:"duration" validate:"required,duration_option"`
	Severity  Severity `json:"severity" validate:"required,oneof=mild moderate severe 'very severe'"`
}

// AudioClassification is the auscultation classifier output supplied before a run.
type AudioClassification = classifier.Classification

// NarrativeStatus records how a narrative field was produced.
type NarrativeStatus string

const (
	// NarrativeSuccess is text returned by the generator.
	NarrativeSuccess NarrativeStatus = "success"
	// NarrativeDegraded is an apology written in place of failed generation.
	NarrativeDegraded NarrativeStatus = "degraded"
	// NarrativeNotProvided is fixed text written when the node's input is absent.
	NarrativeNotProvided NarrativeStatus = "not_provided"
)

// Narrative is the uniform result of every text-producing node.
type Narrative struct {
	Text   string          `json:"text"`
	Status NarrativeStatus `json:"status"`
	Error  string          `json:"error,omitempty"`
}

// Generated wraps text returned by the generator.
func Generated(text string) *Narrative {
	return &Narrative{Text: text, Status: NarrativeSuccess}
}

// Degraded wraps the apology written when generation failed with err.
func Degraded(text string, err error) *Narrative {
	n := &Narrative{Text: text, Status: NarrativeDegraded}
	if err != nil {
		n.Error = err.Error()
	}
	return n
}

// NotProvided wraps the fixed text written when input is absent.
func NotProvided(text string) *Narrative {
	return &Narrative{Text: text, Status: NarrativeNotProvided}
}

// OK reports whether the narrative holds generated text.
func (n *Narrative) OK() bool {
	return n != nil && n.Status == NarrativeSuccess
}

// String returns the text, or an empty string for a nil narrative.
func (n *Narrative) String() string {
	if n == nil {
		return ""
	}
	return n.Text
}

// RiskLevel is one of four ordered severity categories.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskLevels lists every level in ascending order.
var RiskLevels = []RiskLevel{RiskLow, RiskModerate, RiskHigh, RiskCritical}

// RiskAssessment is the scorer's output.
type RiskAssessment struct {
	Level           RiskLevel `json:"level"`
	Score           float64   `json:"score"`
	Factors         []string  `json:"factors"`
	ImmediateAction bool      `json:"immediate_action"`
}

// Input is what a caller supplies to start a run. Every field is optional.
type Input struct {
	Vitals   *Vitals              `json:"vitals,omitempty"`
	Symptoms *Symptoms            `json:"symptoms,omitempty"`
	Audio    *AudioClassification `json:"audio,omitempty"`
	UserMode UserMode             `json:"user_mode,omitempty" validate:"omitempty,oneof=general professional"`
}

// State is the record threaded through a run. A nil field has not been
// produced yet; each field is written at most once.
type State struct {
	Vitals          *Vitals              `json:"vitals,omitempty"`
	Symptoms        *Symptoms            `json:"symptoms,omitempty"`
	Audio           *AudioClassification `json:"audio,omitempty"`
	UserMode        UserMode             `json:"user_mode,omitempty"`
	AudioAnalysis   *Narrative           `json:"audio_analysis,omitempty"`
	VitalsAnalysis  *Narrative           `json:"vitals_analysis,omitempty"`
	SymptomAnalysis *Narrative           `json:"symptom_analysis,omitempty"`
	Synthesis       *Narrative           `json:"synthesis,omitempty"`
	Literature      *literature.Result   `json:"literature,omitempty"`
	Risk            *RiskAssessment      `json:"risk_assessment,omitempty"`
	Recommendation  *Narrative           `json:"recommendation,omitempty"`
}

// NewState seeds a state from caller input. The audio classification is
// part of the initial state because it is produced before the run starts.
func NewState(in Input) State {
	return State{
		Vitals:   in.Vitals,
		Symptoms: in.Symptoms,
		Audio:    in.Audio,
		UserMode: in.UserMode,
	}
}

// Update is the partial state a node returns. Nil fields are left untouched.
type Update struct {
	Vitals          *Vitals
	Symptoms        *Symptoms
	UserMode        UserMode
	AudioAnalysis   *Narrative
	VitalsAnalysis  *Narrative
	SymptomAnalysis *Narrative
	Synthesis       *Narrative
	Literature      *literature.Result
	Risk            *RiskAssessment
	Recommendation  *Narrative
}

// Complete reports whether every field a run produces is present.
// Audio is excluded since its absence is a legitimate final state.
func (s *State) Complete() bool {
	return s.Vitals != nil &&
		s.Symptoms != nil &&
		s.UserMode != "" &&
		s.AudioAnalysis != nil &&
		s.VitalsAnalysis != nil &&
		s.SymptomAnalysis != nil &&
		s.Synthesis != nil &&
		s.Literature != nil &&
		s.Risk != nil &&
		s.Recommendation != nil
}
