// Package types holds the shared domain records persisted by the engine.
// Types here are plain data with no behavior so that every other package
// (store, monitor, linguistic, server) can depend on them without cycles.
package types

import "time"

// OceanScores is a five-dimension personality vector. The same shape carries
// both the questionnaire's raw scale and the normalized [0,1] projection.
type OceanScores struct {
	Openness          float64 `json:"openness" bson:"openness"`
	Conscientiousness float64 `json:"conscientiousness" bson:"conscientiousness"`
	Extraversion      float64 `json:"extraversion" bson:"extraversion"`
	Agreeableness     float64 `json:"agreeableness" bson:"agreeableness"`
	Neuroticism       float64 `json:"neuroticism" bson:"neuroticism"`
}

// CognitiveRecord is one persisted personality assessment plus the cognitive
// state captured at the last linguistic regeneration. StoreID is assigned by
// the backing store on insert and is empty until then.
type CognitiveRecord struct {
	StoreID   string    `json:"store_id,omitempty" bson:"-"`
	ReportID  string    `json:"report_id" bson:"report_id"`
	Timestamp string    `json:"timestamp" bson:"timestamp"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`

	OceanRaw        OceanScores `json:"ocean_raw" bson:"ocean_raw"`
	OceanNormalized OceanScores `json:"ocean_normalized" bson:"ocean_normalized"`
	PFactor         float64     `json:"p_factor" bson:"p_factor"`

	LastUtterance                string    `json:"last_utterance,omitempty" bson:"last_utterance,omitempty"`
	LastUtteranceRetention       float64   `json:"last_utterance_retention,omitempty" bson:"last_utterance_retention,omitempty"`
	LastUtteranceConfidenceScore float64   `json:"last_utterance_confidence_score,omitempty" bson:"last_utterance_confidence_score,omitempty"`
	LastUtteranceConfidenceBand  string    `json:"last_utterance_confidence_band,omitempty" bson:"last_utterance_confidence_band,omitempty"`
	LastUtterancePhase           string    `json:"last_utterance_phase,omitempty" bson:"last_utterance_phase,omitempty"`
	LastUtteranceAt              time.Time `json:"last_utterance_at,omitempty" bson:"last_utterance_at,omitempty"`
}

// UtteranceState is the group of fields rewritten together on every
// linguistic regeneration. The store applies it as a single atomic update.
type UtteranceState struct {
	Text            string    `json:"text" bson:"last_utterance"`
	Retention       float64   `json:"retention" bson:"last_utterance_retention"`
	ConfidenceScore float64   `json:"confidence_score" bson:"last_utterance_confidence_score"`
	ConfidenceBand  string    `json:"confidence_band" bson:"last_utterance_confidence_band"`
	Phase           string    `json:"phase" bson:"last_utterance_phase"`
	At              time.Time `json:"at" bson:"last_utterance_at"`
}

// ApplyTo copies the group onto a record in one shot. Both store
// implementations go through this so the field mapping stays in one place.
func (u UtteranceState) ApplyTo(rec *CognitiveRecord) {
	rec.LastUtterance = u.Text
	rec.LastUtteranceRetention = u.Retention
	rec.LastUtteranceConfidenceScore = u.ConfidenceScore
	rec.LastUtteranceConfidenceBand = u.ConfidenceBand
	rec.LastUtterancePhase = u.Phase
	rec.LastUtteranceAt = u.At
}

// TaskRecord is one task assigned to an agent. Tasks are append-only; an
// orphaned ReportID is accepted.
type TaskRecord struct {
	TaskID        string    `json:"task_id" bson:"task_id"`
	ReportID      string    `json:"report_id" bson:"report_id"`
	TaskName      string    `json:"task_name" bson:"task_name"`
	Importance    float64   `json:"importance" bson:"importance"`
	RequiredTime  float64   `json:"required_time" bson:"required_time"`
	AvailableTime float64   `json:"available_time" bson:"available_time"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}
