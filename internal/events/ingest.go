// Package events defines the boundary types of the detection engine: the two
// inbound streams (prosody samples and text analysis results) and the outbound
// feedback payload.
package events

// Role identifies a participant's function in the meeting, as resolved by the
// upstream identity service.
type Role string

const (
	RoleHost    Role = "host"
	RoleGuest   Role = "guest"
	RoleUnknown Role = "unknown"
)

// Prosody carries the per-frame affect measurements produced by the upstream
// voice model. Valence and Arousal are nil when the model emitted no estimate
// for this frame.
type Prosody struct {
	SpeechDetected bool               `json:"speechDetected"`
	Valence        *float64           `json:"valence,omitempty"`
	Arousal        *float64           `json:"arousal,omitempty"`
	Emotions       map[string]float64 `json:"emotions,omitempty"`
}

// Signal carries raw acoustic measurements for the frame.
type Signal struct {
	RMSDbfs *float64 `json:"rmsDbfs,omitempty"`
}

// IngestionEvent is one audio-frame measurement for one participant.
type IngestionEvent struct {
	MeetingID       string  `json:"meetingId"`
	ParticipantID   string  `json:"participantId"`
	ParticipantRole Role    `json:"participantRole"`
	TS              int64   `json:"ts"` // unix millis
	Prosody         Prosody `json:"prosody"`
	Signal          *Signal `json:"signal,omitempty"`
}

// IndecisionMetrics are the upstream NLP service's numeric estimates for the
// three indecision patterns, each in [0,1].
type IndecisionMetrics struct {
	Postponement        float64 `json:"postponement"`
	ConditionalLanguage float64 `json:"conditional_language"`
	LackOfCommitment    float64 `json:"lack_of_commitment"`
}

// CategoryAggregate summarizes the recent sales-category classification for a
// participant, as computed upstream over a sliding window of utterances.
type CategoryAggregate struct {
	Category  string  `json:"category"`
	Stability float64 `json:"stability"` // 0..1, how consistently this category repeats
	Trend     string  `json:"trend"`     // "stable", "rising", "falling"
	Velocity  float64 `json:"velocity"`  // category switches per minute
	Chunks    int     `json:"chunks_with_category"`
}

// TextAnalysis is the full NLP result for one transcribed utterance.
type TextAnalysis struct {
	Intent         string    `json:"intent"`
	Topic          string    `json:"topic"`
	SpeechAct      string    `json:"speech_act"`
	Keywords       []string  `json:"keywords"`
	Entities       []string  `json:"entities"`
	Sentiment      string    `json:"sentiment"`
	SentimentScore float64   `json:"sentiment_score"`
	Urgency        string    `json:"urgency"`
	Embedding      []float32 `json:"embedding"`

	SalesCategory           string             `json:"sales_category,omitempty"`
	SalesCategoryConfidence float64            `json:"sales_category_confidence,omitempty"`
	SalesCategoryIntensity  float64            `json:"sales_category_intensity,omitempty"`
	SalesCategoryAmbiguity  float64            `json:"sales_category_ambiguity,omitempty"`
	SalesCategoryFlags      []string           `json:"sales_category_flags,omitempty"`
	SalesCategoryAggregated *CategoryAggregate `json:"sales_category_aggregated,omitempty"`
	SalesCategoryTransition string             `json:"sales_category_transition,omitempty"`
	SalesCategoryTrend      string             `json:"sales_category_trend,omitempty"`

	ConditionalKeywordsDetected []string           `json:"conditional_keywords_detected,omitempty"`
	IndecisionMetrics           *IndecisionMetrics `json:"indecision_metrics,omitempty"`
}

// TextEvent is one analyzed utterance for one participant.
type TextEvent struct {
	MeetingID       string       `json:"meetingId"`
	ParticipantID   string       `json:"participantId"`
	ParticipantRole Role         `json:"participantRole"`
	Text            string       `json:"text"`
	Timestamp       int64        `json:"timestamp"` // unix millis
	Analysis        TextAnalysis `json:"analysis"`
}
