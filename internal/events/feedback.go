package events

// Severity grades how urgently a coaching alert should be surfaced.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// FeedbackType is the closed set of alert kinds the engine can emit. Adding a
// kind here requires a detector, a message template, and a cooldown entry.
type FeedbackType string

const (
	// Primary emotion layer.
	TypeHostility   FeedbackType = "hostilidade_detectada"
	TypeFrustration FeedbackType = "frustracao_crescente"
	TypeSadness     FeedbackType = "tristeza_detectada"
	TypeBoredom     FeedbackType = "tedio_detectado"
	TypeConfusion   FeedbackType = "confusao_detectada"
	TypeEngagement  FeedbackType = "entusiasmo_alto"
	TypeSerenity    FeedbackType = "serenidade_detectada"
	TypeConnection  FeedbackType = "conexao_positiva"
	TypeMentalState FeedbackType = "estado_mental_alterado"

	// Meta-state layer. TypeFrustration is shared with the primary layer so
	// the trend fallback and the emotion detector cannot double-fire.
	TypePostInterruption FeedbackType = "efeito_pos_interrupcao"
	TypePolarization     FeedbackType = "polarizacao_grupo"

	// Prosody layer.
	TypeVolumeLow       FeedbackType = "volume_baixo"
	TypeVolumeHigh      FeedbackType = "volume_alto"
	TypeMonotony        FeedbackType = "monotonia_prosodica"
	TypePaceAccelerated FeedbackType = "ritmo_acelerado"
	TypePacePaused      FeedbackType = "ritmo_pausado"
	TypeArousalLow      FeedbackType = "ativacao_baixa"
	TypeArousalHigh     FeedbackType = "ativacao_alta"
	TypeTension         FeedbackType = "tensao_vocal"
	TypeLowEnergy       FeedbackType = "desanimo_vocal"
	TypeNegativeValence FeedbackType = "valencia_negativa"
	TypeGroupEnergy     FeedbackType = "energia_grupo_baixa"

	// Long-term layer.
	TypeSilence      FeedbackType = "silencio_prolongado"
	TypeOverlap      FeedbackType = "sobreposicao_fala"
	TypeInterruption FeedbackType = "interrupcoes_frequentes"

	// Text/sales layer.
	TypeClientIndecision   FeedbackType = "sales_client_indecision"
	TypeSolutionUnderstood FeedbackType = "sales_solution_understood"
)

// GroupParticipantID marks a meeting-wide alert that is not about any single
// participant.
const GroupParticipantID = "group"

// Window is the time span of samples that produced an alert.
type Window struct {
	Start int64 `json:"start"` // unix millis
	End   int64 `json:"end"`
}

// FeedbackEvent is the immutable payload handed to the delivery collaborator.
// Detectors construct it once and never mutate it afterwards.
type FeedbackEvent struct {
	ID            string         `json:"id"`
	Type          FeedbackType   `json:"type"`
	Severity      Severity       `json:"severity"`
	TS            int64          `json:"ts"`
	MeetingID     string         `json:"meetingId"`
	ParticipantID string         `json:"participantId"`
	Window        Window         `json:"window"`
	Message       string         `json:"message"`
	Tips          []string       `json:"tips"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}
