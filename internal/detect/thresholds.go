package detect

import "github.com/dfalkner/meetcoach/internal/events"

// Hand-tuned heuristic constants, grouped by layer. These are compile-time by
// design; only the knobs in config.Detection are runtime-tunable.

// Window lengths (ms).
const (
	shortWindowMS = 3_000  // volume
	longWindowMS  = 10_000 // primary gate, monotony, pace
	trendWindowMS = 20_000 // frustration trend split halves
	behaviorMS    = 60_000 // long-term layer
)

// Primary layer.
const (
	primaryMinSamples = 4

	hostilityFloor    = 0.15
	hostilityWarn     = 0.25
	hostilityCrit     = 0.40
	frustrationFloor  = 0.15
	frustrationWarn   = 0.25
	comboFloor        = 0.10 // frustration+hostility each above this fires early
	sadnessFloor      = 0.15
	deepSadnessWarn   = 0.12
	boredomFloor      = 0.15
	boredomArousalMax = 0.0
	confusionFloor    = 0.15
	serenityFloor     = 0.20
	serenityNegMax    = 0.08
	connectionFloor   = 0.15
	mentalStateFloor  = 0.30
)

// Engagement detector (the gate sequence lives in engagement.go).
const (
	engagementValenceMin  = -0.3 // exclusive: valence <= -0.3 blocks
	engagementArousalMin  = 0.1
	engagementNegAbs      = 0.05 // any hostility/fear emotion above this blocks
	engagementHostActive  = 0.08
	engagementDeepSad     = 0.10
	engagementAnySad      = 0.12
	engagementFrustration = 0.12
	engagementComboHost   = 0.06
	engagementComboFrust  = 0.08
	engagementComboSad    = 0.08
	engagementFearThreat  = 0.08

	engagementHostRatio    = 1.5
	engagementSadRatio     = 1.3
	engagementFrustRatio   = 1.4
	engagementIntenseNeg   = 0.8
	engagementPlayfulRatio = 0.7

	engagementModerateBand = 0.04 // co-present negatives above this downgrade severity
	engagementMildValence  = 0.10
	engagementMildArousal  = 0.25

	engagementSpamWindowMS = 30_000
	engagementSpamCount    = 3
	engagementDupWindowMS  = 20_000
	engagementDupRatio     = 1.2 // near-duplicate needs a score 20% higher

	lowTensionArousalMax = 0.2
	lowTensionValenceMin = 0.2
)

// Meta layer.
const (
	significantEmotion   = 0.07
	trendMinSpeech       = 8
	trendMinObservations = 12
	trendMinCoverage     = 0.30
	trendArousalDelta    = 0.25
	trendValenceDelta    = -0.2

	postInterruptionMinAgeMS = 6_000
	postInterruptionDrop     = -0.2
	postInterruptionCoverage = 0.2

	polarizationNeg      = -0.2
	polarizationPos      = 0.2
	polarizationGap      = 0.5
	polarizationMinSide  = 1 // relaxed from an earlier >=2 rule
	polarizationMinAll   = 3
	polarizationWarnSide = 2
	groupCoverageGate    = 0.15
)

// Prosody layer.
const (
	volumeCoverageMin = 0.5
	volumeLowDbfs     = -40.0
	volumeLowCrit     = -50.0
	volumeHighDbfs    = -10.0
	volumeHighCrit    = -5.0

	monotonyMinSpeech   = 8
	monotonyMinArousal  = 8
	monotonyCoverage    = 0.45
	monotonyStdevInfo   = 0.10
	monotonyStdevWarn   = 0.06
	monotonyArousalHigh = 0.4
	monotonyArousalLow  = -0.2

	paceSwitchRate      = 1.0
	paceSwitchRateWarn  = 1.5
	paceMinSegments     = 6
	paceSilenceMS       = 5_000
	paceSilenceWarnMS   = 7_000
	paceSilenceCoverage = 0.10
	paceArousalLow      = -0.3 // blocks "accelerated"
	paceArousalHigh     = 0.4  // blocks "paused"

	fallbackArousalLow  = -0.35
	fallbackArousalHigh = 0.6
	fallbackValenceInfo = -0.35
	fallbackValenceWarn = -0.6
	tensionArousalMin   = 0.3
	lowEnergyArousalMax = -0.1

	groupEnergyInfo = -0.3
	groupEnergyWarn = -0.5
)

// Long-term layer.
const (
	silenceCoverageMax = 0.05
	silenceRMSMax      = -45.0

	overlapMinSpeakers = 2
	overlapCoverage    = 0.30

	interruptionMinEvents  = 5
	interruptionThrottleMS = 2_000
	dominantMinCoverage    = 0.5
)

// cooldownMS holds the per-type refire locks. Engagement and serenity carry
// longer locks than the other primary types: praise alerts spam fastest.
var cooldownMS = map[events.FeedbackType]int64{
	events.TypeHostility:   30_000,
	events.TypeFrustration: 30_000,
	events.TypeSadness:     30_000,
	events.TypeBoredom:     30_000,
	events.TypeConfusion:   30_000,
	events.TypeEngagement:  60_000,
	events.TypeSerenity:    60_000,
	events.TypeConnection:  45_000,
	events.TypeMentalState: 30_000,

	events.TypePostInterruption: 30_000,
	events.TypePolarization:     60_000, // meeting scope

	events.TypeVolumeLow:       20_000,
	events.TypeVolumeHigh:      20_000,
	events.TypeMonotony:        30_000,
	events.TypePaceAccelerated: 30_000,
	events.TypePacePaused:      30_000,
	events.TypeArousalLow:      30_000,
	events.TypeArousalHigh:     30_000,
	events.TypeTension:         30_000,
	events.TypeLowEnergy:       30_000,
	events.TypeNegativeValence: 30_000,
	events.TypeGroupEnergy:     60_000, // meeting scope

	events.TypeSilence:      60_000,
	events.TypeOverlap:      30_000,
	events.TypeInterruption: 60_000, // meeting scope
}
