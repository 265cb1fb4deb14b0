package types

// Stage names one of the four pipeline phases tracked for status and timing.
// The speech phase is named "tts" on the wire.
type Stage string

const (
	StageTranscription Stage = "transcription"
	StageTools         Stage = "tools"
	StageGeneration    Stage = "generation"
	StageSpeech        Stage = "tts"
)

// Stages lists the pipeline phases in execution order.
var Stages = []Stage{StageTranscription, StageTools, StageGeneration, StageSpeech}

// StageStatus is the lifecycle state of a stage within one turn.
type StageStatus string

const (
	StagePending StageStatus = "pending"
	StageRunning StageStatus = "running"
	StageSuccess StageStatus = "success"
	StageError   StageStatus = "error"
)
