package models

// Device commands for in-flight calls
const (
	CallCommandPlay     = "play"
	CallCommandTransfer = "transfer"
	CallCommandHangup   = "hangup"
)

// BeginCallRequest starts execution of a dispatched schedule on a device
type BeginCallRequest struct {
	ScheduleID string `json:"schedule_id" binding:"required,uuid"`
}

// CallEventRequest reports one callee event. An empty digit means the input
// timeout elapsed without a key press.
type CallEventRequest struct {
	Digit string `json:"digit" example:"1"`
}

// NextAction tells the device what to do next on a call
type NextAction struct {
	CallID  string `json:"call_id"`
	Command string `json:"command" example:"play"` // play, transfer, hangup

	// Set when Command is play
	NodeKey          string  `json:"node_key,omitempty"`
	AudioFileID      *string `json:"audio_file_id,omitempty"`
	PromptText       string  `json:"prompt_text,omitempty"`
	AwaitInput       bool    `json:"await_input"`
	TimeoutSeconds   int     `json:"timeout_seconds,omitempty"`
	ReplayRetryAudio bool    `json:"replay_retry_audio,omitempty"`

	// Set when Command is transfer
	TransferNumber string `json:"transfer_number,omitempty"`

	// Set when Command is hangup or transfer
	Outcome string `json:"outcome,omitempty" example:"ended"`
}
