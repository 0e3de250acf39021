package chat

import "time"

// inferenceDoneMsg delivers a completed assistant reply from the worker
type inferenceDoneMsg struct {
	seq  uint64
	text string
	dur  time.Duration
}

// inferenceErrMsg delivers a failed request from the worker
type inferenceErrMsg struct {
	seq uint64
	err error
}

// modelsMsg delivers the installed model list, either for the picker
// dialog or for printing
type modelsMsg struct {
	names     []string
	err       error
	forPicker bool
}

// modelCheckMsg delivers the advisory startup model check result
type modelCheckMsg struct {
	warning string
}
