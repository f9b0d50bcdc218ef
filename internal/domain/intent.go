package domain

// Action is the lifecycle operation an intent asks for.
type Action string

const (
	ActionSpawn    Action = "spawn"
	ActionDissolve Action = "dissolve"
)

// Intent describes a spawn or dissolve submitted to the intent validator.
// WorkerID and Reason are only set for dissolve.
type Intent struct {
	Action   Action            `json:"action" validate:"required,oneof=spawn dissolve"`
	Category string            `json:"category" validate:"required,max=64"`
	Subtype  string            `json:"subtype" validate:"required,max=64"`
	WorkerID string            `json:"worker_id,omitempty" validate:"required_if=Action dissolve"`
	Reason   string            `json:"reason,omitempty" validate:"max=256"`
	Context  map[string]string `json:"context,omitempty" validate:"max=64,dive,keys,min=1,max=128,endkeys,max=4096"`
}

// Verdict is the validator's answer to an intent.
type Verdict struct {
	Accepted bool
	Reason   string
}

// Accept returns an accepting verdict.
func Accept() Verdict { return Verdict{Accepted: true} }

// Reject returns a declining verdict with a reason.
func Reject(reason string) Verdict { return Verdict{Reason: reason} }
