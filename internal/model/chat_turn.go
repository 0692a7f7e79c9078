package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// AggregateKey addresses every uploaded document at once. As a transcript key it
// names a dedicated transcript, not a merge of the per-document ones.
const AggregateKey = "__ALL__"

type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Transcript struct {
	Key   string     `json:"key"`
	Turns []ChatTurn `json:"turns"`
}
