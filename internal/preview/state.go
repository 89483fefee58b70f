package preview

import (
	"fmt"
	"time"

	"github.com/tommyzki/tommyzki-translate/internal/language"
	"github.com/tommyzki/tommyzki-translate/internal/translation"
)

// State is the orchestrator's position in the preview cycle.
type State int

const (
	StateIdle State = iota
	StateDetecting
	StateTranslating
	StatePreviewReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDetecting:
		return "detecting"
	case StateTranslating:
		return "translating"
	case StatePreviewReady:
		return "preview_ready"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// InFlight reports whether a detection or translation call is outstanding.
func (s State) InFlight() bool {
	return s == StateDetecting || s == StateTranslating
}

// Operation names the step a notice is about.
type Operation string

const (
	OperationValidation Operation = "validation"
	OperationDetect     Operation = "detect"
	OperationPreview    Operation = "preview"
	OperationCommit     Operation = "commit"
)

// Notice is a transient, dismissible message for the user.
type Notice struct {
	ID          string    `json:"id"`
	Operation   Operation `json:"operation"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// HistoryEntry is a committed translation. It is never modified after creation.
type HistoryEntry struct {
	ID          string             `json:"id"`
	Result      translation.Result `json:"result"`
	CommittedAt time.Time          `json:"committed_at"`
}

// Snapshot is a read-only copy of the orchestrator state.
type Snapshot struct {
	Version    uint64              `json:"version"`
	Input      string              `json:"input"`
	State      State               `json:"state"`
	Detected   language.Code       `json:"detected,omitempty"`
	Preview    *translation.Result `json:"preview,omitempty"`
	PreviewFor string              `json:"preview_for,omitempty"`
	Loading    bool                `json:"loading"`
	Committing bool                `json:"committing"`
	CanCommit  bool                `json:"can_commit"`
	History    []HistoryEntry      `json:"history"`
	Notices    []Notice            `json:"notices"`
}
