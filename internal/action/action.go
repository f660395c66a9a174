// Package action defines the closed catalogue of state-mutating actions and
// the boundary decoder that turns untyped IPC envelopes into typed variants.
//
// Every mutation of the state tree is expressed as one of the Action types in
// this package. The catalogue is closed: an envelope whose type is not
// registered here is rejected with an UnknownAction validation error before
// it ever reaches the reducer. Payload shape is validated at decode time;
// state-dependent checks (index in range, task not already running) belong to
// the reducer, which sees the current state.
//
// Actions suffixed with a Set/Append/Complete/Fail verb pair are typically
// follow-ups: they re-enter the dispatcher from a running effect rather than
// from a renderer, and carry explicit project/worktree ids because the active
// selection may have moved while the effect ran.
package action

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/calmren/atelier/internal/errors"
)

// Action is a typed, validated intent to mutate state.
type Action interface {
	// ActionType returns the stable wire tag of the variant.
	ActionType() string
}

// Validator is implemented by variants with payload constraints beyond shape.
type Validator interface {
	Validate() error
}

// Envelope is the untyped wire form of an action.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// registry maps wire tags to variant constructors. Populated by the
// register calls in each per-domain file's init.
var registry = map[string]func() Action{}

func register(factory func() Action) {
	a := factory()
	tag := a.ActionType()
	if _, dup := registry[tag]; dup {
		panic(fmt.Sprintf("action: duplicate registration for %q", tag))
	}
	registry[tag] = factory
}

// Known reports whether tag names a registered action variant.
func Known(tag string) bool {
	_, ok := registry[tag]
	return ok
}

// Catalogue returns all registered wire tags, sorted.
func Catalogue() []string {
	tags := make([]string, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Decode turns a raw envelope body into a typed, validated Action.
func Decode(data []byte) (Action, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.NewValidationError("malformed action envelope").WithCause(err)
	}
	return DecodeEnvelope(env)
}

// DecodeEnvelope turns an envelope into a typed, validated Action.
func DecodeEnvelope(env Envelope) (Action, error) {
	if strings.TrimSpace(env.Type) == "" {
		return nil, errors.NewValidationError("action type is required").WithField("type")
	}

	factory, ok := registry[env.Type]
	if !ok {
		return nil, errors.NewUnknownActionError(env.Type)
	}

	a := factory()
	if len(env.Payload) > 0 {
		dec := json.NewDecoder(strings.NewReader(string(env.Payload)))
		if err := dec.Decode(a); err != nil {
			return nil, errors.NewValidationError("malformed payload").
				WithActionType(env.Type).
				WithCause(err)
		}
	}

	if v, ok := a.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Encode wraps an action back into its wire envelope.
func Encode(a Action) (Envelope, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return Envelope{}, errors.Wrap(err, "encode action payload")
	}
	return Envelope{Type: a.ActionType(), Payload: payload}, nil
}

// WorktreeRef addresses a specific worktree for follow-up actions. Zero
// value means "the active worktree at apply time".
type WorktreeRef struct {
	ProjectID  string `json:"project_id,omitempty"`
	WorktreeID string `json:"worktree_id,omitempty"`
}

// IsZero reports whether the ref targets the active selection.
func (r WorktreeRef) IsZero() bool {
	return r.ProjectID == "" && r.WorktreeID == ""
}

func requireString(action, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewValidationError(field + " is required").
			WithActionType(action).
			WithField(field)
	}
	return nil
}

func requireNonNegative(action, field string, value int) error {
	if value < 0 {
		return errors.NewValidationError(field + " must be non-negative").
			WithActionType(action).
			WithField(field).
			WithValue(value)
	}
	return nil
}
