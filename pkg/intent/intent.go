// Package intent classifies utterance transcripts into customer intents
// and extracts the item mentions an order-style utterance carries.
//
// Classification is rule driven: an ordered table of (kind, phrase set)
// pairs is evaluated top to bottom and the first matching rule wins, so
// specific kinds (cancel, done) are declared ahead of the catch-all order
// patterns. The built-in table is [DefaultRules]; a YAML file in the same
// shape can replace it.
package intent

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Kind is the classified purpose of an utterance.
type Kind int

const (
	KindUnknown Kind = iota
	KindOrder
	KindSuggest
	KindConfirm
	KindCancel
	KindInfo
	KindDone
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindOrder:
		return "order"
	case KindSuggest:
		return "suggest"
	case KindConfirm:
		return "confirm"
	case KindCancel:
		return "cancel"
	case KindInfo:
		return "info"
	case KindDone:
		return "done"
	default:
		return "unknown"
	}
}

func kindFromName(name string) (Kind, bool) {
	switch name {
	case "order":
		return KindOrder, true
	case "suggest":
		return KindSuggest, true
	case "confirm":
		return KindConfirm, true
	case "cancel":
		return KindCancel, true
	case "info":
		return KindInfo, true
	case "done":
		return KindDone, true
	case "unknown":
		return KindUnknown, true
	}
	return KindUnknown, false
}

// MarshalJSON implements json.Marshaler.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (k *Kind) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	kk, ok := kindFromName(name)
	if !ok {
		return fmt.Errorf("unknown intent kind %q", name)
	}
	*k = kk
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	kk, ok := kindFromName(name)
	if !ok {
		return fmt.Errorf("unknown intent kind %q", name)
	}
	*k = kk
	return nil
}

// Mention is one item reference extracted from an order utterance,
// in left-to-right order of appearance.
type Mention struct {
	// RawText is the noun phrase as spoken, normalized but unresolved.
	// Matching it against the menu is the caller's job.
	RawText string `json:"raw_text"`
	// Quantity is the spoken count, at least 1. An utterance with no
	// quantity token means 1.
	Quantity int `json:"quantity"`
}

// Intent is the parse result for one utterance.
type Intent struct {
	Kind Kind `json:"kind"`
	// Mentions carries the extracted item references for order and
	// cancel utterances, empty for every other kind.
	Mentions []Mention `json:"mentions,omitempty"`
}
