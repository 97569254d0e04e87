package intent

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rule binds one intent kind to the phrases that trigger it.
//
// A phrase is a sequence of words matched anywhere in the normalized
// utterance on word boundaries. The token "+" matches any single word,
// so "two +" triggers on "two" followed by anything.
type Rule struct {
	Intent  Kind    `json:"intent" yaml:"intent"`
	Phrases Phrases `json:"phrases" yaml:"phrases"`
}

// Phrases is a phrase list that also decodes from a single scalar.
//
// YAML/JSON supports:
//   - "cancel"
//   - ["cancel", "never mind"]
type Phrases []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Phrases) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		*p = Phrases{s}
		return nil
	}
	var list []string
	if err := value.Decode(&list); err == nil {
		*p = Phrases(list)
		return nil
	}
	return fmt.Errorf("phrases must be a string or a list of strings")
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Phrases) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = Phrases{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*p = Phrases(list)
		return nil
	}
	return fmt.Errorf("phrases must be a string or a list of strings")
}

// DefaultRules returns the built-in rule table. Order matters: the
// first matching rule wins, so cancel and done outrank the order
// patterns that trigger on any quantity-plus-noun phrasing.
func DefaultRules() []Rule {
	return []Rule{
		{Intent: KindCancel, Phrases: Phrases{
			"cancel", "never mind", "nevermind", "forget it", "start over",
			"scratch that", "no", "nope", "wrong", "mistake",
			"remove", "delete", "take off", "take out", "change that",
		}},
		{Intent: KindDone, Phrases: Phrases{
			"that's all", "that's it", "that'll be all", "that will be all",
			"nothing else", "i'm done", "i am done", "done", "finished",
			"all set", "complete", "checkout", "check out", "the bill",
			"the total", "ready to pay", "pay",
		}},
		{Intent: KindSuggest, Phrases: Phrases{
			"suggest", "recommend", "recommendation", "what's good",
			"what is good", "what's popular", "what is popular", "popular",
			"what should i", "help me choose", "surprise me", "best",
			"favorite", "special",
		}},
		{Intent: KindConfirm, Phrases: Phrases{
			"yes", "yeah", "yep", "yup", "sure", "okay", "ok", "correct",
			"right", "that's right", "confirm", "sounds good", "perfect",
			"exactly", "go ahead", "that works",
		}},
		{Intent: KindInfo, Phrases: Phrases{
			"what is", "what's in", "what is in", "tell me about",
			"describe", "how much", "price", "cost", "contain",
			"ingredients", "allergy", "allergic", "gluten", "vegan",
			"vegetarian", "calories", "nutrition",
		}},
		{Intent: KindOrder, Phrases: Phrases{
			"i want", "i would like", "i'd like", "i'll have", "i'll take",
			"i need", "give me", "get me", "bring me", "can i have",
			"can i get", "could i have", "could i get", "may i have",
			"let me have", "how about", "order", "we want", "we'll have",
			"a +", "an +", "one +", "two +", "three +", "four +", "five +",
			"six +", "seven +", "eight +", "nine +", "ten +", "some +",
			"couple of +", "a few +",
		}},
	}
}

// ParseRules parses a rule table from YAML bytes:
//
//	rules:
//	  - intent: cancel
//	    phrases: [cancel, "never mind"]
//	  - intent: order
//	    phrases: i want
//
// Declaration order in the file is the evaluation order.
func ParseRules(data []byte) ([]Rule, error) {
	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("intent: parse rules: %w", err)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("intent: rules file defines no rules")
	}
	return doc.Rules, nil
}

// LoadRules reads and parses a YAML rule table from path.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("intent: read %s: %w", path, err)
	}
	return ParseRules(data)
}
