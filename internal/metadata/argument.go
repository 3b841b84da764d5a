package metadata

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/oshokin/mcsync/internal/domain/rule"
)

// Argument is one launch argument entry: a plain string, or a rule-gated
// fragment whose value is a string or a list of strings.
type Argument struct {
	Values []string
	// Rules is nil for plain strings and for fragments without a rules key.
	Rules *rule.Set
}

var errMissingValue = errors.New("argument value is missing")

type gatedArgument struct {
	Rules *rule.Set       `json:"rules,omitempty"`
	Value json.RawMessage `json:"value"`
}

// UnmarshalJSON accepts both argument shapes.
func (a *Argument) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '"' {
		var plain string
		if err := json.Unmarshal(data, &plain); err != nil {
			return err
		}

		*a = Argument{Values: []string{plain}}

		return nil
	}

	var gated gatedArgument
	if err := json.Unmarshal(data, &gated); err != nil {
		return err
	}

	values, err := oneOrMany(gated.Value)
	if err != nil {
		return err
	}

	*a = Argument{Values: values, Rules: gated.Rules}

	return nil
}

// MarshalJSON writes plain arguments back as strings.
func (a Argument) MarshalJSON() ([]byte, error) {
	if a.Rules == nil && len(a.Values) == 1 {
		return json.Marshal(a.Values[0])
	}

	return json.Marshal(struct {
		Rules *rule.Set `json:"rules,omitempty"`
		Value []string  `json:"value"`
	}{Rules: a.Rules, Value: a.Values})
}

func oneOrMany(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errMissingValue
	}

	if raw[0] == '[' {
		var many []string
		if err := json.Unmarshal(raw, &many); err != nil {
			return nil, err
		}

		return many, nil
	}

	var one string
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}

	return []string{one}, nil
}
