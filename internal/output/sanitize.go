package output

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	rawPolicyOnce sync.Once
	rawPolicy     *bluemonday.Policy
)

// DefaultRawPolicy is the policy applied to unescaped text when no other
// policy is given: the user-generated-content policy from bluemonday.
func DefaultRawPolicy() *bluemonday.Policy {
	rawPolicyOnce.Do(func() {
		rawPolicy = bluemonday.UGCPolicy()
	})
	return rawPolicy
}

// Sanitizing wraps a Context and cleans every unescaped text write with a
// bluemonday policy before passing it on. Escaped text is already safe and
// goes through untouched.
type Sanitizing struct {
	Context
	policy *bluemonday.Policy
}

// NewSanitizing wraps next. A nil policy selects DefaultRawPolicy.
func NewSanitizing(next Context, policy *bluemonday.Policy) *Sanitizing {
	if policy == nil {
		policy = DefaultRawPolicy()
	}
	return &Sanitizing{Context: next, policy: policy}
}

func (s *Sanitizing) Text(value string, escape bool) {
	if !escape {
		value = s.policy.Sanitize(value)
	}
	s.Context.Text(value, escape)
}
