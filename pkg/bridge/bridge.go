/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package bridge translates identity claims between protocols via an ordered
// list of translation rules. Rules are evaluated in ascending priority order
// and the first rule whose conditions all match is applied; no further rules
// run. Claims destined for vc/vp targets are framed as linked-data documents
// and compacted against an inline credentials context, never fetching
// contexts remotely.
package bridge

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/piprate/json-gold/ld"

	"github.com/trustbloc/identity-hub/pkg/huberrors"
)

// WholeDocument names the virtual source field resolving to the entire input
// claim set, used to embed one document inside another (vc → vp).
const WholeDocument = "$"

// Operator compares one claim field against a condition value.
type Operator string

const (
	OperatorEqual    Operator = "eq"
	OperatorNotEqual Operator = "ne"
	OperatorContains Operator = "contains"
	OperatorRegex    Operator = "regex"
	OperatorExists   Operator = "exists"
)

// Condition gates a translation rule on one claim field. Type optionally
// coerces the comparison ("number", "boolean"); the default compares string
// forms. Conditions on absent fields only match for OperatorExists with a
// false value.
type Condition struct {
	Field    string      `json:"field"`
	Operator Operator    `json:"operator"`
	Value    interface{} `json:"value,omitempty"`
	Type     string      `json:"type,omitempty"`
}

// TransformationKind selects how source claim fields map onto a target field.
type TransformationKind string

const (
	TransformDirect      TransformationKind = "direct"
	TransformConcatenate TransformationKind = "concatenate"
	TransformSplit       TransformationKind = "split"
	TransformAggregate   TransformationKind = "aggregate"
	TransformLookup      TransformationKind = "lookup"
	TransformCalculated  TransformationKind = "calculated"
)

// ErrorPolicy selects how a rule reacts to a failing transformation.
type ErrorPolicy string

const (
	// PolicyFailFast aborts the translation on the first failure.
	PolicyFailFast ErrorPolicy = "fail_fast"
	// PolicyContinue skips failed transformations; the result succeeds and
	// carries the collected errors.
	PolicyContinue ErrorPolicy = "continue"
	// PolicyCollect runs every transformation and, when any failed, returns
	// the aggregate result together with an error naming the failure count.
	PolicyCollect ErrorPolicy = "collect_errors"
)

// Transformation maps one or more source claim fields onto a target field.
// Optional transformations are skipped, not failed, when their source fields
// are absent.
type Transformation struct {
	Kind         TransformationKind `json:"kind"`
	SourceField  string             `json:"sourceField,omitempty"`
	SourceFields []string           `json:"sourceFields,omitempty"`
	TargetField  string             `json:"targetField"`
	Separator    string             `json:"separator,omitempty"`
	Index        int                `json:"index,omitempty"`
	Table        map[string]string  `json:"table,omitempty"`
	Function     string             `json:"function,omitempty"`
	Optional     bool               `json:"optional,omitempty"`
}

// Rule translates claims from one protocol to another when its conditions
// match. Lower priority values run first.
type Rule struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	Priority        int              `json:"priority"`
	SourceProtocol  string           `json:"sourceProtocol"`
	TargetProtocol  string           `json:"targetProtocol"`
	Conditions      []Condition      `json:"conditions,omitempty"`
	Transformations []Transformation `json:"transformations"`
	ErrorPolicy     ErrorPolicy      `json:"errorPolicy,omitempty"`
}

// Result is the outcome of one translation: the produced claims, the rule
// that produced them and any transformation errors tolerated by the rule's
// error policy.
type Result struct {
	SourceProtocol string                 `json:"sourceProtocol"`
	TargetProtocol string                 `json:"targetProtocol"`
	RuleID         string                 `json:"ruleId"`
	Claims         map[string]interface{} `json:"claims"`
	Errors         []string               `json:"errors,omitempty"`
}

// Translator applies translation rules to claim sets. Construct with
// NewTranslator; the zero value is not usable.
type Translator struct {
	rules     []Rule
	errs      *huberrors.Catalog
	processor *ld.JsonLdProcessor
	ldOptions *ld.JsonLdOptions
}

// Option configures a Translator.
type Option func(*Translator)

// WithRules registers additional translation rules alongside the defaults.
func WithRules(rules ...Rule) Option {
	return func(t *Translator) {
		t.rules = append(t.rules, rules...)
	}
}

// NewTranslator returns a Translator loaded with the default rule set plus
// any rules supplied via WithRules, sorted by ascending priority.
func NewTranslator(opts ...Option) *Translator {
	ldOptions := ld.NewJsonLdOptions("")
	ldOptions.ProcessingMode = ld.JsonLd_1_1
	ldOptions.DocumentLoader = newInlineDocumentLoader()

	t := &Translator{
		rules:     DefaultRules(),
		errs:      huberrors.NewCatalog("protocol-bridge"),
		processor: ld.NewJsonLdProcessor(),
		ldOptions: ldOptions,
	}

	for _, opt := range opts {
		opt(t)
	}

	sort.SliceStable(t.rules, func(i, j int) bool { return t.rules[i].Priority < t.rules[j].Priority })

	return t
}

// Rules returns the translator's rules in evaluation order.
func (t *Translator) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)

	return out
}

// Translate runs claims through the first rule matching the source → target
// protocol pair whose conditions all hold. It fails with a protocol mismatch
// when no rule matches.
func (t *Translator) Translate(sourceProtocol, targetProtocol string, claims map[string]interface{}) (*Result, error) {
	const op = "Translate"

	for i := range t.rules {
		rule := &t.rules[i]

		if rule.SourceProtocol != sourceProtocol || rule.TargetProtocol != targetProtocol {
			continue
		}

		matched, err := t.conditionsMatch(rule.Conditions, claims)
		if err != nil {
			return nil, err
		}

		if !matched {
			continue
		}

		return t.applyRule(rule, sourceProtocol, targetProtocol, claims)
	}

	return nil, t.errs.Errf(op, huberrors.CodeProtocolMismatch,
		"no translation rule matches %s → %s for the given claims", sourceProtocol, targetProtocol)
}

// TranslateIdentity translates a protocol identity's claim set to the target
// protocol. The protocol-scoped identifier is carried as the "id" claim
// unless the claims already define one.
func (t *Translator) TranslateIdentity(sourceProtocol, identifier string, claims map[string]interface{},
	targetProtocol string) (*Result, error) {
	merged := make(map[string]interface{}, len(claims)+1)

	for k, v := range claims {
		merged[k] = v
	}

	if _, ok := merged["id"]; !ok && identifier != "" {
		merged["id"] = identifier
	}

	return t.Translate(sourceProtocol, targetProtocol, merged)
}

// TranslateCredential translates a verifiable credential document to the
// target protocol framing, e.g. embedding it into a presentation.
func (t *Translator) TranslateCredential(credential map[string]interface{}, targetProtocol string) (*Result, error) {
	return t.Translate(protocolVC, targetProtocol, credential)
}

// ValidateProtocolData checks that data carries every field the protocol
// requires. Callers run it after translation to catch rules that produced an
// incomplete document.
func (t *Translator) ValidateProtocolData(protocol string, data map[string]interface{}) error {
	const op = "ValidateProtocolData"

	required, ok := requiredFields[protocol]
	if !ok {
		return t.errs.Errf(op, huberrors.CodeProtocolNotSupported, "unknown protocol %q", protocol)
	}

	var missing []string

	for _, field := range required {
		if _, ok := data[field]; !ok {
			missing = append(missing, field)
		}
	}

	if len(missing) > 0 {
		return t.errs.Errf(op, huberrors.CodeInvalidDataFormat,
			"missing required %s field(s): %s", protocol, strings.Join(missing, ", "))
	}

	return nil
}

func (t *Translator) conditionsMatch(conditions []Condition, claims map[string]interface{}) (bool, error) {
	const op = "Translate"

	for _, c := range conditions {
		value, present := claims[c.Field]

		switch c.Operator {
		case OperatorExists:
			want := true
			if b, ok := c.Value.(bool); ok {
				want = b
			}

			if present != want {
				return false, nil
			}
		case OperatorEqual:
			if !present || !equalValues(value, c.Value, c.Type) {
				return false, nil
			}
		case OperatorNotEqual:
			if !present || equalValues(value, c.Value, c.Type) {
				return false, nil
			}
		case OperatorContains:
			if !present || !containsValue(value, c.Value) {
				return false, nil
			}
		case OperatorRegex:
			pattern, ok := c.Value.(string)
			if !ok {
				return false, t.errs.Errf(op, huberrors.CodeTranslationFailed,
					"regex condition on field %q needs a string pattern", c.Field)
			}

			re, err := regexp.Compile(pattern)
			if err != nil {
				return false, t.errs.Wrap(op, huberrors.CodeTranslationFailed, err)
			}

			if !present || !re.MatchString(stringify(value)) {
				return false, nil
			}
		default:
			return false, t.errs.Errf(op, huberrors.CodeTranslationFailed,
				"unknown condition operator %q on field %q", c.Operator, c.Field)
		}
	}

	return true, nil
}

func (t *Translator) applyRule(rule *Rule, sourceProtocol, targetProtocol string,
	claims map[string]interface{}) (*Result, error) {
	const op = "Translate"

	policy := rule.ErrorPolicy
	if policy == "" {
		policy = PolicyFailFast
	}

	out := make(map[string]interface{})

	var collected []string

	for _, tr := range rule.Transformations {
		err := t.applyTransformation(tr, claims, out)
		if err == nil {
			continue
		}

		if policy == PolicyFailFast {
			return nil, err
		}

		collected = append(collected, err.Error())
	}

	if isLinkedDataProtocol(targetProtocol) {
		framed, err := t.frameLinkedData(targetProtocol, out)
		if err != nil {
			return nil, t.errs.Wrap(op, huberrors.CodeTranslationFailed, err)
		}

		out = framed
	}

	result := &Result{
		SourceProtocol: sourceProtocol,
		TargetProtocol: targetProtocol,
		RuleID:         rule.ID,
		Claims:         out,
		Errors:         collected,
	}

	if policy == PolicyCollect && len(collected) > 0 {
		return result, t.errs.Errf(op, huberrors.CodeTranslationFailed,
			"%d of %d transformations failed", len(collected), len(rule.Transformations))
	}

	return result, nil
}

func (t *Translator) applyTransformation(tr Transformation, in, out map[string]interface{}) error { //nolint: gocyclo
	const op = "Translate"

	switch tr.Kind {
	case TransformDirect:
		value, ok := resolveField(in, tr.SourceField)
		if !ok {
			if tr.Optional {
				return nil
			}

			return t.errs.Errf(op, huberrors.CodeTranslationFailed, "source field %q missing", tr.SourceField)
		}

		out[tr.TargetField] = value
	case TransformConcatenate:
		parts := make([]string, 0, len(tr.SourceFields))

		for _, field := range tr.SourceFields {
			value, ok := resolveField(in, field)
			if !ok {
				if tr.Optional {
					return nil
				}

				return t.errs.Errf(op, huberrors.CodeTranslationFailed, "source field %q missing", field)
			}

			parts = append(parts, stringify(value))
		}

		out[tr.TargetField] = strings.Join(parts, tr.Separator)
	case TransformSplit:
		value, ok := resolveField(in, tr.SourceField)
		if !ok {
			if tr.Optional {
				return nil
			}

			return t.errs.Errf(op, huberrors.CodeTranslationFailed, "source field %q missing", tr.SourceField)
		}

		str, ok := value.(string)
		if !ok {
			return t.errs.Errf(op, huberrors.CodeTranslationFailed,
				"split source field %q is not a string", tr.SourceField)
		}

		if tr.Separator == "" {
			return t.errs.Errf(op, huberrors.CodeTranslationFailed, "split requires a separator")
		}

		segments := strings.Split(str, tr.Separator)
		if tr.Index < 0 || tr.Index >= len(segments) {
			return t.errs.Errf(op, huberrors.CodeTranslationFailed,
				"split index %d out of range for %d segment(s)", tr.Index, len(segments))
		}

		out[tr.TargetField] = segments[tr.Index]
	case TransformAggregate:
		aggregate := make(map[string]interface{})

		for _, field := range tr.SourceFields {
			if value, ok := resolveField(in, field); ok {
				aggregate[field] = value
			}
		}

		if len(aggregate) == 0 {
			if tr.Optional {
				return nil
			}

			return t.errs.Errf(op, huberrors.CodeTranslationFailed,
				"none of the aggregate source fields are present")
		}

		out[tr.TargetField] = aggregate
	case TransformLookup:
		value, ok := resolveField(in, tr.SourceField)
		if !ok {
			if tr.Optional {
				return nil
			}

			return t.errs.Errf(op, huberrors.CodeTranslationFailed, "source field %q missing", tr.SourceField)
		}

		mapped, ok := tr.Table[stringify(value)]
		if !ok {
			if tr.Optional {
				return nil
			}

			return t.errs.Errf(op, huberrors.CodeTranslationFailed,
				"no lookup entry for %q in field %q", stringify(value), tr.SourceField)
		}

		out[tr.TargetField] = mapped
	case TransformCalculated:
		value, err := t.calculate(tr, in)
		if err != nil {
			return err
		}

		out[tr.TargetField] = value
	default:
		return t.errs.Errf(op, huberrors.CodeUnsupportedTransformation,
			"unknown transformation kind %q", tr.Kind)
	}

	return nil
}

func (t *Translator) calculate(tr Transformation, in map[string]interface{}) (interface{}, error) {
	const op = "Translate"

	switch tr.Function {
	case "current_timestamp":
		return time.Now().UTC().Format(time.RFC3339), nil
	case "uuid":
		return "urn:uuid:" + uuid.New().String(), nil
	case "lowercase", "uppercase":
		value, ok := resolveField(in, tr.SourceField)
		if !ok {
			if tr.Optional {
				return nil, nil
			}

			return nil, t.errs.Errf(op, huberrors.CodeTranslationFailed,
				"source field %q missing", tr.SourceField)
		}

		if tr.Function == "lowercase" {
			return strings.ToLower(stringify(value)), nil
		}

		return strings.ToUpper(stringify(value)), nil
	default:
		return nil, t.errs.Errf(op, huberrors.CodeUnsupportedTransformation,
			"unknown calculated function %q", tr.Function)
	}
}

// resolveField looks up a claim field, treating WholeDocument as a copy of
// the entire input set.
func resolveField(in map[string]interface{}, field string) (interface{}, bool) {
	if field == WholeDocument {
		whole := make(map[string]interface{}, len(in))

		for k, v := range in {
			whole[k] = v
		}

		return whole, true
	}

	value, ok := in[field]

	return value, ok
}

func equalValues(claim, want interface{}, valueType string) bool {
	switch valueType {
	case "number":
		a, okA := toFloat(claim)
		b, okB := toFloat(want)

		return okA && okB && a == b
	case "boolean":
		a, okA := claim.(bool)
		b, okB := want.(bool)

		return okA && okB && a == b
	default:
		return stringify(claim) == stringify(want)
	}
}

func containsValue(claim, want interface{}) bool {
	switch v := claim.(type) {
	case string:
		return strings.Contains(v, stringify(want))
	case []interface{}:
		for _, item := range v {
			if stringify(item) == stringify(want) {
				return true
			}
		}

		return false
	case []string:
		for _, item := range v {
			if item == stringify(want) {
				return true
			}
		}

		return false
	default:
		return false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)

		return f, err == nil
	default:
		return 0, false
	}
}

func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprintf("%v", v)
}
