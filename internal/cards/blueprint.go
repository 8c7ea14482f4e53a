package cards

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pinnlo/pinnlo-server/internal/models"
)

type FieldKind int

const (
	FieldText FieldKind = iota
	FieldList
)

func (k FieldKind) String() string {
	if k == FieldList {
		return "list"
	}
	return "text"
}

type Field struct {
	Name string
	Kind FieldKind
}

// Blueprint names the card_data fields a card type is expected to carry.
// An open blueprint has no declared fields and accepts any text or list value.
type Blueprint struct {
	Type   string
	Bank   models.Bank
	Fields []Field
}

func (b Blueprint) Open() bool { return len(b.Fields) == 0 }

func (b Blueprint) Field(name string) (Field, bool) {
	for _, f := range b.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func text(name string) Field { return Field{Name: name, Kind: FieldText} }
func list(name string) Field { return Field{Name: name, Kind: FieldList} }

var blueprints = map[string]Blueprint{}

func register(bp Blueprint) { blueprints[bp.Type] = bp }

func init() {
	register(Blueprint{Type: "strategic-context", Bank: models.BankStrategy, Fields: []Field{
		text("marketContext"), text("competitiveLandscape"), list("keyTrends"), list("stakeholders"), text("timeframe"),
	}})
	register(Blueprint{Type: "vision", Bank: models.BankStrategy, Fields: []Field{
		text("visionStatement"), text("timeHorizon"), list("successIndicators"), list("guidingPrinciples"),
	}})
	register(Blueprint{Type: "value-proposition", Bank: models.BankStrategy, Fields: []Field{
		text("customerSegment"), text("problemSolved"), text("gainCreated"), list("alternativeSolutions"), text("differentiator"),
	}})
	register(Blueprint{Type: "personas", Bank: models.BankStrategy, Fields: []Field{
		text("demographics"), list("goals"), list("painPoints"), list("behaviours"), text("quote"),
	}})
	register(Blueprint{Type: "okrs", Bank: models.BankStrategy, Fields: []Field{
		text("objective"), list("keyResults"), text("owner"), text("quarter"),
	}})
	for _, t := range []string{"market", "competitor", "trends", "technology", "stakeholder", "consumer", "risk", "opportunities"} {
		register(Blueprint{Type: t, Bank: models.BankIntelligence, Fields: []Field{
			text("summary"), text("intelligenceContent"), list("keyFindings"), text("sourceReference"),
			text("strategicImplications"), text("recommendedActions"),
		}})
	}
	register(Blueprint{Type: "feature", Bank: models.BankDevelopment, Fields: []Field{
		text("featureDescription"), list("userStories"), list("acceptanceCriteria"), list("dependencies"),
	}})
	register(Blueprint{Type: "tech-stack", Bank: models.BankDevelopment, Fields: []Field{
		text("architecture"), list("languages"), list("frameworks"), list("infrastructure"),
	}})
	register(Blueprint{Type: "team", Bank: models.BankOrganisation, Fields: []Field{
		text("mission"), list("responsibilities"), list("members"),
	}})
	register(Blueprint{Type: "person", Bank: models.BankOrganisation, Fields: []Field{
		text("role"), list("skills"), list("responsibilities"),
	}})
}

// LookupBlueprint returns the blueprint for cardType and whether it is registered.
// Unregistered types get an open blueprint.
func LookupBlueprint(cardType string) (Blueprint, bool) {
	bp, ok := blueprints[cardType]
	if !ok {
		return Blueprint{Type: cardType}, false
	}
	return bp, true
}

// BlueprintTypes lists registered card types, sorted.
func BlueprintTypes() []string {
	out := make([]string, 0, len(blueprints))
	for t := range blueprints {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

type DataError struct {
	Field string
	Want  FieldKind
}

func (e *DataError) Error() string {
	return fmt.Sprintf("card_data field %q must be a %s", e.Field, e.Want)
}

// CardData is a decoded card_data payload. Text and list values are typed;
// anything else is kept verbatim in Extra so a round trip loses nothing.
type CardData struct {
	Blueprint Blueprint
	Text      map[string]string
	Lists     map[string][]string
	Extra     map[string]json.RawMessage
}

func NewCardData(bp Blueprint) *CardData {
	return &CardData{
		Blueprint: bp,
		Text:      map[string]string{},
		Lists:     map[string][]string{},
		Extra:     map[string]json.RawMessage{},
	}
}

// DecodeCardData parses raw against the blueprint of cardType. Declared fields
// must hold a string (text) or an array of strings (list); null counts as empty.
func DecodeCardData(cardType string, raw []byte) (*CardData, error) {
	bp, _ := LookupBlueprint(cardType)
	data := NewCardData(bp)

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return data, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("card_data must be a JSON object: %w", err)
	}

	for name, value := range fields {
		field, declared := bp.Field(name)
		s, isString := decodeString(value)
		l, isList := decodeStringList(value)
		isNull := bytes.Equal(bytes.TrimSpace(value), []byte("null"))

		switch {
		case declared && field.Kind == FieldText:
			if !isString && !isNull {
				return nil, &DataError{Field: name, Want: FieldText}
			}
			data.Text[name] = s
		case declared && field.Kind == FieldList:
			if !isList && !isNull {
				return nil, &DataError{Field: name, Want: FieldList}
			}
			data.Lists[name] = l
		case isString:
			data.Text[name] = s
		case isList:
			data.Lists[name] = l
		default:
			data.Extra[name] = value
		}
	}
	return data, nil
}

func decodeString(raw json.RawMessage) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.TrimSpace(raw)[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func decodeStringList(raw json.RawMessage) ([]string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.TrimSpace(raw)[0] != '[' {
		return nil, false
	}
	var l []string
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, false
	}
	if l == nil {
		l = []string{}
	}
	return l, true
}

// Map flattens the payload back into a single object.
func (d *CardData) Map() map[string]any {
	out := make(map[string]any, len(d.Text)+len(d.Lists)+len(d.Extra))
	for k, v := range d.Extra {
		out[k] = v
	}
	for k, v := range d.Text {
		out[k] = v
	}
	for k, v := range d.Lists {
		out[k] = v
	}
	return out
}

func (d *CardData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Map())
}

// SetText stores a text value, dropping any list under the same name.
func (d *CardData) SetText(name, value string) {
	delete(d.Lists, name)
	delete(d.Extra, name)
	d.Text[name] = value
}

// SetList stores a list value, dropping any text under the same name.
func (d *CardData) SetList(name string, value []string) {
	delete(d.Text, name)
	delete(d.Extra, name)
	d.Lists[name] = value
}
