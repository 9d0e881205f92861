package config

// patterns.go holds the language-tuned tables driving the dialogue core: the
// entity-extraction patterns, the phrase sets of the dialogue-state decision
// table, and the fixed Turkish response templates. The compiled-in defaults
// match the production phrasing; a YAML file can override any subset of them.

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Patterns drives entity extraction and dialogue-state classification.
// All phrase matching is case-insensitive substring matching; the two regex
// fields are compiled by the extract package.
type Patterns struct {
	// OrderNumber matches an order identifier ("ORD-8841" or a bare run of
	// three or more digits). First match wins.
	OrderNumber string `yaml:"order_number"`

	// ReasonMarker matches an explicit reason prefix; the first capture group
	// is the reason text running to the end of the message.
	ReasonMarker string `yaml:"reason_marker"`

	// ReasonKeywords are phrases that count as a cancellation reason on their
	// own; the matched phrase itself becomes the reason.
	ReasonKeywords []string `yaml:"reason_keywords"`

	// OrderWords disqualify a short message from the whole-message reason
	// fallback (a message about the order number is not a reason).
	OrderWords []string `yaml:"order_words"`

	// ShortReasonMaxWords is the token ceiling for the whole-message reason
	// fallback.
	ShortReasonMaxWords int `yaml:"short_reason_max_words"`

	// RejectWords invalidate a reason recovered from history: greetings and
	// cancellation triggers are false positives of the short-message fallback.
	RejectWords []string `yaml:"reject_words"`

	// OrderRequestPhrases / ReasonRequestPhrases / ProcessPhrases form the
	// awaiting-details decision table: the last assistant turn must contain an
	// order-request phrase AND (a reason phrase OR a process phrase).
	OrderRequestPhrases  []string `yaml:"order_request_phrases"`
	ReasonRequestPhrases []string `yaml:"reason_request_phrases"`
	ProcessPhrases       []string `yaml:"process_phrases"`

	// SuccessMarkers short-circuit the decision table: once the last assistant
	// turn reports a completed cancellation, the flow is over.
	SuccessMarkers []string `yaml:"success_markers"`

	// CancelIntentWords trigger the proactive cancellation offer appended to
	// retrieval answers.
	CancelIntentWords []string `yaml:"cancel_intent_words"`
}

// Replies are the fixed user-facing response templates. Placeholders are
// fmt verbs; each template documents its argument order.
type Replies struct {
	// CancelSuccess: order number, reason.
	CancelSuccess string `yaml:"cancel_success"`
	// CancelFailure: HTTP status, response body.
	CancelFailure string `yaml:"cancel_failure"`
	// CancelError: transport error text.
	CancelError string `yaml:"cancel_error"`
	// Clarify: the missing piece(s), already joined.
	Clarify string `yaml:"clarify"`
	// MissingOrder / MissingReason name the pieces inserted into Clarify;
	// MissingSeparator joins them when both are absent.
	MissingOrder     string `yaml:"missing_order"`
	MissingReason    string `yaml:"missing_reason"`
	MissingSeparator string `yaml:"missing_separator"`
	// EmptyKnowledgeBase is returned when retrieval yields no usable passages.
	EmptyKnowledgeBase string `yaml:"empty_knowledge_base"`
	// RetrievalUnavailable is returned when the retrieval backend errors.
	RetrievalUnavailable string `yaml:"retrieval_unavailable"`
	// ProactiveOffer is appended to retrieval answers on cancel/return intent.
	ProactiveOffer string `yaml:"proactive_offer"`
}

// Tables bundles the pattern tables and reply templates.
type Tables struct {
	Patterns Patterns `yaml:"patterns"`
	Replies  Replies  `yaml:"replies"`
}

// DefaultTables returns the compiled-in Turkish tables.
func DefaultTables() Tables {
	return Tables{
		Patterns: Patterns{
			OrderNumber:  `(?i)(ORD-?\d+|\b\d{3,}\b)`,
			ReasonMarker: `(?i)sebep[:\-]?\s*(.*)`,
			ReasonKeywords: []string{
				"hasarlı", "bozuk", "iade", "yanlış", "defolu",
				"beğenmedim", "uygun değil", "fikrim değişti",
				"fikir değiştirdim", "istemiyorum", "artık gerek yok",
				"kalitesiz", "kötü", "iyi değil",
			},
			OrderWords:          []string{"sipariş", "numara", "order", "number"},
			ShortReasonMaxWords: 3,
			RejectWords: []string{
				"iptal", "merhaba", "selam", "hello", "hi",
				"iyi günler", "günaydın",
			},
			OrderRequestPhrases:  []string{"sipariş numaranız", "sipariş numarasını", "sipariş"},
			ReasonRequestPhrases: []string{"iptal nedenini", "sebep", "nedeni"},
			ProcessPhrases:       []string{"iptal işlemi", "işlemi", "iptal"},
			SuccessMarkers:       []string{"başarıyla iptal edildi", "✅"},
			CancelIntentWords:    []string{"iptal", "iade"},
		},
		Replies: Replies{
			CancelSuccess:    "✅ Sipariş %s başarıyla iptal edildi. Sebep: %s",
			CancelFailure:    "❌ Sipariş iptal edilemedi. Status: %d, Response: %s",
			CancelError:      "❌ Sipariş iptalinde hata: %s",
			Clarify:          "İptal işlemi için %s bilgisini paylaşır mısınız?",
			MissingOrder:     "sipariş numarası",
			MissingReason:    "sebep",
			MissingSeparator: " ve ",
			EmptyKnowledgeBase: "⚠️ Üzgünüm, şu anda sistem bilgi bankasında veri bulunmuyor. " +
				"Lütfen daha sonra tekrar deneyin veya müşteri hizmetleri ile iletişime geçin.",
			RetrievalUnavailable: "⚠️ Üzgünüm, şu anda sistem veritabanına erişimde sorun yaşanıyor. " +
				"Lütfen daha sonra tekrar deneyin veya müşteri hizmetleri ile iletişime geçin.",
			ProactiveOffer: "\n\nEğer isterseniz buradan sipariş numaranızı ve iptal nedeninizi " +
				"paylaşırsanız, ben de iptal işleminizi gerçekleştirebilirim.",
		},
	}
}

// tablesSchema validates the YAML override file before it is applied. Every
// field is optional (overrides are partial) but must have the right shape.
const tablesSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "patterns": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "order_number": {"type": "string", "minLength": 1},
        "reason_marker": {"type": "string", "minLength": 1},
        "reason_keywords": {"type": "array", "items": {"type": "string", "minLength": 1}},
        "order_words": {"type": "array", "items": {"type": "string", "minLength": 1}},
        "short_reason_max_words": {"type": "integer", "minimum": 1},
        "reject_words": {"type": "array", "items": {"type": "string", "minLength": 1}},
        "order_request_phrases": {"type": "array", "items": {"type": "string", "minLength": 1}},
        "reason_request_phrases": {"type": "array", "items": {"type": "string", "minLength": 1}},
        "process_phrases": {"type": "array", "items": {"type": "string", "minLength": 1}},
        "success_markers": {"type": "array", "items": {"type": "string", "minLength": 1}},
        "cancel_intent_words": {"type": "array", "items": {"type": "string", "minLength": 1}}
      }
    },
    "replies": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "cancel_success": {"type": "string", "minLength": 1},
        "cancel_failure": {"type": "string", "minLength": 1},
        "cancel_error": {"type": "string", "minLength": 1},
        "clarify": {"type": "string", "minLength": 1},
        "missing_order": {"type": "string", "minLength": 1},
        "missing_reason": {"type": "string", "minLength": 1},
        "missing_separator": {"type": "string", "minLength": 1},
        "empty_knowledge_base": {"type": "string", "minLength": 1},
        "retrieval_unavailable": {"type": "string", "minLength": 1},
        "proactive_offer": {"type": "string", "minLength": 1}
      }
    }
  }
}`

// LoadTables returns the default tables, overlaid with the YAML file at path
// when path is non-empty. The file is validated against the embedded JSON
// Schema before it is applied, so a malformed override never half-replaces
// the live tables.
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read pattern tables: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Tables{}, fmt.Errorf("parse pattern tables: %w", err)
	}

	// The validator expects JSON-decoded values, so round-trip the YAML
	// document through encoding/json before validating.
	raw, err := json.Marshal(doc)
	if err != nil {
		return Tables{}, fmt.Errorf("encode pattern tables: %w", err)
	}
	var jsonDoc any
	if err := json.Unmarshal(raw, &jsonDoc); err != nil {
		return Tables{}, fmt.Errorf("decode pattern tables: %w", err)
	}

	schema, err := jsonschema.CompileString("tables.schema.json", tablesSchema)
	if err != nil {
		return Tables{}, fmt.Errorf("compile tables schema: %w", err)
	}
	if err := schema.Validate(jsonDoc); err != nil {
		return Tables{}, fmt.Errorf("invalid pattern tables %s: %w", path, err)
	}

	// Unmarshal over the defaults: absent fields keep their default values.
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return Tables{}, fmt.Errorf("apply pattern tables: %w", err)
	}
	return tables, nil
}

// ContainsAny reports whether the lowercased text contains any of the given
// phrases. It is the shared primitive behind the phrase-table checks.
func ContainsAny(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
