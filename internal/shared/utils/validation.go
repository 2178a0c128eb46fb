package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/types"
)

// Size limits in bytes.
const (
	MaxParamsSize  = 1 << 20
	MaxContextSize = 64 << 10
	MaxMessageSize = 16 << 10
	MaxURLLength   = 8 << 10
)

// Length limits in runes.
const (
	MaxIDLength       = 128
	MaxCategoryLength = 64
	MaxReasonLength   = 64
	MaxTierLength     = 64
	MaxParamsDepth    = 20
)

var (
	idPattern       = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	toolIDPattern   = regexp.MustCompile(`^[a-zA-Z0-9_-]+(\.[a-zA-Z0-9_-]+)+$`)
	categoryPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
	reasonPattern   = regexp.MustCompile(`^[a-z0-9][a-z0-9:_-]*$`)
)

// FieldError names the input field that failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + " " + e.Reason
}

func fieldErr(field, format string, args ...interface{}) error {
	return &FieldError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ValidateString checks presence, rune length and NUL bytes.
func ValidateString(value, field string, minLen, maxLen int, required bool) error {
	if value == "" {
		if required {
			return fieldErr(field, "is required")
		}
		return nil
	}
	n := utf8.RuneCountInString(value)
	if n < minLen {
		return fieldErr(field, "must be at least %d characters", minLen)
	}
	if n > maxLen {
		return fieldErr(field, "must not exceed %d characters", maxLen)
	}
	if strings.IndexByte(value, 0) >= 0 {
		return fieldErr(field, "contains invalid characters")
	}
	return nil
}

func validatePattern(value, field string, maxLen int, required bool, re *regexp.Regexp, want string) error {
	if err := ValidateString(value, field, 1, maxLen, required); err != nil {
		return err
	}
	if value != "" && !re.MatchString(value) {
		return fieldErr(field, "must be %s", want)
	}
	return nil
}

// ValidateID checks task, session, view and container ids.
func ValidateID(id, field string, required bool) error {
	return validatePattern(id, field, MaxIDLength, required, idPattern, "alphanumeric, hyphens or underscores")
}

// ValidateToolID checks a "service.tool" id.
func ValidateToolID(id, field string, required bool) error {
	return validatePattern(id, field, MaxIDLength, required, toolIDPattern, "of the form service.tool")
}

// ValidateCategory checks a service category filter.
func ValidateCategory(category string, required bool) error {
	return validatePattern(category, "category", MaxCategoryLength, required, categoryPattern, "lowercase letters, digits or hyphens")
}

// ValidateReason checks a visibility hide reason such as "modal:confirm".
func ValidateReason(reason string) error {
	return validatePattern(reason, "reason", MaxReasonLength, true, reasonPattern, "lowercase, starting with a letter or digit")
}

// ValidateURL bounds a raw navigation target. Parsing and scheme handling
// happen in navigation.
func ValidateURL(url string) error {
	if err := ValidateString(url, "url", 1, MaxURLLength, true); err != nil {
		return err
	}
	if strings.IndexFunc(url, unicode.IsControl) >= 0 {
		return fieldErr("url", "contains control characters")
	}
	return nil
}

// ValidateMessage checks a chat message.
func ValidateMessage(message string) error {
	if err := ValidateString(message, "message", 1, MaxMessageSize, true); err != nil {
		return err
	}
	if strings.TrimSpace(message) == "" {
		return fieldErr("message", "is blank")
	}
	spaces := 0
	for _, r := range message {
		if unicode.IsSpace(r) {
			spaces++
		}
	}
	if spaces > len(message)/2 {
		return fieldErr("message", "contains excessive whitespace")
	}
	return nil
}

// ValidateContext bounds the encoded size of a chat context map.
func ValidateContext(ctx map[string]string) error {
	return validateStringMap("context", ctx)
}

func validateStringMap(field string, m map[string]string) error {
	if len(m) == 0 {
		return nil
	}
	data, err := sonic.Marshal(m)
	if err != nil {
		return fieldErr(field, "is not encodable: %v", err)
	}
	if len(data) > MaxContextSize {
		return fieldErr(field, "exceeds %d bytes", MaxContextSize)
	}
	return nil
}

// ValidateParams bounds the encoded size and nesting of tool parameters.
func ValidateParams(params map[string]interface{}) error {
	data, err := sonic.Marshal(params)
	if err != nil {
		return fieldErr("params", "is not encodable: %v", err)
	}
	if len(data) > MaxParamsSize {
		return fieldErr("params", "exceeds %d bytes", MaxParamsSize)
	}
	if depth(params, 0) > MaxParamsDepth {
		return fieldErr("params", "nesting exceeds depth %d", MaxParamsDepth)
	}
	return nil
}

func depth(v interface{}, d int) int {
	max := d
	switch t := v.(type) {
	case map[string]interface{}:
		for _, child := range t {
			if n := depth(child, d+1); n > max {
				max = n
			}
		}
	case []interface{}:
		for _, child := range t {
			if n := depth(child, d+1); n > max {
				max = n
			}
		}
	}
	return max
}

// ValidateAgentConfig checks a full agent configuration.
func ValidateAgentConfig(cfg types.AgentConfig) error {
	return validateConfigFields(&cfg.ModelTier, &cfg.ThreadID, cfg.Provider)
}

// ValidateConfigPatch checks the fields a patch sets.
func ValidateConfigPatch(patch types.AgentConfigPatch) error {
	return validateConfigFields(patch.ModelTier, patch.ThreadID, patch.Provider)
}

func validateConfigFields(tier, thread *string, provider map[string]string) error {
	if tier != nil {
		if err := ValidateString(*tier, "model_tier", 1, MaxTierLength, false); err != nil {
			return err
		}
	}
	if thread != nil {
		if err := ValidateID(*thread, "thread_id", false); err != nil {
			return err
		}
	}
	return validateStringMap("provider", provider)
}
