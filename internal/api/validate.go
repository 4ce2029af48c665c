package api

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"podcaster/internal/services"
)

// ValidateTopic trims topic and rejects empty or purely numeric input.
func ValidateTopic(topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", services.Wrap(services.ErrInvalidTopic, "api", "validate topic", "topic is empty", nil)
	}
	if isDigits(topic) {
		return "", services.Wrap(services.ErrInvalidTopic, "api", "validate topic",
			fmt.Sprintf("topic %q is numeric; enter words to search for", topic), nil)
	}
	return topic, nil
}

// ParseQueryID parses a decimal query id.
func ParseQueryID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if !isDigits(raw) {
		return 0, services.Wrap(services.ErrValidation, "api", "parse query id",
			fmt.Sprintf("query id %q must be numeric", raw), nil)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, "api", "parse query id",
			fmt.Sprintf("query id %q is out of range", raw), nil)
	}
	return id, nil
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
