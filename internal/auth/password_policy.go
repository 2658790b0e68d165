package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultMinPasswordLength = 8
	DefaultMaxPasswordLength = 128
	// DefaultMatchTimeout bounds every pattern check against a single password.
	DefaultMatchTimeout = 50 * time.Millisecond
)

// SpecialCharacters is the set a password must draw at least one character from.
const SpecialCharacters = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?`~"

// ErrWeakPassword matches every *WeakPasswordError.
var ErrWeakPassword = errors.New("weak password")

const (
	reasonRequired  = "Password is required"
	reasonUppercase = "Password must contain at least one uppercase letter"
	reasonLowercase = "Password must contain at least one lowercase letter"
	reasonDigit     = "Password must contain at least one digit"
	reasonSpecial   = "Password must contain at least one special character"
	reasonUnchecked = "Password could not be validated"
)

var (
	uppercasePattern = regexp.MustCompile(`[A-Z]`)
	lowercasePattern = regexp.MustCompile(`[a-z]`)
	digitPattern     = regexp.MustCompile(`[0-9]`)
	specialPattern   = regexp.MustCompile(literalClass(SpecialCharacters))
)

// literalClass builds a character class matching exactly the runes of set.
// Every rune is escaped so '-' is never read as a range.
func literalClass(set string) string {
	var b strings.Builder
	b.WriteByte('[')
	for _, r := range set {
		b.WriteByte('\\')
		b.WriteRune(r)
	}
	b.WriteByte(']')
	return b.String()
}

// WeakPasswordError lists every rule a password violated.
type WeakPasswordError struct {
	Reasons []string
}

func (e *WeakPasswordError) Error() string {
	return "weak password: " + strings.Join(e.Reasons, "; ")
}

func (e *WeakPasswordError) Is(target error) bool {
	return target == ErrWeakPassword
}

// PasswordPolicy validates password strength. The zero value is not usable;
// construct it with NewPasswordPolicy.
type PasswordPolicy struct {
	MinLength    int
	MaxLength    int
	MatchTimeout time.Duration

	// match runs a single pattern; nil means re.MatchString.
	match func(re *regexp.Regexp, s string) bool
}

func NewPasswordPolicy() *PasswordPolicy {
	return &PasswordPolicy{
		MinLength:    DefaultMinPasswordLength,
		MaxLength:    DefaultMaxPasswordLength,
		MatchTimeout: DefaultMatchTimeout,
	}
}

// Validate returns nil or a *WeakPasswordError carrying all violated rules.
func (p *PasswordPolicy) Validate(password string) error {
	if ok, reasons := p.IsValid(password); !ok {
		return &WeakPasswordError{Reasons: reasons}
	}
	return nil
}

// IsValid checks every rule independently. An empty or whitespace-only
// password reports only that a password is required. A character check that
// exceeds MatchTimeout fails the password with "Password could not be validated"
// instead of the rule's own message.
func (p *PasswordPolicy) IsValid(password string) (bool, []string) {
	if strings.TrimSpace(password) == "" {
		return false, []string{reasonRequired}
	}

	var reasons []string
	length := utf8.RuneCountInString(password)
	if length < p.MinLength {
		reasons = append(reasons, fmt.Sprintf("Password must be at least %d characters long", p.MinLength))
	}
	if length > p.MaxLength {
		reasons = append(reasons, fmt.Sprintf("Password must not exceed %d characters", p.MaxLength))
	}
	timedOut := false
	for _, rule := range characterRules {
		matched, finished := p.matches(rule.pattern, password)
		switch {
		case !finished:
			timedOut = true
		case !matched:
			reasons = append(reasons, rule.reason)
		}
	}
	if timedOut {
		reasons = append(reasons, reasonUnchecked)
	}
	return len(reasons) == 0, reasons
}

var characterRules = []struct {
	pattern *regexp.Regexp
	reason  string
}{
	{uppercasePattern, reasonUppercase},
	{lowercasePattern, reasonLowercase},
	{digitPattern, reasonDigit},
	{specialPattern, reasonSpecial},
}

// matches reports finished=false when the check does not complete within MatchTimeout.
func (p *PasswordPolicy) matches(re *regexp.Regexp, s string) (matched, finished bool) {
	timeout := p.MatchTimeout
	if timeout <= 0 {
		timeout = DefaultMatchTimeout
	}
	match := p.match
	if match == nil {
		match = (*regexp.Regexp).MatchString
	}

	done := make(chan bool, 1)
	go func() {
		done <- match(re, s)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ok := <-done:
		return ok, true
	case <-timer.C:
		return false, false
	}
}
