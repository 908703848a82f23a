package value_objects

import (
	"errors"
	"strings"
)

var (
	ErrInvalidWorkMode      = errors.New("invalid work mode")
	ErrInvalidCognitiveLoad = errors.New("invalid cognitive load")
)

// WorkMode describes the kind of attention a task needs.
type WorkMode string

const (
	WorkModeDeepWork WorkMode = "deep-work"
	WorkModeAdmin    WorkMode = "admin"
	WorkModeReactive WorkMode = "reactive"
	WorkModeCreative WorkMode = "creative"
)

var workModes = map[string]WorkMode{
	"deep-work": WorkModeDeepWork,
	"deep":      WorkModeDeepWork,
	"admin":     WorkModeAdmin,
	"reactive":  WorkModeReactive,
	"creative":  WorkModeCreative,
}

// ParseWorkMode parses a work mode name. Empty input yields admin.
func ParseWorkMode(s string) (WorkMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return WorkModeAdmin, nil
	}
	mode, ok := workModes[s]
	if !ok {
		return "", ErrInvalidWorkMode
	}
	return mode, nil
}

// IsDeepWork reports whether the mode requires a protected focus block.
func (m WorkMode) IsDeepWork() bool { return m == WorkModeDeepWork }

func (m WorkMode) String() string { return string(m) }

// CognitiveLoad is how taxing a task is.
type CognitiveLoad string

const (
	CognitiveLoadLight    CognitiveLoad = "light"
	CognitiveLoadModerate CognitiveLoad = "moderate"
	CognitiveLoadHeavy    CognitiveLoad = "heavy"
)

// ParseCognitiveLoad parses a cognitive load name. Empty input yields moderate.
func ParseCognitiveLoad(s string) (CognitiveLoad, error) {
	switch CognitiveLoad(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return CognitiveLoadModerate, nil
	case CognitiveLoadLight:
		return CognitiveLoadLight, nil
	case CognitiveLoadModerate:
		return CognitiveLoadModerate, nil
	case CognitiveLoadHeavy:
		return CognitiveLoadHeavy, nil
	}
	return "", ErrInvalidCognitiveLoad
}

func (c CognitiveLoad) String() string { return string(c) }
