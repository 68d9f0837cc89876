// Package voice turns speech transcripts into workout commands: a pure,
// context-gated parser and a dispatcher that owns the recognizer lifecycle.
package voice

import (
	"strconv"
	"strings"
)

// Context names the input surface currently on screen. It restricts which
// commands a transcript may resolve to.
type Context string

const (
	ContextRepCounter     Context = "repCounter"
	ContextTimedHold      Context = "timedHold"
	ContextRest           Context = "rest"
	ContextGuidedMovement Context = "guidedMovement"
)

// CommandType is the kind of a parsed command
type CommandType string

const (
	CommandNumber CommandType = "number"
	CommandDone   CommandType = "done"
	CommandUndo   CommandType = "undo"
	CommandReady  CommandType = "ready"
	CommandStop   CommandType = "stop"
	CommandSkip   CommandType = "skip"
	CommandExtend CommandType = "extend"
)

// ParsedCommand is the result of a successful parse. Value is only set for numbers.
type ParsedCommand struct {
	Type          CommandType
	Value         int
	Confidence    float64
	RawTranscript string
}

const (
	exactConfidence   = 1.0
	partialConfidence = 0.8
	maxSpokenNumber   = 20
)

var contextCommands = map[Context][]CommandType{
	ContextRepCounter:     {CommandNumber, CommandDone, CommandUndo},
	ContextTimedHold:      {CommandReady, CommandStop},
	ContextRest:           {CommandSkip, CommandExtend},
	ContextGuidedMovement: {CommandNumber, CommandDone, CommandSkip, CommandReady},
}

var commandAliases = map[CommandType][]string{
	CommandDone:   {"done", "finished", "complete", "finish"},
	CommandUndo:   {"undo", "minus one", "minus", "back", "oops"},
	CommandReady:  {"ready", "start", "go", "begin"},
	CommandStop:   {"stop", "cancel", "abort", "quit"},
	CommandSkip:   {"skip", "next"},
	CommandExtend: {"more time", "extend", "wait", "more"},
}

// numberWords includes the words recognizers commonly produce in place of a
// spoken number.
var numberWords = map[string]int{
	"one":       1,
	"won":       1,
	"two":       2,
	"to":        2,
	"too":       2,
	"three":     3,
	"free":      3,
	"tree":      3,
	"four":      4,
	"for":       4,
	"fore":      4,
	"five":      5,
	"six":       6,
	"sex":       6,
	"seven":     7,
	"eight":     8,
	"ate":       8,
	"nine":      9,
	"ten":       10,
	"eleven":    11,
	"twelve":    12,
	"thirteen":  13,
	"fourteen":  14,
	"fifteen":   15,
	"sixteen":   16,
	"seventeen": 17,
	"eighteen":  18,
	"nineteen":  19,
	"twenty":    20,
}

func init() {
	for n := 1; n <= maxSpokenNumber; n++ {
		numberWords[strconv.Itoa(n)] = n
	}
}

// ValidCommands returns the commands accepted in ctx, in matching order.
func ValidCommands(ctx Context) []CommandType {
	commands := contextCommands[ctx]
	out := make([]CommandType, len(commands))
	copy(out, commands)
	return out
}

// Accepts reports whether ctx accepts command type c
func (ctx Context) Accepts(c CommandType) bool {
	for _, valid := range contextCommands[ctx] {
		if valid == c {
			return true
		}
	}
	return false
}

// ParseTranscript maps an utterance to a command valid in ctx, or nil.
func ParseTranscript(transcript string, ctx Context) *ParsedCommand {
	normalized := strings.ToLower(strings.TrimSpace(transcript))
	if normalized == "" {
		return nil
	}

	for _, commandType := range contextCommands[ctx] {
		if commandType == CommandNumber {
			if value, exact, ok := parseNumber(normalized); ok {
				return &ParsedCommand{
					Type:          CommandNumber,
					Value:         value,
					Confidence:    confidenceFor(exact),
					RawTranscript: transcript,
				}
			}
			continue
		}
		if exact, ok := matchAlias(normalized, commandAliases[commandType]); ok {
			return &ParsedCommand{
				Type:          commandType,
				Confidence:    confidenceFor(exact),
				RawTranscript: transcript,
			}
		}
	}
	return nil
}

func parseNumber(normalized string) (value int, exact bool, ok bool) {
	for _, token := range strings.Fields(normalized) {
		if n, found := numberWords[token]; found {
			return n, token == normalized, true
		}
	}
	n, err := strconv.Atoi(normalized)
	if err == nil && n >= 1 && n <= maxSpokenNumber {
		return n, true, true
	}
	return 0, false, false
}

func matchAlias(normalized string, aliases []string) (exact bool, ok bool) {
	for _, alias := range aliases {
		if normalized == alias {
			return true, true
		}
		if strings.Contains(normalized, alias) {
			return false, true
		}
	}
	return false, false
}

func confidenceFor(exact bool) float64 {
	if exact {
		return exactConfidence
	}
	return partialConfidence
}
