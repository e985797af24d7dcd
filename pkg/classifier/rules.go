package classifier

import (
	"fmt"
	"os"
	"sync"

	"github.com/dop251/goja"

	"github.com/abharathkumarr/insect-id-runner/pkg/core"
)

// RuleEngine evaluates user-supplied JavaScript classification rules.
// The script must define a classify(result, expected) function that
// returns either null (fall through to the built-in rules) or an
// object with category, reason and appSpecies fields.
type RuleEngine struct {
	runtime *goja.Runtime
	mu      sync.Mutex
}

// LoadRules reads and compiles a rule script from disk.
func LoadRules(path string) (*RuleEngine, error) {
	script, err := os.ReadFile(path) //#nosec G304 -- user-provided rule file
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}
	return NewRuleEngine(string(script))
}

// NewRuleEngine compiles a rule script.
func NewRuleEngine(script string) (*RuleEngine, error) {
	e := &RuleEngine{runtime: goja.New()}
	e.setupConsole()

	if _, err := e.runtime.RunString(script); err != nil {
		return nil, fmt.Errorf("compile rules: %w", err)
	}

	fn := e.runtime.Get("classify")
	if fn == nil || goja.IsUndefined(fn) {
		return nil, fmt.Errorf("rule script does not define classify(result, expected)")
	}
	if _, ok := goja.AssertFunction(fn); !ok {
		return nil, fmt.Errorf("classify is not a function")
	}

	return e, nil
}

func (e *RuleEngine) setupConsole() {
	logFunc := func(call goja.FunctionCall) goja.Value {
		args := make([]interface{}, len(call.Arguments))
		for i, arg := range call.Arguments {
			args[i] = arg.Export()
		}
		fmt.Fprintln(os.Stderr, args...)
		return goja.Undefined()
	}

	console := e.runtime.NewObject()
	console.Set("log", logFunc)
	console.Set("error", logFunc)
	e.runtime.Set("console", console)
}

// Match runs the rule script against a scraped result. A null or
// undefined return means the rules decline and the built-in logic
// applies. Script errors also decline rather than failing the case.
func (e *RuleEngine) Match(result core.ScrapedResult, expected string) (core.Classification, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	classify, _ := goja.AssertFunction(e.runtime.Get("classify"))

	input := map[string]interface{}{
		"species":  result.Species,
		"fullText": result.FullText,
		"status":   string(result.Status),
	}
	if result.Confidence != nil {
		input["confidence"] = *result.Confidence
	}

	value, err := classify(goja.Undefined(), e.runtime.ToValue(input), e.runtime.ToValue(expected))
	if err != nil {
		return core.Classification{}, false
	}
	if value == nil || goja.IsNull(value) || goja.IsUndefined(value) {
		return core.Classification{}, false
	}

	exported, ok := value.Export().(map[string]interface{})
	if !ok {
		return core.Classification{}, false
	}

	categoryStr, _ := exported["category"].(string)
	category, err := core.ParseCategory(categoryStr)
	if err != nil {
		return core.Classification{}, false
	}

	cls := core.Classification{
		Category:        category,
		ExpectedSpecies: expected,
		Confidence:      result.Confidence,
	}
	if reason, ok := exported["reason"].(string); ok {
		cls.Reason = reason
	}
	if appSpecies, ok := exported["appSpecies"].(string); ok {
		cls.AppSpecies = appSpecies
	}
	if conf, ok := exported["confidence"].(int64); ok {
		v := int(conf)
		cls.Confidence = &v
	}

	return cls, true
}
