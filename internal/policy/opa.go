package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/storage/inmem"
	"github.com/open-policy-agent/opa/v1/topdown"

	"github.com/tkingovr/noisegate/api"
)

// OPAEngine overrides response decisions with an embedded Rego policy.
// Requests the policy leaves undecided get the built-in decision.
type OPAEngine struct {
	mu   sync.RWMutex
	path string

	query rego.PreparedEvalQuery
}

// NewOPAEngine creates a new OPA engine from a .rego policy file.
func NewOPAEngine(path string) (*OPAEngine, error) {
	e := &OPAEngine{path: path}
	if err := e.Reload(context.Background()); err != nil {
		return nil, err
	}
	return e, nil
}

// NewOPAEngineFromSource creates a new OPA engine from raw Rego source.
func NewOPAEngineFromSource(source string) (*OPAEngine, error) {
	e := &OPAEngine{}
	if err := e.loadSource(source); err != nil {
		return nil, err
	}
	return e, nil
}

// Decide runs the Rego policy against the given input.
//
// The policy lives in package noisegate and may define:
//
//	action: "pass" | "short_circuit"   (unset defers to the built-in table)
//	status: number                    (204, or 307 with redirect_to)
//	body: string
//	content_type: string
//	redirect_to: string               (requires a 3xx status)
//
// Input available to the policy:
//
//	input.entrypoint, input.category, input.method,
//	input.path, input.host, input.scheme
func (e *OPAEngine) Decide(ctx context.Context, input *EvalInput) (*api.Decision, error) {
	e.mu.RLock()
	query := e.query
	e.mu.RUnlock()

	inputMap := map[string]any{
		"entrypoint": string(input.Entrypoint),
		"category":   string(input.Category),
		"method":     input.Method,
		"path":       input.Path,
		"host":       input.Host,
		"scheme":     input.Scheme,
	}

	rs, err := query.Eval(ctx, rego.EvalInput(inputMap))
	if err != nil {
		if topdown.IsError(err) {
			return nil, fmt.Errorf("rego evaluation error: %w", err)
		}
		return nil, fmt.Errorf("OPA evaluation failed: %w", err)
	}

	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return Decide(input), nil
	}

	resultMap, ok := rs[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected OPA result type %T", rs[0].Expressions[0].Value)
	}

	return parseOPAResult(resultMap, input)
}

// Reload re-reads the Rego policy file from disk and recompiles.
func (e *OPAEngine) Reload(_ context.Context) error {
	if e.path == "" {
		return nil
	}
	data, err := os.ReadFile(e.path)
	if err != nil {
		return fmt.Errorf("reading OPA policy file: %w", err)
	}
	return e.loadSource(string(data))
}

// Path returns the policy file the engine reloads from.
func (e *OPAEngine) Path() string { return e.path }

func (e *OPAEngine) loadSource(source string) error {
	_, err := ast.ParseModuleWithOpts("policy.rego", source, ast.ParserOptions{RegoVersion: ast.RegoV1})
	if err != nil {
		return fmt.Errorf("parsing Rego policy: %w", err)
	}

	r := rego.New(
		rego.Query("data.noisegate"),
		rego.Module("policy.rego", source),
		rego.Store(inmem.New()),
	)

	query, err := r.PrepareForEval(context.Background())
	if err != nil {
		return fmt.Errorf("preparing OPA query: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.query = query

	return nil
}

func parseOPAResult(m map[string]any, input *EvalInput) (*api.Decision, error) {
	action, _ := m["action"].(string)
	switch api.Action(action) {
	case api.ActionPass:
		d := api.Pass()
		d.Source = SourceRego
		return d, nil
	case api.ActionShortCircuit:
	case "":
		return Decide(input), nil
	default:
		return nil, fmt.Errorf("rego policy returned unknown action %q", action)
	}

	d := &api.Decision{Action: api.ActionShortCircuit, Source: SourceRego}
	if s, ok := m["redirect_to"].(string); ok {
		d.RedirectTo = s
	}

	status, err := toInt(m["status"])
	if err != nil {
		return nil, fmt.Errorf("rego policy status: %w", err)
	}
	if status == 0 {
		status = http.StatusNoContent
		if d.RedirectTo != "" {
			status = http.StatusTemporaryRedirect
		}
	}
	if status < 100 || status > 599 {
		return nil, fmt.Errorf("rego policy returned invalid status %d", status)
	}
	// A Location header is only meaningful on a 3xx response.
	if d.RedirectTo != "" && (status < 300 || status > 399) {
		return nil, fmt.Errorf("rego policy returned redirect_to with non-redirect status %d", status)
	}
	d.Status = status

	if s, ok := m["body"].(string); ok {
		d.Body = s
	}
	if s, ok := m["content_type"].(string); ok {
		d.ContentType = s
	}
	return d, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
