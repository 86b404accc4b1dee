package policyopa

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/open-policy-agent/opa/ast"
)

// forbiddenBuiltins keeps decisions pure: no network, clocks or randomness.
var forbiddenBuiltins = map[string]struct{}{
	"http.send":            {},
	"io.jwt.decode_verify": {},
	"net.lookup_ip_addr":   {},
	"opa.runtime":          {},
	"rand.intn":            {},
	"time.now_ns":          {},
	"trace":                {},
	"uuid.rfc4122":         {},
}

func assertNoForbiddenBuiltins(compiler *ast.Compiler) error {
	if compiler == nil {
		return errors.New("policy compiler is nil")
	}
	found := make(map[string]struct{})
	for _, module := range compiler.Modules {
		ast.WalkTerms(module, func(term *ast.Term) bool {
			call, ok := term.Value.(ast.Call)
			if !ok || len(call) == 0 || call[0] == nil {
				return false
			}
			name := call[0].Value.String()
			if _, ok := forbiddenBuiltins[name]; ok {
				found[name] = struct{}{}
			}
			return false
		})
	}
	if len(found) == 0 {
		return nil
	}
	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Errorf("forbidden builtins: %s", strings.Join(names, ", "))
}
