package operator

import (
	"fmt"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/helixlang/hlx/internal/value"
)

// dateLayout is the canonical textual representation every `@date`
// operator reads and produces: RFC 3339, the same layout
// encoding/json's time.Time marshaling uses, so a stored date round-
// trips cleanly through `@json.stringify`/`@json.parse`.
const dateLayout = time.RFC3339

// registerDateOps registers `@date.now/add/format`. `now` reads from
// ctx.Clock rather than time.Now() directly so evaluation stays
// deterministic under a FrozenClock, per spec.md §8's determinism
// property.
func registerDateOps(r *Registry) {
	r.Register("date.now", func(ctx *Context, positional []cty.Value, named map[string]cty.Value) (cty.Value, error) {
		return value.String(ctx.Clock.Now().UTC().Format(dateLayout)), nil
	})

	r.Register("date.add", func(ctx *Context, positional []cty.Value, named map[string]cty.Value) (cty.Value, error) {
		if len(positional) < 2 {
			return cty.NilVal, fmt.Errorf("requires a date and a duration")
		}
		t, err := time.Parse(dateLayout, value.ToString(positional[0]))
		if err != nil {
			return cty.NilVal, fmt.Errorf("not a valid RFC3339 date: %w", err)
		}
		ms, ok := value.AsDuration(positional[1])
		if !ok {
			return cty.NilVal, fmt.Errorf("second argument must be a duration")
		}
		return value.String(t.Add(time.Duration(ms) * time.Millisecond).Format(dateLayout)), nil
	})

	r.Register("date.format", func(ctx *Context, positional []cty.Value, named map[string]cty.Value) (cty.Value, error) {
		if len(positional) < 2 {
			return cty.NilVal, fmt.Errorf("requires a date and a layout")
		}
		t, err := time.Parse(dateLayout, value.ToString(positional[0]))
		if err != nil {
			return cty.NilVal, fmt.Errorf("not a valid RFC3339 date: %w", err)
		}
		return value.String(t.Format(value.ToString(positional[1]))), nil
	})
}
