package operator

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/helixlang/hlx/internal/value"
)

// registerTransformOps registers `@transform(template, data)`. Per
// spec.md §9's open question, none of the three named templates
// (conversational, preference, chatml) has a published schema; the
// shape each one expects and produces is documented here rather than
// guessed at the call site:
//
//   - "conversational": data is an object with an optional "system"
//     string and required "user"/"assistant" strings. Produces an
//     object `{messages: [{role, content}, ...]}` in system/user/
//     assistant order, the shape most chat fine-tuning datasets use.
//   - "preference": data is an object with required "prompt", "chosen",
//     "rejected" strings, validated and passed through unchanged, the
//     shape DPO/RLHF preference datasets use.
//   - "chatml": same input shape as "conversational", rendered to the
//     ChatML plain-text wire format
//     (`<|im_start|>role\ncontent<|im_end|>\n`, repeated per message)
//     rather than a structured object.
func registerTransformOps(r *Registry) {
	r.Register("transform", func(ctx *Context, positional []cty.Value, named map[string]cty.Value) (cty.Value, error) {
		if len(positional) != 2 {
			return cty.NilVal, fmt.Errorf("requires a template name and a data object")
		}
		template := value.ToString(positional[0])
		fields, ok := objectFields(positional[1])
		if !ok {
			return cty.NilVal, fmt.Errorf("second argument must be an object")
		}
		switch template {
		case "conversational":
			return transformConversational(fields)
		case "preference":
			return transformPreference(fields)
		case "chatml":
			return transformChatML(fields)
		default:
			return cty.NilVal, fmt.Errorf("unknown transform template %q (supported: conversational, preference, chatml)", template)
		}
	})
}

func objectFields(v cty.Value) (map[string]cty.Value, bool) {
	if !(v.Type().IsObjectType() || v.Type().IsMapType()) {
		return nil, false
	}
	out := map[string]cty.Value{}
	for it := v.ElementIterator(); it.Next(); {
		k, ev := it.Element()
		out[k.AsString()] = ev
	}
	return out, true
}

func requireField(fields map[string]cty.Value, key string) (string, error) {
	v, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("missing required field %q", key)
	}
	return value.ToString(v), nil
}

func conversationMessages(fields map[string]cty.Value) ([]cty.Value, error) {
	user, err := requireField(fields, "user")
	if err != nil {
		return nil, err
	}
	assistant, err := requireField(fields, "assistant")
	if err != nil {
		return nil, err
	}
	var messages []cty.Value
	if sys, ok := fields["system"]; ok {
		messages = append(messages, value.Object(map[string]cty.Value{
			"role": value.String("system"), "content": sys,
		}))
	}
	messages = append(messages,
		value.Object(map[string]cty.Value{"role": value.String("user"), "content": value.String(user)}),
		value.Object(map[string]cty.Value{"role": value.String("assistant"), "content": value.String(assistant)}),
	)
	return messages, nil
}

func transformConversational(fields map[string]cty.Value) (cty.Value, error) {
	messages, err := conversationMessages(fields)
	if err != nil {
		return cty.NilVal, err
	}
	return value.Object(map[string]cty.Value{"messages": value.Array(messages)}), nil
}

func transformPreference(fields map[string]cty.Value) (cty.Value, error) {
	prompt, err := requireField(fields, "prompt")
	if err != nil {
		return cty.NilVal, err
	}
	chosen, err := requireField(fields, "chosen")
	if err != nil {
		return cty.NilVal, err
	}
	rejected, err := requireField(fields, "rejected")
	if err != nil {
		return cty.NilVal, err
	}
	return value.Object(map[string]cty.Value{
		"prompt":   value.String(prompt),
		"chosen":   value.String(chosen),
		"rejected": value.String(rejected),
	}), nil
}

func transformChatML(fields map[string]cty.Value) (cty.Value, error) {
	messages, err := conversationMessages(fields)
	if err != nil {
		return cty.NilVal, err
	}
	var b strings.Builder
	for _, m := range messages {
		mf, _ := objectFields(m)
		fmt.Fprintf(&b, "<|im_start|>%s\n%s<|im_end|>\n", value.ToString(mf["role"]), value.ToString(mf["content"]))
	}
	return value.String(b.String()), nil
}
