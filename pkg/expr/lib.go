package expr

import (
	"math"
	"net/url"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/ext"
)

type lib struct{}

func (lib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		ext.Strings(),
		ext.Lists(),

		// `urlHost` returns the host of a URL, without the port.
		// Example: urlHost(url) == "example.com".
		urlFunction("urlHost", "url_host", func(u *url.URL) string { return u.Hostname() }),

		// `urlScheme` returns the scheme of a URL.
		// Example: urlScheme(url) in ["http", "https"].
		urlFunction("urlScheme", "url_scheme", func(u *url.URL) string { return u.Scheme }),

		// `urlPath` returns the path of a URL.
		// Example: urlPath(url).startsWith("/overlay").
		urlFunction("urlPath", "url_path", func(u *url.URL) string { return u.Path }),
	}
}

func (lib) ProgramOptions() []cel.ProgramOption {
	return []cel.ProgramOption{}
}

// urlFunction declares a string-to-string CEL function that applies get to
// the parsed URL. Unparsable URLs yield an empty string.
func urlFunction(name, overload string, get func(*url.URL) string) cel.EnvOption {
	return cel.Function(name,
		cel.Overload(overload, []*cel.Type{cel.StringType}, cel.StringType,
			cel.UnaryBinding(func(value ref.Val) ref.Val {
				s, ok := value.(types.String).Value().(string)
				if !ok {
					return types.NewErr("%s: invalid string value", name)
				}

				u, err := url.Parse(s)
				if err != nil {
					return types.String("")
				}

				return types.String(get(u))
			}),
		),
	)
}

// ConvertToCELValue converts a Go value to a CEL value.
// Handles common scalar, list and map types and returns null for unsupported
// types.
//
//nolint:ireturn // Following CEL's function signature.
func ConvertToCELValue(value any) ref.Val {
	switch v := value.(type) {
	case nil:
		return types.NullValue

	case bool:
		return types.Bool(v)

	case int:
		return types.Int(v)

	case int64:
		return types.Int(v)

	case uint64:
		// Check for overflow when converting to int64.
		if v > math.MaxInt64 {
			return types.Double(float64(v))
		}

		return types.Int(int64(v))

	case float64:
		return types.Double(v)

	case string:
		return types.String(v)

	case []any:
		celValues := make([]ref.Val, len(v))
		for i, item := range v {
			celValues[i] = ConvertToCELValue(item)
		}

		return types.NewDynamicList(types.DefaultTypeAdapter, celValues)

	case map[string]any:
		celMap := make(map[ref.Val]ref.Val)
		for key, val := range v {
			celMap[types.String(key)] = ConvertToCELValue(val)
		}

		return types.NewDynamicMap(types.DefaultTypeAdapter, celMap)

	default:
		// For unsupported types, return null instead of erroring.
		return types.NullValue
	}
}
