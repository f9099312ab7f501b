package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/qbdsl/internal/querydsl"
)

// DefaultScriptLang is the script language used when a CUE operator
// declares a script without `lang`.
const DefaultScriptLang = "painless"

type loadOptions struct {
	base       *Config
	formatters Formatters
}

// LoadOption customizes Load and LoadFile.
type LoadOption func(*loadOptions)

// WithBase merges the CUE configuration over base instead of Default().
// base is cloned, never modified.
func WithBase(base *Config) LoadOption {
	return func(o *loadOptions) { o.base = base }
}

// WithFormatter registers an extra named formatter that widgets can
// reference.
func WithFormatter(name string, fn FormatFunc) LoadOption {
	return func(o *loadOptions) { o.formatters[name] = fn }
}

func newLoadOptions(opts []LoadOption) *loadOptions {
	o := &loadOptions{formatters: BuiltinFormatters()}
	for _, opt := range opts {
		opt(o)
	}
	if o.base == nil {
		o.base = Default()
	}
	return o
}

// LoadPath loads a configuration from a CUE file or a directory of CUE
// files. An empty path returns Default().
func LoadPath(path string, opts ...LoadOption) (*Config, error) {
	if path == "" {
		return newLoadOptions(opts).base.Clone(), nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config path not found: %s", path)}
	}
	if info.IsDir() {
		return Load(path, opts...)
	}
	return LoadFile(path, opts...)
}

// Load loads every CUE file of the package in dir.
func Load(dir string, opts ...LoadOption) (*Config, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing config directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil || len(matches) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(ErrCodeBuildFailed, "", err)
	}
	return FromValue(value, opts...)
}

// LoadFile loads a single CUE file.
func LoadFile(path string, opts ...LoadOption) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading config file: %v", err)}
	}
	value := cuecontext.New().CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, formatCUEError(ErrCodeBuildFailed, "", err)
	}
	return FromValue(value, opts...)
}

// LoadString compiles CUE source text. Used by tests and by scenario files
// that embed their configuration.
func LoadString(src string, opts ...LoadOption) (*Config, error) {
	value := cuecontext.New().CompileString(src)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(ErrCodeBuildFailed, "", err)
	}
	return FromValue(value, opts...)
}

// FromValue merges a built CUE value over the base configuration. Entries
// present in CUE replace only the attributes they set.
func FromValue(v cue.Value, opts ...LoadOption) (*Config, error) {
	o := newLoadOptions(opts)
	cfg := o.base.Clone()

	if err := decodeFields(v, cfg); err != nil {
		return nil, err
	}
	if err := decodeOperators(v, cfg); err != nil {
		return nil, err
	}
	if err := decodeWidgets(v, cfg, o.formatters); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFields(v cue.Value, cfg *Config) error {
	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil
	}
	iter, err := fieldsVal.Fields()
	if err != nil {
		return formatCUEError(ErrCodeInvalidValue, "fields", err)
	}
	for iter.Next() {
		name := iter.Selector().Unquoted()
		var fc FieldConfig
		if err := iter.Value().Decode(&fc); err != nil {
			return formatCUEError(ErrCodeInvalidValue, "fields."+name, err)
		}
		cfg.Fields[name] = fc
	}
	return nil
}

func decodeOperators(v cue.Value, cfg *Config) error {
	opsVal := v.LookupPath(cue.ParsePath("operators"))
	if !opsVal.Exists() {
		return nil
	}
	iter, err := opsVal.Fields()
	if err != nil {
		return formatCUEError(ErrCodeInvalidValue, "operators", err)
	}
	for iter.Next() {
		name := iter.Selector().Unquoted()
		op := &OperatorBehavior{Name: name}
		if existing, ok := cfg.Operators[name]; ok && existing != nil {
			cp := *existing
			op = &cp
		}
		if err := decodeOperator(iter.Value(), "operators."+name, op); err != nil {
			return err
		}
		cfg.Operators[name] = op
	}
	return nil
}

func decodeOperator(v cue.Value, path string, op *OperatorBehavior) error {
	for _, key := range []string{"inverse", "reversedOp"} {
		if s, ok, err := optionalString(v, key, path); err != nil {
			return err
		} else if ok {
			op.Inverse = s
		}
	}

	if s, ok, err := optionalString(v, "occurrence", path); err != nil {
		return err
	} else if ok {
		kind, err := querydsl.ParseClauseKind(s)
		if err != nil {
			return &LoadError{Code: ErrCodeInvalidValue, Path: path + ".occurrence", Message: err.Error(), Pos: v.Pos()}
		}
		op.Occurrence = kind
	}

	if s, ok, err := optionalString(v, "values", path); err != nil {
		return err
	} else if ok {
		mode, err := ParseValueMode(s)
		if err != nil {
			return &LoadError{Code: ErrCodeInvalidValue, Path: path + ".values", Message: err.Error(), Pos: v.Pos()}
		}
		op.Values = mode
	}

	if primVal := v.LookupPath(cue.ParsePath("primitive")); primVal.Exists() {
		sel, err := decodeSelector(primVal, path+".primitive")
		if err != nil {
			return err
		}
		op.Primitive = sel
	}

	if scriptVal := v.LookupPath(cue.ParsePath("script")); scriptVal.Exists() {
		fn, err := decodeScript(scriptVal, path+".script")
		if err != nil {
			return err
		}
		op.Script = fn
	}
	return nil
}

// decodeSelector reads either `primitive: "term"` or
// `primitive: {byWidget: {number: "match"}, default: "term"}`.
func decodeSelector(v cue.Value, path string) (PrimitiveSelector, error) {
	if s, err := v.String(); err == nil {
		p, err := querydsl.ParsePrimitive(s)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeInvalidValue, Path: path, Message: err.Error(), Pos: v.Pos()}
		}
		return Static(p), nil
	}

	if v.IncompleteKind() != cue.StructKind {
		return nil, &LoadError{Code: ErrCodeInvalidValue, Path: path, Message: "primitive must be a string or {byWidget, default}", Pos: v.Pos()}
	}

	sel := ByWidget{Widgets: map[string]querydsl.Primitive{}}
	if s, ok, err := optionalString(v, "default", path); err != nil {
		return nil, err
	} else if ok {
		p, err := querydsl.ParsePrimitive(s)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeInvalidValue, Path: path + ".default", Message: err.Error(), Pos: v.Pos()}
		}
		sel.Default = p
	}

	if byVal := v.LookupPath(cue.ParsePath("byWidget")); byVal.Exists() {
		iter, err := byVal.Fields()
		if err != nil {
			return nil, formatCUEError(ErrCodeInvalidValue, path+".byWidget", err)
		}
		for iter.Next() {
			widget := iter.Selector().Unquoted()
			s, err := iter.Value().String()
			if err != nil {
				return nil, formatCUEError(ErrCodeInvalidValue, path+".byWidget."+widget, err)
			}
			p, err := querydsl.ParsePrimitive(s)
			if err != nil {
				return nil, &LoadError{Code: ErrCodeInvalidValue, Path: path + ".byWidget." + widget, Message: err.Error(), Pos: iter.Value().Pos()}
			}
			sel.Widgets[widget] = p
		}
	}
	return sel, nil
}

// decodeScript builds a ScriptFunc from `script: {source, lang?, params?}`.
// The produced payload passes the field and value as script params.
func decodeScript(v cue.Value, path string) (ScriptFunc, error) {
	source, ok, err := optionalString(v, "source", path)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(source) == "" {
		return nil, &LoadError{Code: ErrCodeInvalidValue, Path: path + ".source", Message: "script source is required", Pos: v.Pos()}
	}

	lang, ok, err := optionalString(v, "lang", path)
	if err != nil {
		return nil, err
	}
	if !ok || lang == "" {
		lang = DefaultScriptLang
	}

	extra := map[string]any{}
	if paramsVal := v.LookupPath(cue.ParsePath("params")); paramsVal.Exists() {
		if err := paramsVal.Decode(&extra); err != nil {
			return nil, formatCUEError(ErrCodeInvalidValue, path+".params", err)
		}
	}

	return func(field string, value any) (any, error) {
		params := make(map[string]any, len(extra)+2)
		for k, p := range extra {
			params[k] = p
		}
		params["field"] = field
		params["value"] = value
		return querydsl.Object{
			"source": source,
			"lang":   lang,
			"params": params,
		}, nil
	}, nil
}

func decodeWidgets(v cue.Value, cfg *Config, formatters Formatters) error {
	widgetsVal := v.LookupPath(cue.ParsePath("widgets"))
	if !widgetsVal.Exists() {
		return nil
	}
	iter, err := widgetsVal.Fields()
	if err != nil {
		return formatCUEError(ErrCodeInvalidValue, "widgets", err)
	}
	for iter.Next() {
		name := iter.Selector().Unquoted()
		path := "widgets." + name
		w := &WidgetBehavior{Name: name}
		if existing, ok := cfg.Widgets[name]; ok && existing != nil {
			cp := *existing
			w = &cp
		}

		formatter, ok, err := optionalString(iter.Value(), "formatter", path)
		if err != nil {
			return err
		}
		if ok {
			if formatter == "" || formatter == "none" {
				w.Formatter = nil
			} else {
				fn, found := formatters[formatter]
				if !found {
					return &LoadError{
						Code:    ErrCodeUnknownFormat,
						Path:    path + ".formatter",
						Message: fmt.Sprintf("unknown formatter %q (known: %s)", formatter, strings.Join(formatters.Names(), ", ")),
						Pos:     iter.Value().Pos(),
					}
				}
				w.Formatter = fn
			}
		}
		cfg.Widgets[name] = w
	}
	return nil
}

// optionalString reads v.key as a string. ok is false when the key is
// absent.
func optionalString(v cue.Value, key, path string) (string, bool, error) {
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() {
		return "", false, nil
	}
	s, err := val.String()
	if err != nil {
		return "", false, formatCUEError(ErrCodeInvalidValue, path+"."+key, err)
	}
	return s, true, nil
}

// sortedKeys returns the keys of m in order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
