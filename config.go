package pegvm

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config map[string]*cfgVal

// NewConfig creates a new configuration object primed with all the
// default values expected by the compiler and the virtual machine.
func NewConfig() *Config {
	m := make(Config)
	// level 0:
	// - ZeroOrMore emits choice/commit loops
	// - And emits a double Not
	// - Not emits choice/commit/fail
	// level 1:
	// - ZeroOrMore emits partial-commit
	// - And emits back-commit
	// - Not emits fail-twice
	m.SetInt("compiler.optimize", 1)
	// with optimizations on, merge single character alternatives
	// into one charset
	m.SetBool("compiler.add_charsets", true)
	// emit a single full capture after bodies with known size
	m.SetBool("compiler.full_captures", true)
	// refuse grammars with rules that call themselves without
	// consuming any input
	m.SetBool("compiler.left_recursion_check", true)
	// max instructions a single match can execute. zero means no
	// limit
	m.SetInt("vm.max_steps", 0)
	// initial capacity of the call/choice stack
	m.SetInt("vm.stack_size", 32)
	// how many compiled programs `ProgramCache` keeps around
	m.SetInt("cache.size", 128)
	return &m
}

// LoadYAML overlays the values found in the YAML document `data` on
// top of the configuration.  Nested mappings are flattened with dots,
// so `compiler: {optimize: 0}` sets `compiler.optimize`.  Only keys
// that already exist can be set, and the type of the new value must
// match the type of the existing one.
func (c *Config) LoadYAML(data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("can't parse config: %w", err)
	}
	return c.loadMap("", doc)
}

func (c *Config) loadMap(prefix string, m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if nested, ok := m[k].(map[string]any); ok {
			if err := c.loadMap(path, nested); err != nil {
				return err
			}
			continue
		}
		if err := c.set(path, m[k]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) set(path string, v any) error {
	current, ok := (*c)[path]
	if !ok {
		return fmt.Errorf("unknown setting `%s`", path)
	}
	switch current.typ {
	case cfgValType_Bool:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("setting `%s` expects a bool, got %T", path, v)
		}
		c.SetBool(path, b)
	case cfgValType_Int:
		i, ok := v.(int)
		if !ok {
			return fmt.Errorf("setting `%s` expects an int, got %T", path, v)
		}
		c.SetInt(path, i)
	case cfgValType_String:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("setting `%s` expects a string, got %T", path, v)
		}
		c.SetString(path, s)
	default:
		return fmt.Errorf("setting `%s` has no type", path)
	}
	return nil
}

// Debug writes all settings sorted by name to `w`
func (c *Config) Debug(w io.Writer) {
	keys := make([]string, 0, len(*c))
	width := 0
	for k := range *c {
		keys = append(keys, k)
		width = max(width, len(k))
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(w, "%s%s : %s\n", k, strings.Repeat(" ", width-len(k)), (*c)[k])
	}
}

type cfgValType int

const (
	cfgValType_Undefined cfgValType = iota
	cfgValType_Bool
	cfgValType_Int
	cfgValType_String
)

func (vt cfgValType) String() string {
	return map[cfgValType]string{
		cfgValType_Undefined: "undefined",
		cfgValType_Bool:      "bool",
		cfgValType_Int:       "int",
		cfgValType_String:    "string",
	}[vt]
}

type cfgVal struct {
	typ      cfgValType
	asBool   bool
	asInt    int
	asString string
}

// assignType is mostly for preventing programming errors
func (v *cfgVal) assignType(vt cfgValType) {
	if v.typ != vt && v.typ != cfgValType_Undefined {
		panic(fmt.Sprintf("Can't assign `%s` to type `%s`", vt, v.typ))
	}
	v.typ = vt
}

func (v *cfgVal) checkType(vt cfgValType) {
	if v.typ != vt {
		panic(fmt.Sprintf("Can't retrieve `%s` from `%s` variable", vt, v.typ))
	}
}

func (v *cfgVal) String() string {
	switch v.typ {
	case cfgValType_Bool:
		return fmt.Sprintf("%t (bool)", v.asBool)
	case cfgValType_Int:
		return fmt.Sprintf("%d (int)", v.asInt)
	case cfgValType_String:
		return fmt.Sprintf("%s (string)", v.asString)
	case cfgValType_Undefined:
		return "(undefined)"
	default:
		panic(fmt.Sprintf("unknown cfgVal type: %v", v.typ))
	}
}

func (c *Config) SetBool(path string, v bool) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValType_Bool)
	(*c)[path].asBool = v
}

func (c *Config) SetInt(path string, v int) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValType_Int)
	(*c)[path].asInt = v
}

func (c *Config) SetString(path string, v string) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValType_String)
	(*c)[path].asString = v
}

func (c *Config) GetBool(path string) bool {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValType_Bool)
		return val.asBool
	}
	panic(fmt.Sprintf("Bool setting `%s` does not exist", path))
}

func (c *Config) GetInt(path string) int {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValType_Int)
		return val.asInt
	}
	panic(fmt.Sprintf("Int setting `%s` does not exist", path))
}

func (c *Config) GetString(path string) string {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValType_String)
		return val.asString
	}
	panic(fmt.Sprintf("String setting `%s` does not exist", path))
}
