package serializer

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// fieldSpec binds a serializer Field to the struct field that backs it.
type fieldSpec struct {
	Field
	index []int
	typ   reflect.Type
	depth int
}

// TagInfo represents parsed information from a gork struct tag.
type TagInfo struct {
	Name     string
	ReadOnly bool
	Textarea bool
	Label    string
	Help     string
}

// parseGorkTag parses a tag such as `gork:"info,readonly,label=Info"`.
func parseGorkTag(tag string) TagInfo {
	if tag == "" {
		return TagInfo{}
	}

	parts := strings.Split(tag, ",")
	info := TagInfo{Name: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		switch {
		case p == "readonly":
			info.ReadOnly = true
		case p == "textarea":
			info.Textarea = true
		case strings.HasPrefix(p, "label="):
			info.Label = strings.TrimPrefix(p, "label=")
		case strings.HasPrefix(p, "help="):
			info.Help = strings.TrimPrefix(p, "help=")
		}
	}
	return info
}

// fieldTag returns the tag information for a struct field, preferring the
// gork tag and falling back to the json tag for the name.
func fieldTag(field reflect.StructField) TagInfo {
	info := parseGorkTag(field.Tag.Get("gork"))
	if info.Name != "" {
		return info
	}
	if jsonTag := field.Tag.Get("json"); jsonTag != "" {
		if name := strings.Split(jsonTag, ",")[0]; name != "" {
			info.Name = name
		}
	}
	return info
}

// structFields collects the serializable fields of t in declaration order.
// Embedded structs without a name of their own are flattened; a field
// declared closer to the outer struct shadows a deeper one.
func structFields(t reflect.Type) []fieldSpec {
	var specs []fieldSpec
	pos := make(map[string]int)
	collectFields(t, nil, 0, &specs, pos)
	return specs
}

func collectFields(t reflect.Type, prefix []int, depth int, specs *[]fieldSpec, pos map[string]int) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int(nil), prefix...), i)
		tag := fieldTag(f)

		if f.Anonymous && f.IsExported() && tag.Name == "" && f.Type.Kind() == reflect.Struct {
			collectFields(f.Type, index, depth+1, specs, pos)
			continue
		}
		if !f.IsExported() || tag.Name == "" || tag.Name == "-" {
			continue
		}

		spec := fieldSpec{Field: buildField(f, tag), index: index, typ: f.Type, depth: depth}
		if at, ok := pos[spec.Name]; ok {
			if (*specs)[at].depth > depth {
				(*specs)[at] = spec
			}
			continue
		}
		pos[spec.Name] = len(*specs)
		*specs = append(*specs, spec)
	}
}

func buildField(f reflect.StructField, tag TagInfo) Field {
	field := Field{
		Name:     tag.Name,
		Label:    tag.Label,
		ReadOnly: tag.ReadOnly,
		HelpText: tag.Help,
	}
	if field.Label == "" {
		field.Label = labelFor(tag.Name)
	}

	t := f.Type
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool:
		field.Kind = KindBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		field.Kind = KindInteger
	case reflect.Float32, reflect.Float64:
		field.Kind = KindFloat
	case reflect.String:
		field.Kind = KindString
		if tag.Textarea {
			field.Kind = KindText
		}
	default:
		field.Kind = KindText
	}

	for _, rule := range strings.Split(f.Tag.Get("validate"), ",") {
		switch {
		case rule == "required":
			field.Required = true
		case strings.HasPrefix(rule, "oneof="):
			field.Kind = KindChoice
			field.Choices = strings.Fields(strings.TrimPrefix(rule, "oneof="))
		}
	}
	return field
}

func labelFor(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		if i == 0 && w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// fieldValue walks index from v, returning false when a nil embedded
// pointer blocks the path.
func fieldValue(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

// encode converts the struct value v into a record holding the fields
// accepted by include.
func encode(v reflect.Value, specs []fieldSpec, include func(fieldSpec) bool) Record {
	rec := make(Record, len(specs))
	for _, spec := range specs {
		if include != nil && !include(spec) {
			continue
		}
		fv, ok := fieldValue(v, spec.index)
		if !ok {
			continue
		}
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				rec[spec.Name] = nil
				continue
			}
			fv = fv.Elem()
		}
		rec[spec.Name] = fv.Interface()
	}
	return rec
}

// decode copies the record values accepted by include onto the addressable
// struct value v, collecting per-field conversion errors.
func decode(rec Record, v reflect.Value, specs []fieldSpec, include func(fieldSpec) bool, detail ErrorDetail) {
	for _, spec := range specs {
		raw, present := rec[spec.Name]
		if !present || (include != nil && !include(spec)) {
			continue
		}
		fv, ok := fieldValue(v, spec.index)
		if !ok || !fv.CanSet() {
			continue
		}
		if msg := setFieldValue(fv, raw); msg != "" {
			detail.Add(spec.Name, msg)
		}
	}
}

// setFieldValue assigns value to field, returning a client facing message
// when the value cannot be converted.
func setFieldValue(field reflect.Value, value any) string {
	if value == nil {
		if field.Kind() == reflect.Ptr || field.Kind() == reflect.Slice || field.Kind() == reflect.Map {
			field.Set(reflect.Zero(field.Type()))
			return ""
		}
		return "This field may not be null."
	}

	if field.Kind() == reflect.Ptr {
		elem := reflect.New(field.Type().Elem())
		if msg := setFieldValue(elem.Elem(), value); msg != "" {
			return msg
		}
		field.Set(elem)
		return ""
	}

	switch field.Kind() {
	case reflect.String:
		return setStringField(field, value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return setIntField(field, value)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return setUintField(field, value)
	case reflect.Float32, reflect.Float64:
		return setFloatField(field, value)
	case reflect.Bool:
		return setBoolField(field, value)
	default:
		return setGenericField(field, value)
	}
}

func setStringField(field reflect.Value, value any) string {
	switch v := value.(type) {
	case string:
		field.SetString(v)
	case json.Number:
		field.SetString(v.String())
	case float64:
		field.SetString(strconv.FormatFloat(v, 'f', -1, 64))
	case int:
		field.SetString(strconv.Itoa(v))
	case int64:
		field.SetString(strconv.FormatInt(v, 10))
	default:
		return "Not a valid string."
	}
	return ""
}

const (
	requiredMessage = "This field is required."
	invalidInteger  = "A valid integer is required."
	outOfRange      = "Ensure this value is within range."
)

func setIntField(field reflect.Value, value any) string {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int64:
		n = v
	case int32:
		n = int64(v)
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return invalidInteger
		}
		if v < math.MinInt64 || v >= math.MaxInt64 {
			return outOfRange
		}
		n = int64(v)
	case json.Number:
		parsed, err := v.Int64()
		if err != nil {
			return invalidInteger
		}
		n = parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return invalidInteger
		}
		n = parsed
	default:
		return invalidInteger
	}
	if field.OverflowInt(n) {
		return outOfRange
	}
	field.SetInt(n)
	return ""
}

func setUintField(field reflect.Value, value any) string {
	var tmp int64
	probe := reflect.New(reflect.TypeOf(tmp)).Elem()
	if msg := setIntField(probe, value); msg != "" {
		return msg
	}
	n := probe.Int()
	if n < 0 {
		return "Ensure this value is greater than or equal to 0."
	}
	if field.OverflowUint(uint64(n)) {
		return outOfRange
	}
	field.SetUint(uint64(n))
	return ""
}

const invalidNumber = "A valid number is required."

func setFloatField(field reflect.Value, value any) string {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return invalidNumber
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return invalidNumber
		}
		f = parsed
	default:
		return invalidNumber
	}
	field.SetFloat(f)
	return ""
}

func setBoolField(field reflect.Value, value any) string {
	switch v := value.(type) {
	case bool:
		field.SetBool(v)
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "on", "yes":
			field.SetBool(true)
		case "false", "0", "off", "no", "":
			field.SetBool(false)
		default:
			return "Must be a valid boolean."
		}
	case float64:
		if v != 0 && v != 1 {
			return "Must be a valid boolean."
		}
		field.SetBool(v == 1)
	default:
		return "Must be a valid boolean."
	}
	return ""
}

// setGenericField sets a composite field value using JSON marshaling.
func setGenericField(field reflect.Value, value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return "Invalid value."
	}
	newVal := reflect.New(field.Type())
	if err := json.Unmarshal(data, newVal.Interface()); err != nil {
		return "Invalid value."
	}
	field.Set(newVal.Elem())
	return ""
}
