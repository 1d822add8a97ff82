// Package attr implements name-candidate field access against opaque host
// instances. Host object shapes vary across versions, so every accessor is
// total: reads fall back to a caller-supplied default and writes report
// success instead of failing. Resolution results are cached per type, both
// positive and negative, because scanning a type's members dominates the cost
// of this layer.
package attr

import (
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"
)

// Handle is a cached reference to a resolved field on one host type.
// Immutable once stored.
type Handle struct {
	index []int
	typ   reflect.Type
	name  string
}

// FieldName returns the name of the field the handle actually resolved to,
// which may be any entry of the candidate list.
func (h *Handle) FieldName() string { return h.name }

// cacheKey identifies one candidate list against one host type. The first
// candidate is the key so that repeated calls with the same list always hit
// the same cache line, regardless of which candidate matched.
type cacheKey struct {
	t    reflect.Type
	name string
}

// Resolver resolves candidate name lists to field handles with positive and
// negative caching.
type Resolver struct {
	mu      sync.Mutex
	fields  map[cacheKey]*Handle
	missing map[cacheKey]struct{}
	warned  map[cacheKey]struct{}
	scans   int64
	log     *slog.Logger
}

// NewResolver creates an empty resolver. A nil logger disables diagnostics.
func NewResolver(log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{
		fields:  make(map[cacheKey]*Handle),
		missing: make(map[cacheKey]struct{}),
		warned:  make(map[cacheKey]struct{}),
		log:     log,
	}
}

// Clear drops every cached handle and negative marker. Called on rebind: a
// host reload may produce new type layouts under the same names.
func (r *Resolver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fields = make(map[cacheKey]*Handle)
	r.missing = make(map[cacheKey]struct{})
	r.warned = make(map[cacheKey]struct{})
}

// Scans returns the number of full member scans performed so far. Tests use
// this to observe cache behavior.
func (r *Resolver) Scans() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scans
}

// structValue unwraps an instance down to an addressable struct value.
func structValue(instance any) (reflect.Value, bool) {
	if instance == nil {
		return reflect.Value{}, false
	}
	v := reflect.ValueOf(instance)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	return v, true
}

// Resolve maps (type of instance, candidates) to a field handle. Candidates
// are tried in order; matching is case-insensitive. Returns false when no
// candidate resolves, and records a negative marker so the scan is not
// repeated.
func (r *Resolver) Resolve(instance any, candidates []string) (*Handle, bool) {
	if len(candidates) == 0 {
		return nil, false
	}
	v, ok := structValue(instance)
	if !ok {
		return nil, false
	}
	return r.resolveType(v.Type(), candidates)
}

func (r *Resolver) resolveType(t reflect.Type, candidates []string) (*Handle, bool) {
	key := cacheKey{t: t, name: candidates[0]}

	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.fields[key]; ok {
		return h, true
	}
	if _, ok := r.missing[key]; ok {
		return nil, false
	}

	// One pass over the type members per candidate, first match wins.
	r.scans++
	for _, cand := range candidates {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			if strings.EqualFold(f.Name, cand) {
				h := &Handle{index: f.Index, typ: f.Type, name: f.Name}
				r.fields[key] = h
				return h, true
			}
		}
	}

	r.missing[key] = struct{}{}
	r.log.Debug("attribute not found on host type",
		"type", t.String(), "candidate", candidates[0])
	return nil, false
}

// fieldValue resolves and returns the field value for instance, or an invalid
// Value when anything along the way is unavailable.
func (r *Resolver) fieldValue(instance any, candidates []string) reflect.Value {
	v, ok := structValue(instance)
	if !ok {
		return reflect.Value{}
	}
	h, ok := r.resolveType(v.Type(), candidates)
	if !ok {
		return reflect.Value{}
	}
	return v.FieldByIndex(h.index)
}

// GetFloat reads a numeric field coerced to float64, or def on any failure.
func (r *Resolver) GetFloat(instance any, candidates []string, def float64) float64 {
	f := r.fieldValue(instance, candidates)
	if !f.IsValid() {
		return def
	}
	switch f.Kind() {
	case reflect.Float32, reflect.Float64:
		return f.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(f.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(f.Uint())
	}
	return def
}

// GetInt reads an integer field, or def on any failure.
func (r *Resolver) GetInt(instance any, candidates []string, def int) int {
	f := r.fieldValue(instance, candidates)
	if !f.IsValid() {
		return def
	}
	switch f.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(f.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(f.Uint())
	case reflect.Float32, reflect.Float64:
		return int(f.Float())
	}
	return def
}

// GetBool reads a boolean field, or def on any failure.
func (r *Resolver) GetBool(instance any, candidates []string, def bool) bool {
	f := r.fieldValue(instance, candidates)
	if !f.IsValid() || f.Kind() != reflect.Bool {
		return def
	}
	return f.Bool()
}

// GetFloats reads a float slice or array field as a copy, or nil on failure.
func (r *Resolver) GetFloats(instance any, candidates []string) []float64 {
	f := r.fieldValue(instance, candidates)
	if !f.IsValid() {
		return nil
	}
	if f.Kind() != reflect.Slice && f.Kind() != reflect.Array {
		return nil
	}
	out := make([]float64, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		e := f.Index(i)
		switch e.Kind() {
		case reflect.Float32, reflect.Float64:
			out = append(out, e.Float())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			out = append(out, float64(e.Int()))
		default:
			return nil
		}
	}
	return out
}

// Objects resolves a slice-of-structs field and returns one addressable
// pointer per element, so each sub-object can itself be read and written
// through the resolver. Returns nil on any failure.
func (r *Resolver) Objects(instance any, candidates []string) []any {
	f := r.fieldValue(instance, candidates)
	if !f.IsValid() || f.Kind() != reflect.Slice {
		return nil
	}
	out := make([]any, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		e := f.Index(i)
		switch {
		case e.Kind() == reflect.Pointer:
			if e.IsNil() {
				continue
			}
			out = append(out, e.Interface())
		case e.CanAddr():
			out = append(out, e.Addr().Interface())
		default:
			return nil
		}
	}
	return out
}

// Set resolves and writes value to the field, coercing to the field's
// declared type. Returns whether the write succeeded. With logOnFailure the
// first failure per (type, candidate) key emits a warning; the failure itself
// never propagates.
func (r *Resolver) Set(instance any, candidates []string, value any, logOnFailure bool) bool {
	v, ok := structValue(instance)
	if !ok {
		return false
	}
	h, ok := r.resolveType(v.Type(), candidates)
	if !ok {
		r.warnOnce(logOnFailure, v.Type(), candidates, "attribute missing")
		return false
	}
	f := v.FieldByIndex(h.index)
	if !f.CanSet() {
		r.warnOnce(logOnFailure, v.Type(), candidates, "attribute not settable")
		return false
	}
	if !r.assign(f, value) {
		r.warnOnce(logOnFailure, v.Type(), candidates, "incompatible value type")
		return false
	}
	return true
}

// assign coerces value into dst, recovering from conversion panics.
func (r *Resolver) assign(dst reflect.Value, value any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	src := reflect.ValueOf(value)
	if !src.IsValid() {
		return false
	}
	if src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return true
	}
	if src.Kind() == reflect.Slice && dst.Kind() == reflect.Slice {
		n := src.Len()
		out := reflect.MakeSlice(dst.Type(), n, n)
		for i := 0; i < n; i++ {
			e := src.Index(i)
			if !e.Type().ConvertibleTo(dst.Type().Elem()) {
				return false
			}
			out.Index(i).Set(e.Convert(dst.Type().Elem()))
		}
		dst.Set(out)
		return true
	}
	if (src.Kind() == reflect.Slice || src.Kind() == reflect.Array) &&
		dst.Kind() == reflect.Array && src.Len() == dst.Len() {
		for i := 0; i < src.Len(); i++ {
			e := src.Index(i)
			if !e.Type().ConvertibleTo(dst.Type().Elem()) {
				return false
			}
			dst.Index(i).Set(e.Convert(dst.Type().Elem()))
		}
		return true
	}
	if src.Type().ConvertibleTo(dst.Type()) {
		// Reject nonsense conversions like float -> string.
		if dst.Kind() == reflect.String && src.Kind() != reflect.String {
			return false
		}
		dst.Set(src.Convert(dst.Type()))
		return true
	}
	return false
}

func (r *Resolver) warnOnce(enabled bool, t reflect.Type, candidates []string, reason string) {
	if !enabled || len(candidates) == 0 {
		return
	}
	key := cacheKey{t: t, name: candidates[0]}
	r.mu.Lock()
	if _, seen := r.warned[key]; seen {
		r.mu.Unlock()
		return
	}
	r.warned[key] = struct{}{}
	r.mu.Unlock()
	r.log.Warn("host attribute write failed",
		"type", t.String(), "candidate", candidates[0], "reason", reason)
}
