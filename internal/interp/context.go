package interp

import "reflect"

// lookupField resolves one member-name hop on a host value by dynamic
// reflection (spec.md §4.11 "dynamic lookup of the property or field name
// on the context"), grounded on the teacher's FFI marshaling
// (internal/interp/marshal.go) use of reflect for host interop. A field
// wins over a zero-argument method of the same name; both are tried
// because a host context may expose either shape.
func lookupField(obj any, name string) (any, bool) {
	if obj == nil {
		return nil, false
	}
	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct:
		f := rv.FieldByName(name)
		if f.IsValid() && f.CanInterface() {
			return f.Interface(), true
		}
	case reflect.Map:
		mv := rv.MapIndex(reflect.ValueOf(name))
		if mv.IsValid() {
			return mv.Interface(), true
		}
	}
	if m := reflect.ValueOf(obj).MethodByName(name); m.IsValid() && m.Type().NumIn() == 0 {
		results := m.Call(nil)
		if len(results) == 0 {
			return nil, true
		}
		return results[0].Interface(), true
	}
	return nil, false
}

// lookupChain resolves a dotted member chain (MemberLoad/BlackboardLoad's
// Chain, spec.md §4.7) by repeated field lookup starting at root.
func lookupChain(root any, chain []string) (any, bool) {
	cur := root
	for _, seg := range chain {
		v, ok := lookupField(cur, seg)
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// callMember invokes a named method on target with the given arguments,
// falling back to a plain field read when name is a zero-argument member
// and args is empty (an Action/Call with no arguments may name either a
// method or a property on the host context).
func callMember(target any, name string, args []reflect.Value) (any, bool) {
	if target == nil {
		return nil, false
	}
	rv := reflect.ValueOf(target)
	m := rv.MethodByName(name)
	if m.IsValid() {
		results := m.Call(args)
		if len(results) == 0 {
			return nil, true
		}
		return results[0].Interface(), true
	}
	if len(args) == 0 {
		if v, ok := lookupField(target, name); ok {
			return v, true
		}
	}
	return nil, false
}
