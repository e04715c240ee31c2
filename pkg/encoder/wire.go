package encoder

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Wire keys.
const (
	KeyFunction        = "function"
	KeyArguments       = "arguments"
	KeyConstantValue   = "constantValue"
	KeyType            = "type"
	KeyValue           = "value"
	KeyArgumentNames   = "argumentNames"
	KeyBody            = "body"
	KeyScope           = "scope"
	KeyArrayValue      = "arrayValue"
	KeyDictionaryValue = "dictionaryValue"
)

// Values of the "type" key.
const (
	TypeArgumentRef   = "ArgumentRef"
	TypeFunction      = "Function"
	TypeValueRef      = "ValueRef"
	TypeCompoundValue = "CompoundValue"
)

// Object is an ordered JSON object. Its keys serialize in insertion order.
type Object = orderedmap.OrderedMap[string, any]

func newObject() *Object {
	return orderedmap.New[string, any]()
}

func invocation(name string, args *Object) *Object {
	o := newObject()
	o.Set(KeyFunction, name)
	o.Set(KeyArguments, args)
	return o
}

func constant(v any) *Object {
	o := newObject()
	o.Set(KeyConstantValue, v)
	return o
}

func argumentRef(name string) *Object {
	o := newObject()
	o.Set(KeyType, TypeArgumentRef)
	o.Set(KeyValue, name)
	return o
}

func function(params []string, body any) *Object {
	names := make([]any, len(params))
	for i, p := range params {
		names[i] = p
	}
	o := newObject()
	o.Set(KeyType, TypeFunction)
	o.Set(KeyArgumentNames, names)
	o.Set(KeyBody, body)
	return o
}

func valueRef(slot string) *Object {
	o := newObject()
	o.Set(KeyType, TypeValueRef)
	o.Set(KeyValue, slot)
	return o
}

func compound(scope []any, value any) *Object {
	o := newObject()
	o.Set(KeyType, TypeCompoundValue)
	o.Set(KeyScope, scope)
	o.Set(KeyValue, value)
	return o
}

func array(elems []any) *Object {
	o := newObject()
	o.Set(KeyArrayValue, elems)
	return o
}

func dictionary(entries *Object) *Object {
	o := newObject()
	o.Set(KeyDictionaryValue, entries)
	return o
}
