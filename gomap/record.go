package gomap

import "reflect"

// Field is one named value of a Record or Object.
type Field struct {
	Name  string
	Value any
}

// Record is an ordered list of named values. It is written as a plain
// object with no type tag, and untyped objects decode to it.
type Record []Field

func (r Record) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Set replaces the value of name, appending it if absent.
func (r *Record) Set(name string, v any) {
	for i := range *r {
		if (*r)[i].Name == name {
			(*r)[i].Value = v
			return
		}
	}
	*r = append(*r, Field{Name: name, Value: v})
}

func (r Record) Names() []string {
	res := make([]string, len(r))
	for i, f := range r {
		res[i] = f.Name
	}
	return res
}

// Object is an instance of a type the decoding program did not register.
// It keeps the type name and the fields in order, and like pointers to
// registered structs, *Object values carry identity.
type Object struct {
	Type   string
	Fields Record
}

func (o *Object) Get(name string) (any, bool) {
	return o.Fields.Get(name)
}

var (
	anyType       = reflect.TypeFor[any]()
	recordType    = reflect.TypeFor[Record]()
	objectType    = reflect.TypeFor[Object]()
	objectPtrType = reflect.TypeFor[*Object]()
)
