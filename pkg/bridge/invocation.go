package bridge

import (
	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
)

// Invocation is a named method call with string arguments. On the wire it is
// the JSON method-call envelope the cross-platform layer decodes:
//
//	{"method":"onFCMTokenReceived","args":{"token":"..."}}
type Invocation struct {
	Method string
	Args   map[string]string
}

func NewInvocation(method Method, args map[string]string) *Invocation {
	return &Invocation{
		Method: method.String(),
		Args:   args,
	}
}

func (i *Invocation) Kind() Method {
	return MethodByString(i.Method)
}

func (i *Invocation) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	i.MarshalEasyJSON(&w)
	return w.BuildBytes()
}

func (i *Invocation) UnmarshalJSON(data []byte) error {
	r := jlexer.Lexer{Data: data}
	i.UnmarshalEasyJSON(&r)
	return r.Error()
}

func (i *Invocation) MarshalEasyJSON(out *jwriter.Writer) {
	out.RawString(`{"method":`)
	out.String(i.Method)
	out.RawString(`,"args":`)

	if i.Args == nil {
		out.RawString("null")
	} else {
		out.RawByte('{')
		first := true
		for k, v := range i.Args {
			if !first {
				out.RawByte(',')
			}
			first = false

			out.String(k)
			out.RawByte(':')
			out.String(v)
		}
		out.RawByte('}')
	}

	out.RawByte('}')
}

func (i *Invocation) UnmarshalEasyJSON(in *jlexer.Lexer) {

	isTopLevel := in.IsStart()
	if in.IsNull() {
		if isTopLevel {
			in.Consumed()
		}
		in.Skip()
		return
	}

	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeString()
		in.WantColon()
		if in.IsNull() {
			in.Skip()
			in.WantComma()
			continue
		}

		switch key {
		case "method":
			i.Method = in.String()
		case "args":
			in.Delim('{')
			i.Args = make(map[string]string)
			for !in.IsDelim('}') {
				k := in.String()
				in.WantColon()
				i.Args[k] = in.String()
				in.WantComma()
			}
			in.Delim('}')
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')

	if isTopLevel {
		in.Consumed()
	}
}
