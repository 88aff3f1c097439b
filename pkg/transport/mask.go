package transport

import "bytes"

var _SecretBegin = []byte(`:"`)

// MaskJSON replaces every non-empty string value that directly follows a key
// with "*". Array elements are left as is.
func MaskJSON(in []byte) []byte {

	if len(in) == 0 {
		return in
	}

	buf := bytes.NewBuffer(nil)
	for {
		pos := bytes.Index(in, _SecretBegin)
		if pos == -1 {
			break
		}

		secretStart := pos + len(_SecretBegin)
		buf.Write(in[:secretStart])
		in = in[secretStart:]

		secretEnd := -1
		for i := 0; i < len(in); i++ {
			if in[i] == '"' && (i == 0 || in[i-1] != '\\') {
				secretEnd = i
				break
			}
		}

		if secretEnd > -1 {
			if secretEnd > 0 {
				buf.WriteByte('*')
			}
			in = in[secretEnd:]
		}
	}

	buf.Write(in)

	return buf.Bytes()
}
