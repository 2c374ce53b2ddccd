// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"io"
	urlpkg "net/url"
)

const badBodyTypeMsg = "dohttp/request: invalid type (for body use nil, " +
	"string, []byte, url.Values, io.Reader or io.ReadCloser)"

// BodyBytes buffers a body argument. It accepts nil (no body), string,
// []byte, url.Values (form encoded) and any io.Reader, which is read to
// EOF and closed if it is also an io.Closer. Any other type is an error,
// as is a failure to read or close the reader.
func BodyBytes(body interface{}) ([]byte, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case urlpkg.Values:
		return []byte(x.Encode()), nil
	case io.Reader:
		b, err := io.ReadAll(x)
		if c, ok := x.(io.Closer); ok {
			if cerr := c.Close(); err == nil {
				err = cerr
			}
		}
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, errors.New(badBodyTypeMsg)
	}
}
