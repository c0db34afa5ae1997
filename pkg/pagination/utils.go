package pagination

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jk2pr/GoGit-KMP/pkg/errors"
	"github.com/jk2pr/GoGit-KMP/pkg/transport/rest"
)

func checkStatus(resp *rest.Response) error {
	if !resp.IsSuccess() {
		return errors.WrapError(
			fmt.Errorf("unexpected status %d", resp.StatusCode),
			errors.ErrPagination,
			"update page state",
		)
	}
	return nil
}

// setQuery sets query parameters on the request URL, which may be relative
func setQuery(req *rest.Request, params map[string]string) error {
	u, err := url.Parse(req.URL)
	if err != nil {
		return errors.WrapError(err, errors.ErrConfiguration, "parse page URL")
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	req.URL = u.String()
	return nil
}

// parseBody decodes the body into a generic map.
// A top level array is wrapped in a "data" field.
func parseBody(resp *rest.Response) (map[string]any, error) {
	var raw any
	if err := resp.Decode(&raw); err != nil {
		return nil, err
	}

	switch v := raw.(type) {
	case map[string]any:
		return v, nil
	case []any:
		return map[string]any{"data": v}, nil
	default:
		return nil, errors.WrapError(
			fmt.Errorf("unexpected response type: %T", raw),
			errors.ErrPagination,
			"parse response body",
		)
	}
}

func lookup(body map[string]any, path string) (any, error) {
	var cur any = body
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, errors.WrapError(fmt.Errorf("%q is not an object", key), errors.ErrPagination, "traverse object")
		}
		if cur, ok = m[key]; !ok {
			return nil, errors.WrapError(fmt.Errorf("missing field %q", key), errors.ErrPagination, "find field")
		}
	}
	return cur, nil
}

// lookupString treats null as an empty string
func lookupString(body map[string]any, path string) (string, error) {
	cur, err := lookup(body, path)
	if err != nil {
		return "", err
	}
	switch v := cur.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		// numeric cursors
		return fmt.Sprint(v), nil
	default:
		return "", errors.WrapError(fmt.Errorf("field %q is not a string", path), errors.ErrPagination, "convert to string")
	}
}

func lookupBool(body map[string]any, path string) (bool, error) {
	cur, err := lookup(body, path)
	if err != nil {
		return false, err
	}
	b, ok := cur.(bool)
	if !ok {
		return false, errors.WrapError(fmt.Errorf("field %q is not a bool", path), errors.ErrPagination, "convert to boolean")
	}
	return b, nil
}

func lookupInt(body map[string]any, path string) (int, error) {
	cur, err := lookup(body, path)
	if err != nil {
		return 0, err
	}
	n, ok := cur.(float64)
	if !ok {
		return 0, errors.WrapError(fmt.Errorf("field %q is not a number, got %T", path, cur), errors.ErrPagination, "convert to integer")
	}
	return int(n), nil
}
