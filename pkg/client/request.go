package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
	defaultPartType = "application/octet-stream"
)

// ResolveURL joins the route's base URL and path. Query parameters of a
// ParametersTask are not applied.
func ResolveURL(route Route) (*url.URL, error) {
	base, err := url.Parse(route.BaseURL())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("%w: %q is not absolute", ErrInvalidURL, route.BaseURL())
	}
	if route.Path() == "" {
		return base, nil
	}
	// Keep the joined path absolute so it is a valid request target.
	if base.Path == "" {
		base.Path = "/"
	}
	return base.JoinPath(route.Path()), nil
}

// BuildRequest builds the transport request for route. The body is buffered
// so the request can be cloned and replayed for every retry attempt
// (http.NewRequest sets GetBody for in-memory bodies).
//
// The resolved URL of the returned request, query included, is the cache key.
func BuildRequest(ctx context.Context, route Route) (*http.Request, error) {
	u, err := ResolveURL(route)
	if err != nil {
		return nil, err
	}

	method := route.Method().Name()
	body, contentType, err := encodeTask(route.Task(), method, u)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestBuild, err)
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	for key, value := range route.Headers() {
		req.Header.Set(key, value)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return req, nil
}

// encodeTask returns the request body and its content type. It may rewrite
// u's query string.
func encodeTask(task Task, method string, u *url.URL) ([]byte, string, error) {
	switch t := task.(type) {
	case nil, PlainTask:
		return nil, "", nil

	case JSONTask:
		body, err := json.Marshal(t.Body)
		if err != nil {
			return nil, "", err
		}
		return body, contentTypeJSON, nil

	case CustomJSONTask:
		body, err := t.encode()
		if err != nil {
			return nil, "", err
		}
		return body, contentTypeJSON, nil

	case ParametersTask:
		return encodeParameters(t, method, u)

	case MultipartTask:
		return encodeMultipart(t)

	default:
		return nil, "", fmt.Errorf("unknown task type %T", task)
	}
}

func encodeParameters(t ParametersTask, method string, u *url.URL) ([]byte, string, error) {
	switch t.Placement {
	case PlacementBody:
		params := t.Params
		if params == nil {
			params = map[string]any{}
		}
		body, err := json.Marshal(params)
		if err != nil {
			return nil, "", err
		}
		return body, contentTypeJSON, nil

	case PlacementQuery:
		values := toValues(t.Params)
		// POST carries query parameters as a form body.
		if method == http.MethodPost {
			return []byte(values.Encode()), contentTypeForm, nil
		}
		u.RawQuery = values.Encode()
		return nil, "", nil

	default:
		return nil, "", fmt.Errorf("unknown parameter placement %d", t.Placement)
	}
}

// toValues flattens params. Slices become repeated keys; url.Values.Encode
// sorts by key, so the resulting cache key is stable.
func toValues(params map[string]any) url.Values {
	values := make(url.Values, len(params))
	for key, value := range params {
		switch v := value.(type) {
		case []string:
			for _, s := range v {
				values.Add(key, s)
			}
		case []any:
			for _, item := range v {
				values.Add(key, fmt.Sprint(item))
			}
		case nil:
			values.Set(key, "")
		default:
			values.Set(key, fmt.Sprint(v))
		}
	}
	return values
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeMultipart(t MultipartTask) ([]byte, string, error) {
	boundary := t.Boundary
	if boundary == "" {
		boundary = uuid.NewString()
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(boundary); err != nil {
		return nil, "", err
	}

	for _, part := range t.Parts {
		disposition := fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(part.Name))
		if part.FileName != "" {
			disposition += fmt.Sprintf(`; filename="%s"`, quoteEscaper.Replace(part.FileName))
		}
		mimeType := part.MimeType
		if mimeType == "" {
			mimeType = defaultPartType
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", disposition)
		header.Set("Content-Type", mimeType)

		pw, err := w.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := pw.Write(part.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
