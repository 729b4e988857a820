package client

import "encoding/json"

// Task describes how a route's request body or query is built.
//
// Implementations: PlainTask, JSONTask, CustomJSONTask, ParametersTask and
// MultipartTask.
type Task interface {
	isTask()
}

// PlainTask sends no body.
type PlainTask struct{}

// JSONTask sends Body encoded with encoding/json.
type JSONTask struct {
	Body any
}

// BodyEncoder encodes a JSON request body.
type BodyEncoder interface {
	Encode(v any) ([]byte, error)
}

// EncoderFunc adapts a function to BodyEncoder.
type EncoderFunc func(v any) ([]byte, error)

// Encode implements BodyEncoder.
func (f EncoderFunc) Encode(v any) ([]byte, error) {
	return f(v)
}

// CustomJSONTask sends Body encoded by Encoder. A nil Encoder falls back to
// encoding/json.
type CustomJSONTask struct {
	Body    any
	Encoder BodyEncoder
}

// Placement selects where ParametersTask puts its parameters.
type Placement int

const (
	// PlacementBody sends the parameters as a JSON object.
	PlacementBody Placement = iota

	// PlacementQuery puts the parameters in the query string. POST requests
	// send them as an application/x-www-form-urlencoded body instead.
	PlacementQuery
)

func (p Placement) String() string {
	switch p {
	case PlacementBody:
		return "body"
	case PlacementQuery:
		return "query"
	default:
		return "unknown"
	}
}

// ParametersTask sends Params as JSON body, query string or form body.
type ParametersTask struct {
	Params    map[string]any
	Placement Placement
}

// Part is one section of a multipart/form-data body.
type Part struct {
	Data     []byte
	Name     string
	FileName string // optional
	MimeType string // default application/octet-stream
}

// MultipartTask sends Parts as multipart/form-data. An empty Boundary is
// replaced by a random one.
type MultipartTask struct {
	Boundary string
	Parts    []Part
}

func (PlainTask) isTask()      {}
func (JSONTask) isTask()       {}
func (CustomJSONTask) isTask() {}
func (ParametersTask) isTask() {}
func (MultipartTask) isTask()  {}

func (t CustomJSONTask) encode() ([]byte, error) {
	if t.Encoder == nil {
		return json.Marshal(t.Body)
	}
	return t.Encoder.Encode(t.Body)
}
