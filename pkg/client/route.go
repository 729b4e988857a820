package client

// Route describes one logical HTTP resource or operation.
//
// Routes are usually small structs or enums defined by the caller:
//
//	type ItemRoute struct{ ID int }
//
//	func (r ItemRoute) BaseURL() string           { return "https://api.example.com" }
//	func (r ItemRoute) Path() string              { return fmt.Sprintf("/items/%d", r.ID) }
//	func (r ItemRoute) Method() client.Method     { return client.GET(client.WithETag()) }
//	func (r ItemRoute) Task() client.Task         { return client.PlainTask{} }
//	func (r ItemRoute) Headers() map[string]string { return nil }
//	func (r ItemRoute) SampleData() []byte        { return []byte(`{"id":1}`) }
type Route interface {
	// BaseURL is the absolute base address, e.g. "https://api.example.com/v1".
	BaseURL() string

	// Path is joined onto BaseURL. May be empty.
	Path() string

	Method() Method
	Task() Task

	// Headers are set on every request built from the route.
	Headers() map[string]string

	// SampleData is returned by the Stub and DelayedStub request types.
	SampleData() []byte
}

// Routable is the type constraint of Client. Routes must be comparable
// because retry attempts are counted per route value.
type Routable interface {
	comparable
	Route
}
