package appstore

// Response is the JSON object returned by the appstore API, decoded generically.
// Bodies that are not JSON objects are reported as ErrNonObjectBody.
type Response map[string]any

// AuthorizationField is the response key carrying a refreshed token after a retried call.
// Its value is a plain {"token", "user"} object; Response.Authorization reads it back typed.
const AuthorizationField = "authorization"

// Authorization is the result of a successful auth call.
// User is whatever JSON the service sent, passed through verbatim and never interpreted.
type Authorization struct {
	Token string `json:"token"`
	User  any    `json:"user,omitempty"`
}

// TokenParams is implemented by every token-scoped request parameter set.
type TokenParams[P any] interface {
	// WithToken returns a copy of the params with the token replaced.
	WithToken(token string) P
	// BearerToken returns the token the params carry.
	BearerToken() string
}

// GetParams are the inputs of the get operation.
type GetParams struct {
	Key   string
	Token string
}

func (p GetParams) WithToken(token string) GetParams { p.Token = token; return p }
func (p GetParams) BearerToken() string              { return p.Token }

// SetParams are the inputs of the set operation.
type SetParams struct {
	Key   string
	Token string
	Value string
}

func (p SetParams) WithToken(token string) SetParams { p.Token = token; return p }
func (p SetParams) BearerToken() string              { return p.Token }

// SubmitParams are the inputs of the submit operation. Results is optional.
type SubmitParams struct {
	Token   string
	Results any
}

func (p SubmitParams) WithToken(token string) SubmitParams { p.Token = token; return p }
func (p SubmitParams) BearerToken() string                 { return p.Token }

type authRequest struct {
	APIKey  string `json:"api_key"`
	AppSlug string `json:"app_slug"`
	UserID  string `json:"user_id"`
}

type getRequest struct {
	Key   string `json:"key"`
	Token string `json:"token"`
}

type setRequest struct {
	Key   string `json:"key"`
	Token string `json:"token"`
	Value string `json:"value"`
}

type submitRequest struct {
	Token   string `json:"token"`
	Results any    `json:"results,omitempty"`
}
