/*
Package folioapi is the client SDK for the portfolio backend.

# Client vs Session

The package is organised around three types:

  - Client: a thin REST client bound to one base URL
  - Session: the login state, backed by a tokenstore.Store
  - API: the six resource modules, routed through a Topology

A Session is a TokenSource, so every Client built from it sends the current
access token as a bearer header:

	bus := eventx.New()
	session := folioapi.NewSession(folioapi.NewClient(authURL, nil), store, bus, logger)
	if !session.Initialize(ctx) {
		session.Login(ctx, email, password)
	}

	api := folioapi.NewAPI(folioapi.Composite(apiURL), session, nil)
	skills, err := api.Skills.List(ctx)

# Errors

Client and resource calls return one of three typed errors:

	var reqErr *folioapi.RequestError
	if errors.As(err, &reqErr) {
		fmt.Println(reqErr.StatusCode, reqErr.Message)
	}

NetworkError means the request never produced a response. RequestError is a
non-2xx status. ParseError is a 2xx response whose body is not JSON.

Session methods never return these. Login, Logout, Refresh, ValidateToken and
Initialize report a boolean and log the underlying failure.

# Topologies

Resources can live behind one composite gateway (Composite) or on one service
per resource (PerService). The caller picks one; nothing in this package
assumes either.
*/
package folioapi
