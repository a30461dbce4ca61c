package pgmap

// HTTP-like status codes carried by *Error.
const (
	// StatusOK: the request was handled successfully.
	StatusOK = 200
	// StatusBadRequest: perceived client error.
	StatusBadRequest = 400
	// StatusNotAuthorized: missing or invalid credentials.
	StatusNotAuthorized = 401
	// StatusForbidden: understood but refused.
	StatusForbidden = 403
	// StatusNotFound: no row where exactly one was required.
	StatusNotFound = 404
	// StatusInternalServerErr: unexpected condition.
	StatusInternalServerErr = 500
	// StatusSvcNotAvail: temporary overload or maintenance.
	StatusSvcNotAvail = 503
)
