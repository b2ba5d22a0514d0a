package weerlive

import (
	"errors"
	"strconv"
)

var errNoLiveWeather = errors.New("response contains no live weather")

var _ error = &NetworkError{}

// NetworkError is returned when the API could not be reached, or the call timed out.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "weerlive: network: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(err error) bool {
	var networkError *NetworkError
	return errors.As(err, &networkError)
}

var _ error = &HTTPStatusError{}

// HTTPStatusError is returned when the API replies with anything other than 200 OK.
type HTTPStatusError struct {
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	status := e.Status
	if status == "" {
		status = strconv.Itoa(e.StatusCode)
	}
	return "weerlive: http: " + status
}

func (e *HTTPStatusError) Is(err error) bool {
	var httpStatusError *HTTPStatusError
	return errors.As(err, &httpStatusError)
}

var _ error = &ParseError{}

// ParseError is returned when the API's response can't be decoded.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "weerlive: invalid response: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(err error) bool {
	var parseError *ParseError
	return errors.As(err, &parseError)
}
