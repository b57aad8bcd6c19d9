package model

import "errors"

var ErrNoRecord = errors.New("no record")
var ErrAlreadyExists = errors.New("entity already exists")

var ErrUnauthorized = errors.New("unauthorized")
var ErrRefreshFailed = errors.New("token refresh failed")
var ErrUpstreamUnavailable = errors.New("upstream calendar service unavailable")
var ErrInvalidCalendar = errors.New("no such calendar")
var ErrStoreUnavailable = errors.New("store unavailable")
